// Package flow handles parsing and representation of auto-click flow files.
package flow

import (
	"fmt"
	"strings"
	"time"
)

// StepKind identifies a step variant.
type StepKind string

// Step kind constants. The set is closed: the executor dispatches
// exhaustively over these, so adding a kind is a compile-visible change.
const (
	StepClick  StepKind = "click"
	StepType   StepKind = "type"
	StepHotkey StepKind = "hotkey"
	StepWait   StepKind = "wait"
)

// Default field values applied at parse time.
const (
	DefaultDelaySeconds   = 2
	DefaultTypeIntervalS  = 0.02
	DefaultButton         = ButtonLeft
	DefaultClicks         = 1
	MaxClicks             = 2
)

// MouseButton names a pointer button.
type MouseButton string

// Supported pointer buttons.
const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// ParseButton normalizes a button name, defaulting to left.
func ParseButton(s string) (MouseButton, error) {
	switch MouseButton(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ButtonLeft, nil
	case ButtonLeft:
		return ButtonLeft, nil
	case ButtonRight:
		return ButtonRight, nil
	case ButtonMiddle:
		return ButtonMiddle, nil
	}
	return "", fmt.Errorf("unknown button %q", s)
}

// Step is the interface implemented by all step variants.
type Step interface {
	Kind() StepKind
	// Delay is the pause after the step's action completes.
	Delay() time.Duration
	Describe() string
}

// BaseStep contains fields common to all steps.
type BaseStep struct {
	Action StepKind `yaml:"action"`
	DelayS float64  `yaml:"delay_s"`
}

// Kind returns the step kind.
func (b *BaseStep) Kind() StepKind { return b.Action }

// Delay returns the post-action delay.
func (b *BaseStep) Delay() time.Duration {
	return time.Duration(b.DelayS * float64(time.Second))
}

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.Action) }

// ClickStep clicks at an anchor-relative offset. Offset is computed once at
// record time against anchor_click_xy and is never mutated at replay time.
type ClickStep struct {
	BaseStep `yaml:",inline"`
	Offset   Point       `yaml:"offset"`
	Button   MouseButton `yaml:"button"`
	Clicks   int         `yaml:"clicks"`
	Preview  string      `yaml:"preview,omitempty"` // diagnostic only
}

// Describe returns a human-readable description of the click step.
func (s *ClickStep) Describe() string {
	return fmt.Sprintf("click offset=(%d,%d) button=%s clicks=%d", s.Offset.X, s.Offset.Y, s.Button, s.Clicks)
}

// TypeStep types literal text, one character per IntervalS.
type TypeStep struct {
	BaseStep  `yaml:",inline"`
	Text      string  `yaml:"text"`
	IntervalS float64 `yaml:"interval_s"`
}

// Interval returns the per-character typing interval.
func (s *TypeStep) Interval() time.Duration {
	return time.Duration(s.IntervalS * float64(time.Second))
}

// Describe returns a human-readable description of the type step.
func (s *TypeStep) Describe() string {
	return fmt.Sprintf("type %q", s.Text)
}

// HotkeyStep presses a key chord, e.g. [ctrl, s].
type HotkeyStep struct {
	BaseStep `yaml:",inline"`
	Keys     []string `yaml:"keys"`
}

// Describe returns a human-readable description of the hotkey step.
func (s *HotkeyStep) Describe() string {
	return "hotkey " + strings.Join(s.Keys, "+")
}

// WaitStep sleeps. Unlike the other kinds it carries no extra delay;
// Seconds is the whole step.
type WaitStep struct {
	BaseStep `yaml:",inline"`
	Seconds  float64 `yaml:"seconds"`
}

// Duration returns the wait length.
func (s *WaitStep) Duration() time.Duration {
	return time.Duration(s.Seconds * float64(time.Second))
}

// Delay returns zero: a wait step's entire pause is Seconds.
func (s *WaitStep) Delay() time.Duration { return 0 }

// Describe returns a human-readable description of the wait step.
func (s *WaitStep) Describe() string {
	return fmt.Sprintf("wait %gs", s.Seconds)
}
