// Package mock provides in-memory screen and input backends for testing and
// dry runs without touching a real desktop.
package mock

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/istale/auto-click-system/pkg/flow"
)

// Screen is a mock implementation of core.Screen that always returns the
// configured frame.
type Screen struct {
	Frame image.Image

	captureCount int
}

// NewScreen creates a mock screen backed by the given frame.
func NewScreen(frame image.Image) *Screen {
	return &Screen{Frame: frame}
}

// NewUniformScreen creates a mock screen filled with a single color.
func NewUniformScreen(width, height int, c color.Color) *Screen {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return NewScreen(img)
}

// Capture returns the configured frame.
func (s *Screen) Capture() (image.Image, error) {
	s.captureCount++
	return s.Frame, nil
}

// Bounds returns the frame dimensions.
func (s *Screen) Bounds() image.Rectangle {
	return s.Frame.Bounds()
}

// CaptureCount reports how many frames were requested.
func (s *Screen) CaptureCount() int {
	return s.captureCount
}

// Embed draws a template into a copy of the screen frame at the given
// top-left position, so locator tests can plant an exact match.
func (s *Screen) Embed(template image.Image, at image.Point) {
	fb := s.Frame.Bounds()
	dst := image.NewRGBA(fb)
	draw.Draw(dst, fb, s.Frame, fb.Min, draw.Src)
	tb := template.Bounds()
	target := image.Rect(at.X, at.Y, at.X+tb.Dx(), at.Y+tb.Dy())
	draw.Draw(dst, target, template, tb.Min, draw.Src)
	s.Frame = dst
}

// InputCall records one injected input action.
type InputCall struct {
	Kind     flow.StepKind
	Point    flow.Point
	Button   flow.MouseButton
	Clicks   int
	Text     string
	Interval time.Duration
	Keys     []string
}

// Input is a mock implementation of core.Input that records every call.
type Input struct {
	// Config
	Config Config

	// Calls holds every injected action in order.
	Calls []InputCall

	callCount int
}

// Config configures mock input behavior.
type Config struct {
	// FailOnCall makes call N fail (1-indexed). 0 = never fail.
	FailOnCall int
	// CallDelay adds artificial delay per call
	CallDelay time.Duration
}

// NewInput creates a new mock input backend.
func NewInput(cfg Config) *Input {
	return &Input{Config: cfg}
}

func (i *Input) record(call InputCall) error {
	i.callCount++
	if i.Config.CallDelay > 0 {
		time.Sleep(i.Config.CallDelay)
	}
	if i.Config.FailOnCall > 0 && i.callCount == i.Config.FailOnCall {
		return fmt.Errorf("mock failure on input call %d", i.callCount)
	}
	i.Calls = append(i.Calls, call)
	return nil
}

// Click records a click action.
func (i *Input) Click(p flow.Point, button flow.MouseButton, clicks int) error {
	return i.record(InputCall{Kind: flow.StepClick, Point: p, Button: button, Clicks: clicks})
}

// TypeText records a typing action.
func (i *Input) TypeText(text string, interval time.Duration) error {
	return i.record(InputCall{Kind: flow.StepType, Text: text, Interval: interval})
}

// Hotkey records a key chord action.
func (i *Input) Hotkey(keys []string) error {
	return i.record(InputCall{Kind: flow.StepHotkey, Keys: keys})
}
