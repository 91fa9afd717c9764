// Package recorder turns a stream of raw pointer events into anchor-relative
// click steps. A session owns the state machine; callers feed it events
// directly or through a channel.
package recorder

import (
	"context"
	"image"

	"github.com/google/uuid"

	"github.com/istale/auto-click-system/pkg/core"
	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/logger"
	"github.com/istale/auto-click-system/pkg/preview"
)

// State is the recorder session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EventKind distinguishes pointer events from recorder control events.
type EventKind int

const (
	// EventClick is a raw pointer click at an absolute screen position.
	EventClick EventKind = iota
	// EventPause toggles between recording and paused.
	EventPause
	// EventStop ends the session.
	EventStop
)

// Event is one input event delivered to a session. Control events are
// consumed by the session itself and never become steps.
type Event struct {
	Kind   EventKind
	Point  flow.Point
	Button flow.MouseButton
	Clicks int
}

// PreviewStore persists step preview images. Implemented by project.Project.
type PreviewStore interface {
	SavePreview(flowID string, stepNum int, img image.Image) (string, error)
}

// Config describes a new recording session. The anchor and its absolute
// click position must be fixed before recording starts; every recorded
// click is stored relative to AnchorClick.
type Config struct {
	FlowID string // generated when empty
	Title  string
	Anchor *flow.Anchor
	// AnchorClick is the absolute screen position of the anchor click at
	// capture time.
	AnchorClick flow.Point
	// DelayS is the default delay assigned to recorded steps.
	DelayS float64

	// Screen and Previews enable per-click preview crops. Both may be nil,
	// in which case previews are skipped.
	Screen   core.Screen
	Previews PreviewStore
}

// Session records one flow. It is not safe for concurrent use; drive it from
// a single goroutine, typically via Consume.
type Session struct {
	cfg   Config
	state State
	steps []flow.Step
}

// NewSession creates a session in the idle state.
func NewSession(cfg Config) *Session {
	if cfg.FlowID == "" {
		cfg.FlowID = uuid.New().String()[:8]
	}
	if cfg.DelayS == 0 {
		cfg.DelayS = flow.DefaultDelaySeconds
	}
	return &Session{cfg: cfg, state: StateIdle}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// StepCount returns the number of steps recorded so far.
func (s *Session) StepCount() int {
	return len(s.steps)
}

func (s *Session) stateError(op string) error {
	return core.ErrRecorderState.WithMessage(
		"cannot " + op + " while " + s.state.String()).WithDetails(map[string]interface{}{
		"state": s.state.String(),
		"op":    op,
	})
}

// Start moves the session from idle to recording.
func (s *Session) Start() error {
	if s.state != StateIdle {
		return s.stateError("start")
	}
	s.state = StateRecording
	logger.Info("Recording started for flow %s", s.cfg.FlowID)
	return nil
}

// TogglePause switches between recording and paused. Clicks arriving while
// paused are discarded.
func (s *Session) TogglePause() error {
	switch s.state {
	case StateRecording:
		s.state = StatePaused
		logger.Info("Recording paused (flow %s, %d steps)", s.cfg.FlowID, len(s.steps))
		return nil
	case StatePaused:
		s.state = StateRecording
		logger.Info("Recording resumed (flow %s)", s.cfg.FlowID)
		return nil
	default:
		return s.stateError("pause")
	}
}

// Stop ends the session and returns the finalized flow. A stopped session
// cannot be restarted.
func (s *Session) Stop() (*flow.Flow, error) {
	if s.state != StateRecording && s.state != StatePaused {
		return nil, s.stateError("stop")
	}
	s.state = StateStopped

	steps := make([]flow.Step, len(s.steps))
	copy(steps, s.steps)
	f := &flow.Flow{
		ID:     s.cfg.FlowID,
		Title:  s.cfg.Title,
		Anchor: s.cfg.Anchor,
		Steps:  steps,
	}
	logger.Info("Recording stopped for flow %s with %d steps", f.ID, len(f.Steps))
	return f, nil
}

// HandleEvent applies one event to the session. Control events (pause,
// stop) act on the state machine and are never recorded as steps; click
// events become steps only while recording.
func (s *Session) HandleEvent(ev Event) error {
	switch ev.Kind {
	case EventPause:
		return s.TogglePause()
	case EventStop:
		_, err := s.Stop()
		return err
	case EventClick:
		return s.handleClick(ev)
	default:
		return core.ErrRecorderState.WithMessage("unknown event kind")
	}
}

func (s *Session) handleClick(ev Event) error {
	if s.state != StateRecording {
		logger.Debug("Discarding click at (%d,%d): session is %s", ev.Point.X, ev.Point.Y, s.state)
		return nil
	}

	clicks := ev.Clicks
	if clicks == 0 {
		clicks = flow.DefaultClicks
	}
	button := ev.Button
	if button == "" {
		button = flow.ButtonLeft
	}

	step := &flow.ClickStep{
		BaseStep: flow.BaseStep{Action: flow.StepClick, DelayS: s.cfg.DelayS},
		Offset:   ev.Point.Sub(s.cfg.AnchorClick),
		Button:   button,
		Clicks:   clicks,
	}
	step.Preview = s.capturePreview(ev.Point, len(s.steps)+1)
	s.steps = append(s.steps, step)

	logger.Info("Recorded click %d at (%d,%d), offset (%d,%d)",
		len(s.steps), ev.Point.X, ev.Point.Y, step.Offset.X, step.Offset.Y)
	return nil
}

// capturePreview grabs a crop around the click. Previews are best effort;
// failures are logged and leave the step without one.
func (s *Session) capturePreview(click flow.Point, stepNum int) string {
	if s.cfg.Screen == nil || s.cfg.Previews == nil {
		return ""
	}

	frame, err := s.cfg.Screen.Capture()
	if err != nil {
		logger.Warn("Preview capture failed for step %d: %v", stepNum, err)
		return ""
	}
	crop, err := preview.Crop(frame, click, preview.DefaultSize)
	if err != nil {
		logger.Warn("Preview crop failed for step %d: %v", stepNum, err)
		return ""
	}
	rel, err := s.cfg.Previews.SavePreview(s.cfg.FlowID, stepNum, crop)
	if err != nil {
		logger.Warn("Preview save failed for step %d: %v", stepNum, err)
		return ""
	}
	return rel
}

// Consume starts the session and applies events from the channel until a
// stop event arrives, the channel closes, or the context is canceled. It
// returns the finalized flow in all three cases.
func (s *Session) Consume(ctx context.Context, events <-chan Event) (*flow.Flow, error) {
	if err := s.Start(); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			f, err := s.Stop()
			if err != nil {
				return nil, err
			}
			return f, ctx.Err()
		case ev, ok := <-events:
			if !ok || ev.Kind == EventStop {
				return s.Stop()
			}
			if err := s.HandleEvent(ev); err != nil {
				return nil, err
			}
		}
	}
}
