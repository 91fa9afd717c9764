package flow

import "fmt"

// ValidationError describes one malformed field of a flow.
type ValidationError struct {
	FlowID  string
	StepIdx int // 1-based; 0 for flow-level problems
	Message string
}

func (e *ValidationError) Error() string {
	if e.StepIdx > 0 {
		return fmt.Sprintf("flow %s step %d: %s", e.FlowID, e.StepIdx, e.Message)
	}
	return fmt.Sprintf("flow %s: %s", e.FlowID, e.Message)
}

// Validate checks a flow for structural problems. All findings are returned;
// a flow with any finding must not be executed.
func Validate(f *Flow) []error {
	var errs []error

	fail := func(stepIdx int, format string, args ...interface{}) {
		errs = append(errs, &ValidationError{
			FlowID:  f.ID,
			StepIdx: stepIdx,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if f.ID == "" {
		fail(0, "missing id")
	}
	if f.Anchor == nil {
		fail(0, "missing anchor")
	} else {
		if f.Anchor.Image == "" {
			fail(0, "anchor missing image path")
		}
		if f.Anchor.ClickInImage.X < 0 || f.Anchor.ClickInImage.Y < 0 {
			fail(0, "anchor click_in_image must be non-negative, got (%d,%d)",
				f.Anchor.ClickInImage.X, f.Anchor.ClickInImage.Y)
		}
		if f.Anchor.Confidence != nil && (*f.Anchor.Confidence < 0 || *f.Anchor.Confidence > 1) {
			fail(0, "anchor confidence must be in [0,1], got %g", *f.Anchor.Confidence)
		}
	}

	for i, step := range f.Steps {
		idx := i + 1
		switch s := step.(type) {
		case *ClickStep:
			if s.Clicks < 1 || s.Clicks > MaxClicks {
				fail(idx, "clicks must be 1 or 2, got %d", s.Clicks)
			}
			if s.DelayS < 0 {
				fail(idx, "negative delay_s")
			}
		case *TypeStep:
			if s.Text == "" {
				fail(idx, "type step has empty text")
			}
			if s.IntervalS < 0 {
				fail(idx, "negative interval_s")
			}
			if s.DelayS < 0 {
				fail(idx, "negative delay_s")
			}
		case *HotkeyStep:
			if len(s.Keys) == 0 {
				fail(idx, "hotkey step has no keys")
			}
			for _, k := range s.Keys {
				if k == "" {
					fail(idx, "hotkey step has an empty key name")
				}
			}
			if s.DelayS < 0 {
				fail(idx, "negative delay_s")
			}
		case *WaitStep:
			if s.Seconds < 0 {
				fail(idx, "negative seconds")
			}
		default:
			fail(idx, "unknown step kind %T", step)
		}
	}

	return errs
}
