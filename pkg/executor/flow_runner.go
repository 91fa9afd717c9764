package executor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/istale/auto-click-system/pkg/core"
	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/locator"
	"github.com/istale/auto-click-system/pkg/logger"
)

// flowRunner executes a single flow: locate the anchor, then replay every
// step relative to the recovered anchor click.
type flowRunner struct {
	ctx     context.Context
	flow    *flow.Flow
	screen  core.Screen
	input   core.Input
	anchors AnchorSource
	config  Config
}

func (fr *flowRunner) run() core.FlowResult {
	start := time.Now()
	result := core.FlowResult{
		FlowID:     fr.flow.ID,
		Title:      fr.flow.Title,
		Status:     core.StatusRunning,
		StartTime:  start,
		FailedStep: -1,
	}

	if errs := flow.Validate(fr.flow); len(errs) > 0 {
		err := core.ErrInvalidFlow.WithMessage(errs[0].Error()).WithDetails(map[string]interface{}{
			"problems": len(errs),
		})
		logger.Error("Flow %s: %v", fr.flow.ID, err)
		result.Status = core.StatusFailed
		result.Error = err.Error()
		result.Duration = time.Since(start)
		result.Steps = fr.skipAll(0, "flow failed validation")
		return result
	}

	match, err := fr.locateAnchor()
	if err != nil {
		logger.Error("Flow %s: anchor location failed: %v", fr.flow.ID, err)
		result.Status = core.StatusFailed
		result.Error = err.Error()
		result.Duration = time.Since(start)
		result.Steps = fr.skipAll(0, "anchor not located")
		return result
	}
	result.Anchor = match
	logger.Info("Flow %s: anchor located at (%d,%d) score %.4f after %d attempt(s)",
		fr.flow.ID, match.Bounds.X, match.Bounds.Y, match.Score, match.Attempts)

	result.Steps = make([]core.StepResult, 0, len(fr.flow.Steps))
	for i, step := range fr.flow.Steps {
		if fr.ctx.Err() != nil {
			result.Status = core.StatusFailed
			result.Error = "execution cancelled"
			result.Steps = append(result.Steps, fr.skipAll(i, "execution cancelled")...)
			break
		}

		sr := fr.runStep(i, step, match.AnchorClick)
		result.Steps = append(result.Steps, sr)
		if fr.config.OnStepComplete != nil {
			fr.config.OnStepComplete(sr)
		}

		if sr.Status == core.StatusFailed {
			if result.FailedStep == -1 {
				result.FailedStep = i
				result.Error = sr.Error
			}
			if fr.config.OnFailure == PolicyAbort {
				result.Steps = append(result.Steps, fr.skipAll(i+1, "aborted by earlier failure")...)
				break
			}
		}
	}

	result.Duration = time.Since(start)
	if result.Status == core.StatusRunning {
		if result.FailedStep >= 0 {
			result.Status = core.StatusFailed
		} else {
			result.Status = core.StatusPassed
		}
	}
	return result
}

// skipAll builds skipped results for steps from index from onward.
func (fr *flowRunner) skipAll(from int, reason string) []core.StepResult {
	skipped := make([]core.StepResult, 0, len(fr.flow.Steps)-from)
	for i := from; i < len(fr.flow.Steps); i++ {
		skipped = append(skipped, core.StepResult{
			Step:   fr.flow.Steps[i],
			Index:  i,
			Action: fr.flow.Steps[i].Kind(),
			Status: core.StatusSkipped,
			Error:  reason,
		})
	}
	return skipped
}

// locateAnchor captures the screen and matches the flow's anchor template,
// retrying per the configured policy. Every attempt captures a fresh frame.
func (fr *flowRunner) locateAnchor() (*core.AnchorMatch, error) {
	if fr.flow.Anchor == nil {
		return nil, core.ErrInvalidFlow.WithMessage(
			fmt.Sprintf("flow %s has no anchor", fr.flow.ID))
	}

	template, err := fr.anchors.LoadAnchorImage(fr.flow)
	if err != nil {
		return nil, core.ErrAnchorNotFound.
			WithMessage("failed to load anchor template").WithCause(err)
	}
	opts := fr.anchors.MatcherOptions(fr.flow)

	maxAttempts := fr.config.Retry.MaxAttempts
	bo := fr.config.Retry.newBackOff()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		frame, err := fr.screen.Capture()
		if err != nil {
			lastErr = core.ErrAnchorNotFound.
				WithMessage("screen capture failed").WithCause(err)
		} else {
			m, err := locator.Locate(frame, template, opts)
			if err == nil {
				return &core.AnchorMatch{
					Bounds:      m.Bounds,
					Score:       m.Score,
					Attempts:    attempt,
					AnchorClick: core.ResolveAnchorClick(m.Bounds, fr.flow.Anchor.ClickInImage),
				}, nil
			}
			lastErr = err
			logger.Debug("Flow %s: locate attempt %d/%d failed: %v",
				fr.flow.ID, attempt, maxAttempts, err)
		}

		if attempt < maxAttempts {
			select {
			case <-fr.ctx.Done():
				return nil, core.ErrAnchorNotFound.
					WithMessage("anchor location cancelled").WithCause(fr.ctx.Err())
			case <-time.After(bo.NextBackOff()):
			}
		}
	}

	var ee *core.ExecutionError
	if errors.As(lastErr, &ee) {
		return nil, ee.WithDetails(map[string]interface{}{"attempts": maxAttempts})
	}
	return nil, lastErr
}

// runStep dispatches on the step's concrete type, then sleeps its trailing
// delay on success.
func (fr *flowRunner) runStep(idx int, step flow.Step, anchorClick flow.Point) core.StepResult {
	sr := core.StepResult{
		Step:      step,
		Index:     idx,
		Action:    step.Kind(),
		Status:    core.StatusRunning,
		StartTime: time.Now(),
	}

	target, err := fr.executeStep(step, anchorClick)
	sr.Target = target
	sr.Duration = time.Since(sr.StartTime)

	if err != nil {
		var ee *core.ExecutionError
		if errors.As(err, &ee) {
			err = ee.WithDetails(map[string]interface{}{
				"step":   idx,
				"action": string(step.Kind()),
			})
			sr.Category = ee.Category
		}
		sr.Status = core.StatusFailed
		sr.Error = err.Error()
		logger.Error("Flow %s step %d (%s): %v", fr.flow.ID, idx, step.Kind(), err)
		return sr
	}

	sr.Status = core.StatusPassed
	logger.Info("Flow %s step %d (%s) passed in %v", fr.flow.ID, idx, step.Kind(), sr.Duration)

	if d := step.Delay(); d > 0 {
		time.Sleep(d)
	}
	return sr
}

// executeStep performs the step's action. The type switch is exhaustive
// over the step union; an unknown type is a flow defect, not a crash.
func (fr *flowRunner) executeStep(step flow.Step, anchorClick flow.Point) (*flow.Point, error) {
	switch st := step.(type) {
	case *flow.ClickStep:
		target := core.ResolveStep(anchorClick, st.Offset)
		sb := fr.screen.Bounds()
		if !(image.Point{X: target.X, Y: target.Y}).In(sb) {
			return &target, core.ErrCoordinateOutOfBounds.WithDetails(map[string]interface{}{
				"target": fmt.Sprintf("(%d,%d)", target.X, target.Y),
				"screen": sb.String(),
			})
		}
		if fr.config.DryRun {
			return &target, nil
		}
		if err := fr.input.Click(target, st.Button, st.Clicks); err != nil {
			return &target, core.ErrInputInjection.WithCause(err)
		}
		return &target, nil

	case *flow.TypeStep:
		if fr.config.DryRun {
			return nil, nil
		}
		if err := fr.input.TypeText(st.Text, st.Interval()); err != nil {
			return nil, core.ErrInputInjection.WithCause(err)
		}
		return nil, nil

	case *flow.HotkeyStep:
		if fr.config.DryRun {
			return nil, nil
		}
		if err := fr.input.Hotkey(st.Keys); err != nil {
			return nil, core.ErrInputInjection.WithCause(err)
		}
		return nil, nil

	case *flow.WaitStep:
		time.Sleep(st.Duration())
		return nil, nil

	default:
		return nil, core.ErrInvalidFlow.WithMessage(
			fmt.Sprintf("unsupported step kind %q", step.Kind()))
	}
}
