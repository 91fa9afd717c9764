// Package executor replays recorded flows against a screen and input
// backend, re-locating each flow's anchor before injecting its steps.
package executor

import (
	"context"
	"image"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/istale/auto-click-system/pkg/core"
	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/locator"
)

// FailurePolicy decides what happens to the rest of a flow after a step
// fails.
type FailurePolicy int

const (
	// PolicyAbort skips all remaining steps after a failure.
	PolicyAbort FailurePolicy = iota
	// PolicySkip records the failure and continues with the next step.
	PolicySkip
)

// ParsePolicy maps a CLI string to a failure policy.
func ParsePolicy(s string) (FailurePolicy, bool) {
	switch s {
	case "", "abort":
		return PolicyAbort, true
	case "skip":
		return PolicySkip, true
	default:
		return PolicyAbort, false
	}
}

// RetryPolicy bounds anchor location attempts. MaxAttempts counts every
// attempt including the first; 0 and 1 both mean a single attempt.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
	Exponential bool
}

// newBackOff builds the delay source used between attempts.
func (p RetryPolicy) newBackOff() backoff.BackOff {
	if p.Exponential {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.Interval
		b.MaxElapsedTime = 0
		return b
	}
	return backoff.NewConstantBackOff(p.Interval)
}

// AnchorSource supplies the template image and matcher settings for a flow.
// Implemented by project.Project.
type AnchorSource interface {
	LoadAnchorImage(f *flow.Flow) (image.Image, error)
	MatcherOptions(f *flow.Flow) locator.Options
}

// Config configures the executor.
type Config struct {
	Retry     RetryPolicy
	OnFailure FailurePolicy

	// DryRun resolves coordinates without injecting input.
	DryRun bool

	// Live progress callbacks
	OnFlowStart    func(flowIdx, totalFlows int, id, title string)
	OnStepComplete func(res core.StepResult)
	OnFlowEnd      func(res core.FlowResult)
}

// Executor replays flows sequentially.
type Executor struct {
	config  Config
	screen  core.Screen
	input   core.Input
	anchors AnchorSource
}

// New creates a new Executor.
func New(screen core.Screen, input core.Input, anchors AnchorSource, cfg Config) *Executor {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Executor{
		config:  cfg,
		screen:  screen,
		input:   input,
		anchors: anchors,
	}
}

// Run replays all flows in order. Flows remaining after a cancellation are
// marked skipped; a flow failure never stops the ones after it.
func (e *Executor) Run(ctx context.Context, flows []*flow.Flow) []core.FlowResult {
	results := make([]core.FlowResult, len(flows))

	for i, f := range flows {
		if ctx.Err() != nil {
			results[i] = core.FlowResult{
				FlowID:     f.ID,
				Title:      f.Title,
				Status:     core.StatusSkipped,
				Error:      "run cancelled",
				FailedStep: -1,
			}
			continue
		}

		if e.config.OnFlowStart != nil {
			e.config.OnFlowStart(i, len(flows), f.ID, f.Title)
		}
		results[i] = e.RunFlow(ctx, f)
		if e.config.OnFlowEnd != nil {
			e.config.OnFlowEnd(results[i])
		}
	}

	return results
}

// RunFlow replays a single flow.
func (e *Executor) RunFlow(ctx context.Context, f *flow.Flow) core.FlowResult {
	fr := &flowRunner{
		ctx:     ctx,
		flow:    f,
		screen:  e.screen,
		input:   e.input,
		anchors: e.anchors,
		config:  e.config,
	}
	return fr.run()
}
