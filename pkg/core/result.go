package core

import (
	"time"

	"github.com/istale/auto-click-system/pkg/flow"
)

// StepResult captures the outcome of replaying a single step.
type StepResult struct {
	// Identity
	Step   flow.Step     `json:"-"`
	Index  int           `json:"index"` // 0-based position in flow
	Action flow.StepKind `json:"action"`

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Resolved absolute coordinate, for click steps.
	Target *flow.Point `json:"target,omitempty"`

	// Error details
	Error string `json:"error,omitempty"`
}

// AnchorMatch records how the anchor was located for a run.
type AnchorMatch struct {
	Bounds      Bounds     `json:"bounds"`
	Score       float64    `json:"score"`
	Attempts    int        `json:"attempts"` // 1-based attempt that succeeded
	AnchorClick flow.Point `json:"anchorClick"`
}

// FlowResult captures the outcome of replaying a flow.
type FlowResult struct {
	FlowID    string        `json:"flowId"`
	Title     string        `json:"title,omitempty"`
	Status    StepStatus    `json:"status"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Anchor    *AnchorMatch  `json:"anchor,omitempty"`
	Steps     []StepResult  `json:"steps"`
	Error     string        `json:"error,omitempty"`
	// FailedStep is the 0-based index of the step that aborted the flow,
	// or -1.
	FailedStep int `json:"failedStep"`
}

// Counts returns (passed, failed, skipped) step totals.
func (r *FlowResult) Counts() (passed, failed, skipped int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return
}
