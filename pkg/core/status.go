package core

// StepStatus represents the execution status of a replayed step.
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Action failed
	StatusSkipped                   // Not executed (earlier abort or skip policy)
)

// String returns the string representation of StepStatus.
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies an error for reporting and policy decisions.
type ErrorCategory int

const (
	ErrCategoryNone      ErrorCategory = iota
	ErrCategoryLocate                  // Anchor could not be found or matched too weakly
	ErrCategoryResolve                 // Resolved coordinate is unusable
	ErrCategoryInjection               // OS-level input action failed
	ErrCategoryFlow                    // Malformed flow definition
	ErrCategoryRecorder                // Illegal recorder state transition
)

// String returns the string representation of ErrorCategory.
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLocate:
		return "locate"
	case ErrCategoryResolve:
		return "resolve"
	case ErrCategoryInjection:
		return "injection"
	case ErrCategoryFlow:
		return "flow"
	case ErrCategoryRecorder:
		return "recorder"
	default:
		return "unknown"
	}
}
