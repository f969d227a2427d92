package pipeline

import "fmt"

// Status classifies a successful operation outcome. Failures are reported
// through the returned error, never through a status.
type Status string

const (
	// StatusCompleted means the action ran and the run advanced.
	StatusCompleted Status = "completed"
	// StatusNeedsInput means the action ran but the run cannot advance
	// until the user supplies something (an answer, a revised query, a
	// decision about an empty plan).
	StatusNeedsInput Status = "needs-input"
	// StatusNoOp means the action had nothing to do.
	StatusNoOp Status = "no-op"
)

// Result describes the outcome of one pipeline operation for the UI.
type Result struct {
	Status  Status
	Message string
}

func completed(format string, args ...any) Result {
	return Result{Status: StatusCompleted, Message: fmt.Sprintf(format, args...)}
}

func needsInput(format string, args ...any) Result {
	return Result{Status: StatusNeedsInput, Message: fmt.Sprintf(format, args...)}
}

func noOp(format string, args ...any) Result {
	return Result{Status: StatusNoOp, Message: fmt.Sprintf(format, args...)}
}
