package workflow

import "fmt"

// InvalidTransitionError is returned when a phase transition is attempted
// that the phase graph does not allow.
type InvalidTransitionError struct {
	WorkflowID string
	From       Phase
	To         Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("workflow %s: invalid transition from %q to %q", e.WorkflowID, e.From, e.To)
}

// IsInvalidTransition reports whether err is an *InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	_, ok := err.(*InvalidTransitionError)
	return ok
}

// UnknownFeatureError is returned when an operation names a feature that was
// never planned for the workflow.
type UnknownFeatureError struct {
	WorkflowID string
	Name       string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("workflow %s: unknown feature %q", e.WorkflowID, e.Name)
}

// IsUnknownFeature reports whether err is an *UnknownFeatureError.
func IsUnknownFeature(err error) bool {
	_, ok := err.(*UnknownFeatureError)
	return ok
}
