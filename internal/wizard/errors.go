package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrStepIncomplete   = errors.New("step incomplete")
	ErrTerminal         = errors.New("wizard is closed")
	ErrSubmitInFlight   = errors.New("submit already in progress")
	ErrUnauthenticated  = errors.New("session has no token")
	ErrUnknownActor     = errors.New("unknown actor")
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrUnknownTest      = errors.New("unknown test")
	ErrReadOnly         = errors.New("field is read-only")
)

// SubmitError wraps a failure reported by the persistence collaborator.
// The in-memory tree is kept, so the submit can be retried as is.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Retryable is always true: nothing is lost when a submit fails.
func (e *SubmitError) Retryable() bool {
	return true
}
