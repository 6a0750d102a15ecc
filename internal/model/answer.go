package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAnswer is returned when a value cannot be stored as a test result.
var ErrInvalidAnswer = errors.New("invalid answer")

// SetResult stores a numeric answer. Binary tests only take 0 or 1.
func (t *Test) SetResult(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: test %s: %v is not a number", ErrInvalidAnswer, t.ID, v)
	}
	if v < 0 {
		return fmt.Errorf("%w: test %s: %v is negative", ErrInvalidAnswer, t.ID, v)
	}
	if t.IsBinary() && v != 0 && v != 1 {
		return fmt.Errorf("%w: test %s is binary, got %v", ErrInvalidAnswer, t.ID, v)
	}
	t.Result = Float(v)
	return nil
}

// SetBinary stores a yes/no answer as 1/0.
func (t *Test) SetBinary(yes bool) {
	if yes {
		t.Result = Float(1)
		return
	}
	t.Result = Float(0)
}

// SetValues combines a control and a community measurement into a
// percentage result (control / community * 100).
func (t *Test) SetValues(control, community float64) error {
	if community == 0 {
		return fmt.Errorf("%w: test %s: community value must be non-zero", ErrInvalidAnswer, t.ID)
	}
	if t.IsBinary() {
		return fmt.Errorf("%w: test %s is binary and takes no measurements", ErrInvalidAnswer, t.ID)
	}
	return t.SetResult(control / community * 100)
}

// Reset clears the answer.
func (t *Test) Reset() {
	t.Result = nil
}
