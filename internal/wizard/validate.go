package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// generalInfo is what the general step must hold before it can be left.
type generalInfo struct {
	Name string `validate:"required,max=255"`
}

// manualSubject is required when no existing subject was picked.
type manualSubject struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
	Type string `validate:"required"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// describe turns validator output into a flat, readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrStepIncomplete, strings.Join(fields, ", "))
}
