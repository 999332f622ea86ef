package branding

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidColor     = errors.New("invalid color")
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrInvalidPosition  = errors.New("invalid position")
)

// ValidationError reports a rejected configuration field. Field is the
// dotted path of the offending key, e.g. "heading2.color".
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func positive(field string, v float64) error {
	if v <= 0 {
		return invalid(field, fmt.Errorf("%w: must be positive, got %v", ErrInvalidDimension, v))
	}
	return nil
}

func position(field, v string) (Position, error) {
	p := Position(v)
	if !p.valid() {
		return "", invalid(field, fmt.Errorf("%w: %q (want left, center or right)", ErrInvalidPosition, v))
	}
	return p, nil
}
