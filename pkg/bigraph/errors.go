package bigraph

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned when an edge-list line cannot be split into endpoints and weight.
	ErrParse = errors.New("bigraph: parse error")

	// ErrIndexOutOfRange signals an edge endpoint outside the node sets.
	ErrIndexOutOfRange = errors.New("bigraph: index out of range")

	// ErrInvalidWeight signals a NaN, infinite or negative weight.
	ErrInvalidWeight = errors.New("bigraph: invalid edge weight")

	// ErrUnencodableLabel is returned by Write for a label that would not
	// survive a reload with the chosen delimiter.
	ErrUnencodableLabel = errors.New("bigraph: label cannot be written")

	// ErrInvalidGeneration is returned for out-of-domain generator arguments.
	ErrInvalidGeneration = errors.New("bigraph: invalid generation parameters")
)

// ValidationError describes one structural problem found by Validate
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("validation error in field '%s': %s (value: %s)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors: %s (and %d more)", len(ve), ve[0].Error(), len(ve)-1)
}
