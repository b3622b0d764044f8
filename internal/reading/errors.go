package reading

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the reading package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, reading.ErrInvalidFormat) {
//	    // identifier rejected
//	}
var (
	// ErrInvalidFormat is returned when an identifier does not match the schema pattern.
	ErrInvalidFormat = errors.New("reading: invalid identifier format")

	// ErrMissingFields is returned when required payload fields are absent.
	ErrMissingFields = errors.New("reading: missing required fields")

	// ErrInvalidType is returned when a field holds a value of the wrong type.
	ErrInvalidType = errors.New("reading: invalid field type")

	// ErrInvalidSchema is returned when the schema itself cannot be built.
	ErrInvalidSchema = errors.New("reading: invalid schema")
)

// FormatError reports an identifier that does not match the schema pattern.
type FormatError struct {
	ID      string
	Pattern string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("reading: identifier %q does not match %s", e.ID, e.Pattern)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

// SchemaError reports every required field absent from a payload.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("reading: missing required fields: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrMissingFields }

// TypeError reports a field whose value is not of the expected type.
type TypeError struct {
	Field string
	Value any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("reading: field %q must be a finite number, got %T (%v)", e.Field, e.Value, e.Value)
}

func (e *TypeError) Unwrap() error { return ErrInvalidType }
