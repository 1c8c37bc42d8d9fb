package flow

import (
	"errors"
	"fmt"
)

// TransportError is returned when the flow could not be reached or answered
// with a non-success HTTP status.
type TransportError struct {
	// Op is the step that failed (e.g. "sending request").
	Op string

	// StatusCode is the HTTP status returned by the flow, zero when no
	// response was received.
	StatusCode int

	Cause error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("flow returned status %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("flow transport failed %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// UnexpectedShapeError is returned when the response body is not a JSON object.
type UnexpectedShapeError struct {
	// Kind describes what was received instead (e.g. "array", "invalid JSON").
	Kind string

	Cause error
}

func (e *UnexpectedShapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("flow response is %s, expected object: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("flow response is %s, expected object", e.Kind)
}

func (e *UnexpectedShapeError) Unwrap() error {
	return e.Cause
}

// ParseError is returned when the answer text is missing from an otherwise
// well formed response.
type ParseError struct {
	// Path is the response path up to and including the first failing segment.
	Path string

	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("flow response missing answer at %s: %s", e.Path, e.Reason)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsUnexpectedShape reports whether err is or wraps an *UnexpectedShapeError.
func IsUnexpectedShape(err error) bool {
	var target *UnexpectedShapeError
	return errors.As(err, &target)
}

// IsParse reports whether err is or wraps a *ParseError.
func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}
