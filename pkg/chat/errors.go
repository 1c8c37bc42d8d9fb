package chat

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/flowchat/pkg/flow"
)

// ErrorKind classifies a failed exchange for presentation.
type ErrorKind string

const (
	KindTransport       ErrorKind = "transport"
	KindUnexpectedShape ErrorKind = "unexpected_shape"
	KindParse           ErrorKind = "parse"
	KindUnknown         ErrorKind = "unknown"
)

// ExchangeError is returned by Session.Submit when the flow did not produce
// an answer. The user turn stays in the log; no assistant turn is appended.
type ExchangeError struct {
	Kind  ErrorKind
	Cause error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange failed (%s): %v", e.Kind, e.Cause)
}

func (e *ExchangeError) Unwrap() error {
	return e.Cause
}

// Describe returns a message suitable for showing to the user.
func (e *ExchangeError) Describe() string {
	switch e.Kind {
	case KindTransport:
		return "Could not reach the assistant. Please try again."
	case KindUnexpectedShape:
		return "The assistant sent a response that could not be read."
	case KindParse:
		return "The assistant's response did not contain an answer."
	default:
		return "Error processing request."
	}
}

// AsExchangeError unwraps err into an *ExchangeError.
func AsExchangeError(err error) (*ExchangeError, bool) {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr, true
	}
	return nil, false
}

func classify(err error) ErrorKind {
	switch {
	case flow.IsTransport(err):
		return KindTransport
	case flow.IsUnexpectedShape(err):
		return KindUnexpectedShape
	case flow.IsParse(err):
		return KindParse
	default:
		return KindUnknown
	}
}
