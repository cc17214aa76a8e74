package errs

import (
	"errors"
	"net"
	"net/url"
)

// Kind classifies a failure so the boundary that receives it (command
// dispatcher, ops API, reconciler loop) can decide how to render or log it.
type Kind int

const (
	// Unknown is the zero value for errors that carry no classification.
	Unknown Kind = iota
	// InvalidArgument: user input malformed or out of range. Reported to
	// the invoker, never logged as a system fault.
	InvalidArgument
	// NotFound: no matching region or subscription.
	NotFound
	// LimitExceeded: subscription cap reached.
	LimitExceeded
	// RemoteQuery: the statistics API returned an error envelope.
	RemoteQuery
	// IOFailure: store read/write failure.
	IOFailure
	// CircularReference: store content contains a self-referential value.
	CircularReference
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case LimitExceeded:
		return "limit_exceeded"
	case RemoteQuery:
		return "remote_query"
	case IOFailure:
		return "io_failure"
	case CircularReference:
		return "circular_reference"
	default:
		return "unknown"
	}
}

// Error is the tagged error variant used across the bot. Details carries
// rendering hints (remote error code, offending index and the like); it is
// display data, not part of the error identity.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	wrapped error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, wrapped: err}
}

// WithDetail attaches a rendering hint and returns the error for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// KindOf extracts the Kind from any error in the chain, Unknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsTransient reports whether err is a network-level failure that a
// scheduled task should swallow and retry on the next tick.
func IsTransient(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
