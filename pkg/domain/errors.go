package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session ID cannot be found in the history store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidAction is the cause of a KindInvalidAction error.
	ErrInvalidAction = errors.New("Invalid action")
)

// ErrorKind is the closed set of failure categories surfaced by the pipeline.
type ErrorKind string

const (
	// KindTransport: the remote service could not be reached (DNS, refused, timeout).
	KindTransport ErrorKind = "transport"
	// KindParse: the remote service answered with something that could not be decoded.
	KindParse ErrorKind = "parse"
	// KindUpstream: the remote service answered with an error of its own.
	KindUpstream ErrorKind = "upstream"
	// KindInvalidAction: the descriptor names no supported action.
	KindInvalidAction ErrorKind = "invalid_action"
	// KindInvalidParameter: a required parameter is missing or out of range.
	KindInvalidParameter ErrorKind = "invalid_parameter"
)

// Error is a pipeline failure tagged with its kind.
// Message is the user-facing sentence; Err keeps the cause.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// NewError builds an Error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind) + " error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
