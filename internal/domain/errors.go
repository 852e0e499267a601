package domain

import (
	"errors"
	"fmt"
	"regexp"
)

// Error taxonomy. Concrete errors match these through errors.Is.
var (
	// ErrNotFound means the target id does not exist. Never retried.
	ErrNotFound = errors.New("not found")
	// ErrTransient is a backend fault that may succeed on retry.
	ErrTransient = errors.New("transient backend error")
	// ErrValidation is malformed input, rejected before any remote call.
	ErrValidation = errors.New("validation failed")
)

type notFoundError struct {
	id string
}

// NotFound builds the error returned for an unknown service id.
func NotFound(id string) error {
	return &notFoundError{id: id}
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("service %s not found (404)", e.id)
}

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

type transientError struct {
	msg string
}

// Transient builds a simulated backend fault carrying msg verbatim.
func Transient(msg string) error {
	return &transientError{msg: msg}
}

func (e *transientError) Error() string { return e.msg }

func (e *transientError) Is(target error) bool { return target == ErrTransient }

// OpError is what the fetch client surfaces: the failed operation, its
// target id when there is one, and the underlying error.
type OpError struct {
	Op  string
	ID  string
	Err error
}

func (e *OpError) Error() string {
	if e.ID == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.ID + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// Message returns the underlying error text without the operation prefix.
// Notifications show this to the operator.
func Message(err error) string {
	var op *OpError
	if errors.As(err, &op) {
		return op.Err.Error()
	}
	return err.Error()
}

var clientFaultMarker = regexp.MustCompile(`\b4\d\d\b`)

// IsClientFault reports whether err was caused by the caller rather than
// the backend. Client faults are surfaced immediately and never retried.
func IsClientFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return true
	}
	return clientFaultMarker.MatchString(err.Error())
}
