package provider

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	InvalidConfig      ErrorKind = "invalid_config"
	Unauthorized       ErrorKind = "unauthorized"
	RateLimited        ErrorKind = "rate_limited"
	Unreachable        ErrorKind = "unreachable"
	UnexpectedResponse ErrorKind = "unexpected_response"
)

// Retryable reports whether the dispatcher should retry a delivery that
// failed with this kind. Everything else is terminal for the attempt.
func (k ErrorKind) Retryable() bool {
	return k == RateLimited || k == Unreachable
}

type Error struct {
	Kind     ErrorKind
	Provider Kind
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, provider Kind, message string, err error) *Error {
	return &Error{
		Kind:     kind,
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}

func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Retryable()
	}
	// unknown failure shapes are not retried
	return false
}

func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnexpectedResponse
}
