package tracker

import (
	"errors"
	"fmt"
)

// Kind classifies a tracker failure for retry/abort decisions.
type Kind string

const (
	// RateLimited: the tracker throttled the request. Retryable.
	RateLimited Kind = "rate_limited"
	// Unauthorized: credentials rejected or insufficient. Fatal.
	Unauthorized Kind = "unauthorized"
	// NotFound: a referenced issue or endpoint does not exist.
	NotFound Kind = "not_found"
	// Transient: network failure, timeout, or tracker-side 5xx. Retryable.
	Transient Kind = "transient"
	// SchemaMismatch: the tracker answered with an unexpected shape. Fatal.
	SchemaMismatch Kind = "schema_mismatch"
)

// Error is a classified failure from a tracker operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified tracker error with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Retryable reports whether err is a tracker failure worth retrying with
// backoff (rate limits and transient network conditions).
func Retryable(err error) bool {
	var te *Error
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind == RateLimited || te.Kind == Transient
}

// Fatal reports whether err must abort the run instead of degrading to a
// per-finding error.
func Fatal(err error) bool {
	var te *Error
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind == Unauthorized || te.Kind == SchemaMismatch
}
