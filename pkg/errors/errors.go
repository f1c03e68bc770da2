package amen_errors

import "errors"

// Common errors
var (
	ErrBlocked             = errors.New("blocked")
	ErrSelfConversation    = errors.New("cannot open a conversation with yourself")
	ErrPreviouslyDeclined  = errors.New("conversation was declined")
	ErrPendingLimitReached = errors.New("pending message limit reached")
	ErrConflict            = errors.New("concurrent modification")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnavailable         = errors.New("service unavailable")
)

// IsRetryable reports whether an operation that failed with err may succeed
// when replayed against a fresh read. Permission and validation failures are
// final; only write conflicts and transient store failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}
