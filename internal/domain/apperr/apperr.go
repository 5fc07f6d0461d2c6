// Package apperr defines the error taxonomy shared by stores, services, and
// the HTTP layer.
//
// Validation and rate-limit errors are expected, user-facing outcomes and
// carry enough detail to redisplay a field-specific message. Store faults
// (StoreUnavailable) are transient and retryable; they must never be
// conflated with "not found" or "already exists".
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports malformed caller input. It is raised before any
// store mutation, so a rejected request leaves no partial state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for the given field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports that a referenced community or user does not exist.
type NotFoundError struct {
	Kind string // "community" | "user"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// NotFound builds a NotFoundError.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// RateLimitedError reports a submission attempted before the cooldown
// elapsed. RetryAfter is how long the caller must wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: next submission allowed in %s", e.RetryAfter.Round(time.Second))
}

var (
	// ErrNotInCommunity means a submission was attempted with no active
	// community association. Joining a community first recovers it.
	ErrNotInCommunity = errors.New("user is not in a community")

	// ErrMoodRequired means mood selection is enforced by policy and the
	// submission carried none.
	ErrMoodRequired = errors.New("a mood selection is required")
)

// StoreUnavailableError wraps a backing-store fault. Safe to retry with
// backoff.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// StoreUnavailable wraps err as a transient store fault. A nil err returns nil.
func StoreUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsRateLimited reports whether err is a RateLimitedError, returning the
// remaining cooldown when it is.
func IsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// IsStoreUnavailable reports whether err is a transient store fault.
func IsStoreUnavailable(err error) bool {
	var su *StoreUnavailableError
	return errors.As(err, &su)
}
