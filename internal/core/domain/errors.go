package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Failure taxonomy for the auth subsystem. Client code branches on these
// with errors.Is; the server's HTTP error handler maps them to status codes.
var (
	// ErrInvalidCredentials is a rejected login (401 on the login request
	// itself). Local recovery only: no redirect, state stays anonymous.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrSessionExpired is a 401 (or legacy 419) on any authenticated,
	// non-login request. State is cleared and the user is sent back to login.
	ErrSessionExpired = errors.New("session expired")

	// ErrInsufficientPrivilege is a 403 or a failed role check. The session
	// is still valid; state must not be cleared.
	ErrInsufficientPrivilege = errors.New("insufficient privilege")

	// ErrRateLimited is a 429. Transient; retrying is the caller's call.
	ErrRateLimited = errors.New("too many requests")

	// ErrServerError is any 5xx. Never clears state, never auto-retried.
	ErrServerError = errors.New("server error")

	// ErrNetworkUnavailable is a transport-level failure with no response.
	ErrNetworkUnavailable = errors.New("unable to reach server")

	// ErrNotAuthenticated is returned by operations that require a live
	// session when none exists.
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrValidationFailed = errors.New("validation failed")
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrSessionNotFound  = errors.New("session not found")
)

// RateLimitError wraps ErrRateLimited with the server's Retry-After hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
	}
	return "too many requests"
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// FieldErrors carries per-field validation messages, keyed by field name.
// It unwraps to ErrValidationFailed so callers can branch generically.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrValidationFailed }
