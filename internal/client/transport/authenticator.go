// Package transport wraps every outbound request with session credentials
// and uniformly classifies failure responses into the domain error taxonomy.
package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blumenhaus/flora-shop/internal/client/authstate"
	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
)

// SessionExpiredMessage is the reason carried on the redirect to login.
const SessionExpiredMessage = "Your session has expired. Please log in again."

// statusSessionTimeout is the legacy 419 some backend revisions emit in
// place of 401 for an aged-out session.
const statusSessionTimeout = 419

// Authenticator is the http.RoundTripper applied to every client request.
// Headers are attached unconditionally; a selective scheme would risk
// silent unauthenticated calls. The session cookie itself rides on the
// http.Client's cookie jar.
type Authenticator struct {
	next  http.RoundTripper
	state *authstate.Container
	store ports.SessionStore
	nav   ports.Navigator
	log   zerolog.Logger
}

func NewAuthenticator(next http.RoundTripper, state *authstate.Container, store ports.SessionStore, nav ports.Navigator, log zerolog.Logger) *Authenticator {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Authenticator{next: next, state: state, store: store, nav: nav, log: log}
}

// RoundTrip attaches the standard headers, forwards the request, and reacts
// to authentication-relevant status codes. The response is always handed
// back to the caller for its own error handling.
func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}
	out.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := a.next.RoundTrip(out)
	if err != nil {
		a.log.Warn().Err(err).Str("url", req.URL.Path).Msg("request transport failure")
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == statusSessionTimeout:
		// A login or register attempt rejecting credentials is not a session
		// expiry; no session existed to expire. Pass it through untouched.
		if !isAuthAttempt(req) {
			a.handleSessionExpired(req)
		}
	case resp.StatusCode == http.StatusForbidden:
		// Still authenticated, just not privileged. State stays.
		a.nav.NavigateTo("/unauthorized", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		a.log.Warn().
			Str("url", req.URL.Path).
			Str("retry_after", resp.Header.Get("Retry-After")).
			Msg("rate limit exceeded")
	}

	return resp, nil
}

func (a *Authenticator) handleSessionExpired(req *http.Request) {
	a.log.Info().Str("url", req.URL.Path).Msg("session expired, clearing auth state")
	a.state.ForceAnonymous(SessionExpiredMessage)
	if err := a.store.Clear(); err != nil {
		a.log.Warn().Err(err).Msg("failed to clear cached user")
	}
	a.nav.NavigateTo("/login", map[string]string{
		"returnUrl": req.URL.Path,
		"message":   "session-expired",
	})
}

// isAuthAttempt reports whether the request is itself a credential exchange.
func isAuthAttempt(req *http.Request) bool {
	p := req.URL.Path
	return strings.HasSuffix(p, "/login") || strings.HasSuffix(p, "/register")
}

// Purpose identifies what a request was for, which changes how a 401 is read.
type Purpose int

const (
	PurposeGeneral Purpose = iota
	PurposeLogin
	PurposeRegister
)

// Classify converts a transport error or a failure status into the domain
// taxonomy. A nil return means the response is a success the caller should
// decode.
func Classify(resp *http.Response, err error, purpose Purpose) error {
	if err != nil {
		return domain.ErrNetworkUnavailable
	}

	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == statusSessionTimeout:
		if purpose == PurposeLogin || purpose == PurposeRegister {
			return domain.ErrInvalidCredentials
		}
		return domain.ErrSessionExpired
	case resp.StatusCode == http.StatusForbidden:
		return domain.ErrInsufficientPrivilege
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return domain.ErrServerError
	default:
		return domain.ErrValidationFailed
	}
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
