// Package session implements the client half of the authentication
// protocol: one service owns the authentication state, talks to the
// backend, and keeps the cached user reconciled against the server.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blumenhaus/flora-shop/internal/client/authstate"
	"github.com/blumenhaus/flora-shop/internal/client/transport"
	"github.com/blumenhaus/flora-shop/internal/client/validation"
	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
)

const (
	defaultRefreshInterval = 25 * time.Minute
	requestTimeout         = 15 * time.Second
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

// Config carries the client-side knobs.
type Config struct {
	// BaseURL is the API origin plus prefix, e.g. http://localhost:8080/api.
	BaseURL string
	// RefreshInterval is the periodic session liveness cadence.
	RefreshInterval time.Duration
	// Verbose enables per-event debug logging of auth transitions. It only
	// affects diagnostics, never a security decision.
	Verbose bool
}

// Service is the single writer of the authentication state and the sole
// owner of the login/logout/refresh protocol.
type Service struct {
	cfg       Config
	http      *http.Client
	state     *authstate.Container
	store     ports.SessionStore
	nav       ports.Navigator
	validator *validation.Collaborator
	log       zerolog.Logger

	mu          sync.Mutex
	stopRefresh chan struct{}
}

var _ ports.AuthSession = (*Service)(nil)

// New wires a Service with a cookie jar and the request authenticator, so
// every call carries the session credential and classified error handling.
func New(cfg Config, state *authstate.Container, store ports.SessionStore, nav ports.Navigator, log zerolog.Logger) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("session: BaseURL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("session: cookie jar: %w", err)
	}

	return &Service{
		cfg: cfg,
		http: &http.Client{
			Jar:       jar,
			Timeout:   requestTimeout,
			Transport: transport.NewAuthenticator(nil, state, store, nav, log),
		},
		state:     state,
		store:     store,
		nav:       nav,
		validator: validation.New(),
		log:       log,
	}, nil
}

// authResponse is the wire shape of login and current-user replies. The
// isAdmin field is accepted and ignored: admin-ness derives from roles.
type authResponse struct {
	Message   string   `json:"message,omitempty"`
	UserID    int64    `json:"userId"`
	ID        int64    `json:"id,omitempty"`
	Username  string   `json:"username"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	IsAdmin   bool     `json:"isAdmin"`
}

func (r *authResponse) toUser() *domain.User {
	id := r.UserID
	if id == 0 {
		id = r.ID
	}
	roles := r.Roles
	if roles == nil {
		roles = []string{}
	}
	return &domain.User{
		ID:        id,
		Username:  r.Username,
		Firstname: r.Firstname,
		Lastname:  r.Lastname,
		Email:     r.Email,
		Roles:     roles,
	}
}

// Bootstrap seeds the state from the cached user, then immediately
// reconciles against the server. The cache is never trusted on its own:
// any mismatch defers to the server's answer.
func (s *Service) Bootstrap(ctx context.Context) {
	cached, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Warn().Err(err).Msg("failed to load cached user")
		}
		return
	}

	gen := s.state.StartCheck()
	s.state.CommitAuthenticated(gen, cached)
	s.debug().Int64("user_id", cached.ID).Msg("restored cached user, validating with server")

	if !s.ValidateSession(ctx) {
		s.clearLocal("")
	}
}

// Login authenticates with the backend. On success the new identity is
// published and cached; on failure the state stays anonymous with a
// user-facing error message. No automatic retry.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, error) {
	fieldErrs := make(domain.FieldErrors)
	if !usernamePattern.MatchString(username) {
		fieldErrs["username"] = "username must be 3-50 characters of letters, numbers, underscores, or hyphens"
	}
	if password == "" {
		fieldErrs["password"] = "password is required"
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	gen := s.state.StartCheck()

	var resp authResponse
	err := s.do(ctx, http.MethodPost, "/users/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp, transport.PurposeLogin)
	if err != nil {
		s.state.CommitAnonymous(gen, UserMessage(err))
		s.debug().Err(err).Str("username", username).Msg("login failed")
		return nil, err
	}

	user := resp.toUser()
	if !s.state.CommitAuthenticated(gen, user) {
		s.debug().Msg("login result superseded by a newer operation, discarded")
		return user, nil
	}
	if err := s.store.Save(user); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache user")
	}
	s.debug().Int64("user_id", user.ID).Msg("login succeeded")
	return user, nil
}

// Logout clears local state no matter what the server says. Failure to
// reach the server must never leave the client believing it is still
// authenticated. Calling Logout twice is a harmless no-op.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.do(ctx, http.MethodPost, "/users/logout", struct{}{}, nil, transport.PurposeGeneral); err != nil {
		s.log.Warn().Err(err).Msg("server logout failed, clearing local state anyway")
	}
	s.clearLocal("")
	s.stopAutoRefresh()
	s.debug().Msg("logged out")
	return nil
}

// Register validates and screens every field locally first; the server is
// only called once the payload is clean.
func (s *Service) Register(ctx context.Context, in ports.RegistrationInput) error {
	if fe := s.validator.ValidateRegistration(in); fe != nil {
		return fe
	}
	return s.do(ctx, http.MethodPost, "/users/register", in, nil, transport.PurposeRegister)
}

// CurrentUser asks the server who the session belongs to and republishes
// the answer. This is the sole source-of-truth refresh path.
func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	gen := s.state.StartCheck()

	var resp authResponse
	err := s.do(ctx, http.MethodGet, "/users/current", nil, &resp, transport.PurposeGeneral)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			// The transport usually forced the state anonymous already,
			// making this commit a no-op under the generation guard.
			s.state.CommitAnonymous(gen, UserMessage(err))
			s.clearStore()
		} else {
			// Network or server trouble says nothing about the session.
			s.state.Settle(gen)
		}
		return nil, err
	}

	user := resp.toUser()
	if s.state.CommitAuthenticated(gen, user) {
		if err := s.store.Save(user); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache user")
		}
	}
	return user, nil
}

// ValidateSession is the non-fatal liveness probe: false on any failure.
func (s *Service) ValidateSession(ctx context.Context) bool {
	if !s.state.Snapshot().Authenticated {
		return false
	}
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// RefreshUser forces a re-fetch so every subscriber sees profile or role
// edits immediately. There is nothing to refresh for an anonymous client.
func (s *Service) RefreshUser(ctx context.Context) (*domain.User, error) {
	if !s.state.Snapshot().Authenticated {
		return nil, domain.ErrNotAuthenticated
	}
	return s.CurrentUser(ctx)
}

// StartAutoRefresh launches the periodic liveness loop. The loop ends when
// the session dies, the user logs out, ctx is cancelled, or Close is
// called; the ticker is always released.
func (s *Service) StartAutoRefresh(ctx context.Context) {
	s.mu.Lock()
	if s.stopRefresh != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.stopRefresh = stop
	s.mu.Unlock()

	go s.refreshLoop(ctx, stop)
}

// Close tears down the auto-refresh loop. Safe to call repeatedly.
func (s *Service) Close() {
	s.stopAutoRefresh()
}

func (s *Service) refreshLoop(ctx context.Context, stop chan struct{}) {
	defer s.releaseRefresh(stop)
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if !s.state.Snapshot().Authenticated {
				return
			}
			if s.ValidateSession(ctx) {
				s.debug().Msg("periodic session check passed")
				continue
			}
			s.clearLocal(transport.SessionExpiredMessage)
			s.nav.NavigateTo("/login", map[string]string{
				"message": "session-expired",
			})
			return
		}
	}
}

// releaseRefresh lets a finished loop hand back its stop channel so a
// later StartAutoRefresh can run again. The identity check matters: a
// newer loop may already own the field.
func (s *Service) releaseRefresh(stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRefresh == stop {
		s.stopRefresh = nil
	}
}

func (s *Service) stopAutoRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRefresh != nil {
		close(s.stopRefresh)
		s.stopRefresh = nil
	}
}

func (s *Service) clearLocal(errMsg string) {
	s.state.ForceAnonymous(errMsg)
	s.clearStore()
}

func (s *Service) clearStore() {
	if err := s.store.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear cached user")
	}
}

// errorBody is the server's error envelope; details carries field-level
// validation messages on a rejected registration.
type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func (s *Service) do(ctx context.Context, method, path string, body, out any, purpose transport.Purpose) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.http.Do(req)
	if cerr := transport.Classify(resp, err, purpose); cerr != nil {
		if resp == nil {
			return cerr
		}
		defer resp.Body.Close()

		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb)
		if resp.StatusCode == http.StatusBadRequest && len(eb.Details) > 0 {
			return domain.FieldErrors(eb.Details)
		}
		if eb.Error != "" {
			return fmt.Errorf("%w: %s", cerr, eb.Error)
		}
		return cerr
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *Service) debug() *zerolog.Event {
	if s.cfg.Verbose {
		return s.log.Info()
	}
	return s.log.Debug()
}

// UserMessage converts a classified error into the message shown to the
// user and stored on the authentication state.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, domain.ErrSessionExpired):
		return transport.SessionExpiredMessage
	case errors.Is(err, domain.ErrInsufficientPrivilege):
		return "Access denied"
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many requests. Please try again later."
	case errors.Is(err, domain.ErrServerError):
		return "Server error. Please try again later."
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return "Unable to connect to server. Please check your connection."
	case errors.Is(err, domain.ErrValidationFailed):
		return err.Error()
	default:
		return "An error occurred"
	}
}
