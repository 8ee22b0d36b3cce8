package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/blumenhaus/flora-shop/internal/api/metrics"
	"github.com/blumenhaus/flora-shop/internal/api/middleware"
	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
	"github.com/blumenhaus/flora-shop/internal/core/service"
)

type UserHandler struct {
	accounts ports.AccountService
	sessions *service.SessionManager
	limiter  ports.RateLimiter
	log      zerolog.Logger
}

func NewUserHandler(accounts ports.AccountService, sessions *service.SessionManager, limiter ports.RateLimiter, log zerolog.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, sessions: sessions, limiter: limiter, log: log}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the wire shape shared by login and current-user replies.
// isAdmin is derived from the role set at render time; it is never stored.
type userResponse struct {
	Message   string   `json:"message,omitempty"`
	UserID    int64    `json:"userId"`
	Username  string   `json:"username"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles"`
	IsAdmin   bool     `json:"isAdmin"`
}

func renderUser(message string, u *domain.User) userResponse {
	return userResponse{
		Message:   message,
		UserID:    u.ID,
		Username:  u.Username,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
		Roles:     u.Roles,
		IsAdmin:   service.IsAdmin(u),
	}
}

// Login authenticates a user and establishes a cookie session.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		// A malformed username can never match an account; report it the
		// same way as a wrong password.
		return domain.ErrInvalidCredentials
	}

	ctx := c.Request().Context()

	limiterKey := fmt.Sprintf("login:%s:%s", req.Username, c.RealIP())
	allowed, retryAfter, err := h.limiter.Allow(ctx, limiterKey)
	if err != nil {
		h.log.Warn().Err(err).Msg("rate limiter unavailable, allowing login attempt")
	} else if !allowed {
		metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitedTotal.Inc()
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		return &domain.RateLimitError{RetryAfter: retryAfter}
	}

	user, err := h.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	token, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	h.setSessionCookie(c, token, h.sessions.TTL())
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user logged in")

	return c.JSON(http.StatusOK, renderUser("Login successful", user))
}

// Logout destroys the session. Always 200: a client that cannot reach its
// session anymore must still be able to finish logging out.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Revoke(c.Request().Context(), cookie.Value); err != nil {
			h.log.Warn().Err(err).Msg("failed to revoke session")
		}
	}
	h.setSessionCookie(c, "", -time.Second)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      ports.RegistrationInput  true  "Registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req ports.RegistrationInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("validation_failed").Inc()
		return err
	}

	user, err := h.accounts.Register(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		case errors.Is(err, domain.ErrValidationFailed):
			metrics.RegistrationsTotal.WithLabelValues("validation_failed").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return c.JSON(http.StatusCreated, renderUser("Registration successful", user))
}

// Current returns the user owning the session cookie.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/current [get]
func (h *UserHandler) Current(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}
	return c.JSON(http.StatusOK, renderUser("", user))
}

// AddRole grants a role to a user. Admin only.
//
// @Summary      Grant a role
// @Tags         users
// @Produce      json
// @Param        id    path      int     true  "User id"
// @Param        role  path      string  true  "Role tag"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /users/{id}/roles/{role} [put]
func (h *UserHandler) AddRole(c echo.Context) error {
	return h.mutateRole(c, "add", h.accounts.AddRole)
}

// RemoveRole revokes a role from a user. Admin only.
//
// @Summary      Revoke a role
// @Tags         users
// @Produce      json
// @Param        id    path      int     true  "User id"
// @Param        role  path      string  true  "Role tag"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /users/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(c echo.Context) error {
	return h.mutateRole(c, "remove", h.accounts.RemoveRole)
}

func (h *UserHandler) mutateRole(c echo.Context, op string, mutate func(ctx context.Context, userID int64, role string) (*domain.User, error)) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	role := c.Param("role")

	user, err := mutate(c.Request().Context(), id, role)
	if err != nil {
		return err
	}

	metrics.RoleChangesTotal.WithLabelValues(op).Inc()
	h.log.Info().Int64("user_id", id).Str("role", role).Str("op", op).Msg("role mutated")
	return c.JSON(http.StatusOK, renderUser("Roles updated", user))
}

func (h *UserHandler) setSessionCookie(c echo.Context, value string, maxAge time.Duration) {
	cookie := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.Scheme() == "https",
		MaxAge:   int(maxAge.Seconds()),
	}
	c.SetCookie(cookie)
}
