package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/blumenhaus/flora-shop/internal/api/metrics"
	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
	"github.com/blumenhaus/flora-shop/internal/core/service"
)

// CookieName is the session cookie issued on login.
const CookieName = "flora_session"

// ctxUserKey is where the authenticated user is stashed for handlers.
const ctxUserKey = "auth_user"

// Session resolves the session cookie and injects the owning user into the
// request context. Requests without a valid live session get a 401.
func Session(manager *service.SessionManager, accounts ports.AccountService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				metrics.SessionChecksTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
			}

			userID, err := manager.Resolve(c.Request().Context(), cookie.Value)
			if err != nil {
				metrics.SessionChecksTotal.WithLabelValues("expired").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			user, err := accounts.UserByID(c.Request().Context(), userID)
			if err != nil {
				// Session outlived the account; treat it as expired.
				metrics.SessionChecksTotal.WithLabelValues("expired").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			metrics.SessionChecksTotal.WithLabelValues("valid").Inc()
			c.Set(ctxUserKey, user)
			return next(c)
		}
	}
}

// CurrentUser extracts the user injected by Session. The second return is
// false when the middleware did not run on this route.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(ctxUserKey).(*domain.User)
	return user, ok
}
