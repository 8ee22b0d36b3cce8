package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/blumenhaus/flora-shop/internal/core/service"
)

// RBAC enforces role-based access control. The request passes when the
// authenticated user holds at least one of the required roles; admin-ness
// is recomputed from the role set on every request, never cached.
func RBAC(requiredRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}
			if !service.HasAnyRole(user, requiredRoles) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient privilege")
			}
			return next(c)
		}
	}
}
