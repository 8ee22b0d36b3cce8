// Package guards decides, before a navigation commits, whether the current
// user may proceed. Guards read the authentication state and may trigger a
// single session validation, but they never mutate state themselves.
//
// Redirect policy: an unauthenticated user goes to the login view with the
// originally requested path as return target; an authenticated user with
// the wrong role goes to the unauthorized view, never back to login.
package guards

import (
	"context"

	"github.com/blumenhaus/flora-shop/internal/client/authstate"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
	"github.com/blumenhaus/flora-shop/internal/core/service"
)

// Decision is the outcome of a guard evaluation.
type Decision struct {
	Allowed    bool
	RedirectTo string
	Query      map[string]string
	Reason     string
}

// RouteRequirement is the role descriptor attached to a route. It is
// evaluated against the live user at navigation time, never cached.
type RouteRequirement struct {
	Roles        []string
	RequireAll   bool
	AllowedRoles []string
	DeniedRoles  []string
}

// Guard bundles the read-only state handle with the session service used
// for on-demand revalidation.
type Guard struct {
	State   *authstate.Container
	Session ports.AuthSession
}

// Authenticated allows any live session. When the local state says
// anonymous, one server check is attempted before denying: the local cache
// may simply be cold after a reload.
func (g Guard) Authenticated(ctx context.Context, target string) Decision {
	if err := g.State.WaitSettled(ctx); err != nil {
		return denyToLogin(target, "authorization check cancelled")
	}
	if g.State.Snapshot().Authenticated {
		return allow()
	}
	if g.Session.ValidateSession(ctx) {
		return allow()
	}
	return denyToLogin(target, "authentication required")
}

// AdminOnly allows only ROLE_ADMIN holders. A non-admin with a live
// session is sent to the unauthorized view, not to login.
func (g Guard) AdminOnly(ctx context.Context, target string) Decision {
	if d := g.Authenticated(ctx, target); !d.Allowed {
		return d
	}
	if service.IsAdmin(g.State.Snapshot().User) {
		return allow()
	}
	return denyToUnauthorized(target, "administrator role required")
}

// AnyOfRoles evaluates the route's role descriptor. Denied roles win over
// everything else; an entirely empty descriptor still requires a session.
func (g Guard) AnyOfRoles(ctx context.Context, target string, req RouteRequirement) Decision {
	if d := g.Authenticated(ctx, target); !d.Allowed {
		return d
	}
	user := g.State.Snapshot().User

	if len(req.DeniedRoles) > 0 && service.HasAnyRole(user, req.DeniedRoles) {
		return denyToUnauthorized(target, "access denied for role")
	}

	if len(req.Roles) > 0 {
		ok := service.HasAnyRole(user, req.Roles)
		if req.RequireAll {
			ok = service.HasAllRoles(user, req.Roles)
		}
		if !ok {
			return denyToUnauthorized(target, "insufficient privileges")
		}
	}

	if len(req.AllowedRoles) > 0 && !service.HasAnyRole(user, req.AllowedRoles) {
		return denyToUnauthorized(target, "role not permitted")
	}

	return allow()
}

// OwnerOrAdmin allows admins and the owner of the addressed resource; used
// for self-service profile routes that admins may also reach.
func (g Guard) OwnerOrAdmin(ctx context.Context, target string, resourceID int64) Decision {
	if d := g.Authenticated(ctx, target); !d.Allowed {
		return d
	}
	user := g.State.Snapshot().User
	if service.IsAdmin(user) || (user != nil && user.ID == resourceID) {
		return allow()
	}
	return denyToUnauthorized(target, "not the resource owner")
}

func allow() Decision {
	return Decision{Allowed: true}
}

func denyToLogin(target, reason string) Decision {
	return Decision{
		RedirectTo: "/login",
		Query:      map[string]string{"returnUrl": target},
		Reason:     reason,
	}
}

func denyToUnauthorized(target, reason string) Decision {
	return Decision{
		RedirectTo: "/unauthorized",
		Query:      map[string]string{"url": target},
		Reason:     reason,
	}
}
