package service

import (
	"testing"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

func userWithRoles(roles ...string) *domain.User {
	return &domain.User{ID: 1, Username: "alice", Roles: roles}
}

func TestHasRole(t *testing.T) {
	u := userWithRoles(domain.RoleUser, domain.RoleModerator)

	if !HasRole(u, domain.RoleModerator) {
		t.Fatalf("expected moderator role")
	}
	if HasRole(u, domain.RoleAdmin) {
		t.Fatalf("unexpected admin role")
	}
	if HasRole(nil, domain.RoleUser) {
		t.Fatalf("nil user must have no roles")
	}
}

// Empty requirement sets deny. This is the documented convention: a route
// with no restriction simply carries no requirement at all.
func TestHasAnyRole_EmptySetDenies(t *testing.T) {
	u := userWithRoles(domain.RoleUser)

	if HasAnyRole(u, nil) {
		t.Fatalf("empty requirement must deny")
	}
	if HasAnyRole(u, []string{}) {
		t.Fatalf("empty requirement must deny")
	}
	if HasAllRoles(u, nil) {
		t.Fatalf("empty requirement must deny for HasAllRoles too")
	}
}

func TestHasAnyRole(t *testing.T) {
	u := userWithRoles(domain.RoleUser)

	if !HasAnyRole(u, []string{domain.RoleAdmin, domain.RoleUser}) {
		t.Fatalf("expected match on ROLE_USER")
	}
	if HasAnyRole(u, []string{domain.RoleAdmin, domain.RoleModerator}) {
		t.Fatalf("unexpected match")
	}
}

func TestHasAllRoles(t *testing.T) {
	u := userWithRoles(domain.RoleUser, domain.RoleAdmin)

	if !HasAllRoles(u, []string{domain.RoleUser, domain.RoleAdmin}) {
		t.Fatalf("expected both roles to match")
	}
	if HasAllRoles(u, []string{domain.RoleUser, domain.RoleModerator}) {
		t.Fatalf("missing role must fail HasAllRoles")
	}
}

// Admin-ness is recomputed from the role set on every call; there is no
// cached flag that could drift.
func TestIsAdmin_RecomputedFromRoles(t *testing.T) {
	u := userWithRoles(domain.RoleUser)
	if IsAdmin(u) {
		t.Fatalf("plain user must not be admin")
	}

	u.Roles = append(u.Roles, domain.RoleAdmin)
	if !IsAdmin(u) {
		t.Fatalf("role grant must be visible immediately")
	}

	u.Roles = []string{domain.RoleUser}
	if IsAdmin(u) {
		t.Fatalf("role revocation must be visible immediately")
	}

	if IsAdmin(nil) {
		t.Fatalf("nil user must not be admin")
	}
}

func TestCanView(t *testing.T) {
	admin := userWithRoles(domain.RoleUser, domain.RoleAdmin)
	shopper := userWithRoles(domain.RoleUser)

	cases := []struct {
		user    *domain.User
		feature string
		want    bool
	}{
		{admin, "admin-panel", true},
		{admin, "flower-catalog", true},
		{shopper, "admin-panel", false},
		{shopper, "flower-management", false},
		{shopper, "flower-catalog", true},
		{shopper, "shopping-cart", true},
		{nil, "flower-catalog", false},
		{shopper, "no-such-feature", false},
	}
	for _, tc := range cases {
		if got := CanView(tc.user, tc.feature); got != tc.want {
			t.Fatalf("CanView(%v, %q) = %v, want %v", tc.user, tc.feature, got, tc.want)
		}
	}
}

func TestCanPerform(t *testing.T) {
	admin := userWithRoles(domain.RoleUser, domain.RoleAdmin)
	shopper := userWithRoles(domain.RoleUser)

	cases := []struct {
		user   *domain.User
		action string
		want   bool
	}{
		{admin, "create-flower", true},
		{admin, "manage-users", true},
		{shopper, "delete-flower", false},
		{shopper, "add-to-cart", true},
		{shopper, "place-order", true},
		{nil, "view-flowers", false},
		{shopper, "no-such-action", false},
	}
	for _, tc := range cases {
		if got := CanPerform(tc.user, tc.action); got != tc.want {
			t.Fatalf("CanPerform(%v, %q) = %v, want %v", tc.user, tc.action, got, tc.want)
		}
	}
}

func TestAvailableActions(t *testing.T) {
	shopper := userWithRoles(domain.RoleUser)
	actions := AvailableActions(shopper)

	want := []string{"add-to-cart", "place-order", "view-flowers"}
	if len(actions) != len(want) {
		t.Fatalf("expected %v, got %v", want, actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, actions)
		}
	}

	if got := AvailableActions(nil); len(got) != 0 {
		t.Fatalf("anonymous user must have no actions, got %v", got)
	}
}
