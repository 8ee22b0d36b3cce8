package service

import (
	"sort"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

// Authorization policy: pure functions over a possibly-nil user. Admin-ness
// is always recomputed from the role set, never read from a cached flag.
//
// Convention: an empty role requirement denies. Callers that want "no
// restriction" simply do not attach a requirement.

// HasRole reports whether the user carries the role.
func HasRole(u *domain.User, role string) bool {
	return u.HasRole(role)
}

// HasAnyRole reports whether the user carries at least one of the roles.
// An empty set denies.
func HasAnyRole(u *domain.User, roles []string) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the user carries every role. An empty set
// denies, mirroring HasAnyRole.
func HasAllRoles(u *domain.User, roles []string) bool {
	if len(roles) == 0 {
		return false
	}
	for _, r := range roles {
		if !u.HasRole(r) {
			return false
		}
	}
	return true
}

// IsAdmin reports whether the user carries ROLE_ADMIN.
func IsAdmin(u *domain.User) bool {
	return u.HasRole(domain.RoleAdmin)
}

// featureRoles and actionRoles are the single place permissions are
// defined. An empty role list means "any authenticated user".
var featureRoles = map[string][]string{
	"admin-panel":       {domain.RoleAdmin},
	"flower-management": {domain.RoleAdmin},
	"user-management":   {domain.RoleAdmin},
	"flower-catalog":    {},
	"shopping-cart":     {},
}

var actionRoles = map[string][]string{
	"create-flower": {domain.RoleAdmin},
	"edit-flower":   {domain.RoleAdmin},
	"delete-flower": {domain.RoleAdmin},
	"manage-users":  {domain.RoleAdmin},
	"view-flowers":  {},
	"add-to-cart":   {},
	"place-order":   {},
}

// CanView reports whether the user may see the named feature. Unknown
// features deny.
func CanView(u *domain.User, feature string) bool {
	return permitted(u, featureRoles, feature)
}

// CanPerform reports whether the user may execute the named action.
// Unknown actions deny.
func CanPerform(u *domain.User, action string) bool {
	return permitted(u, actionRoles, action)
}

// AvailableActions lists every action the user may perform, sorted.
func AvailableActions(u *domain.User) []string {
	var actions []string
	for action := range actionRoles {
		if CanPerform(u, action) {
			actions = append(actions, action)
		}
	}
	sort.Strings(actions)
	return actions
}

func permitted(u *domain.User, table map[string][]string, key string) bool {
	roles, known := table[key]
	if !known || u == nil {
		return false
	}
	if len(roles) == 0 {
		return true // any authenticated user
	}
	return HasAnyRole(u, roles)
}
