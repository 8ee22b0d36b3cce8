package domain

import "strings"

// Role tags issued by the backend. Every account carries at least RoleUser.
const (
	RoleUser      = "ROLE_USER"
	RoleModerator = "ROLE_MODERATOR"
	RoleAdmin     = "ROLE_ADMIN"
)

// User models an authenticated principal. Admin-ness is deliberately not
// stored: it is recomputed from Roles on every check so the two can never
// drift apart.
type User struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles"`
}

// HasRole reports whether the user carries the given role tag.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayName returns "Firstname Lastname", trimmed.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}

// Clone returns a deep copy so callers can never mutate shared state
// through a published snapshot.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}
