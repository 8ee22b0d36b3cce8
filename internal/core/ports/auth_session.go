package ports

import (
	"context"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

// RegistrationInput is the payload for creating a new account. All string
// fields pass through the validation collaborator before any network call.
type RegistrationInput struct {
	Username  string `json:"username" validate:"required,min=3,max=50,username"`
	Firstname string `json:"firstname" validate:"required,max=100,personname"`
	Lastname  string `json:"lastname" validate:"required,max=100,personname"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,strongpassword"`
}

// AuthSession is the client-side session surface consumed by guards and UI
// code. Exactly one implementation exists; everything else holds read access.
type AuthSession interface {
	// Login authenticates against the backend and publishes the new identity.
	Login(ctx context.Context, username, password string) (*domain.User, error)

	// Logout clears local state unconditionally, even when the server call
	// fails. Calling it twice is a no-op.
	Logout(ctx context.Context) error

	// Register creates an account. Field-level failures are returned as
	// domain.FieldErrors without touching the network.
	Register(ctx context.Context, in RegistrationInput) error

	// CurrentUser fetches the authenticated user from the server. The server
	// is the single source of truth; the local cache is never trusted alone.
	CurrentUser(ctx context.Context) (*domain.User, error)

	// ValidateSession is the non-throwing liveness probe: false on any
	// failure, never an error.
	ValidateSession(ctx context.Context) bool

	// RefreshUser re-fetches and re-publishes the current user so every
	// subscriber sees profile or role edits immediately.
	RefreshUser(ctx context.Context) (*domain.User, error)
}

// SessionStore is the tab-scoped cache of the last known user. It only
// bridges restarts until the server is re-queried; it is never authoritative.
type SessionStore interface {
	Save(user *domain.User) error
	Load() (*domain.User, error)
	Clear() error
}

// Navigator is the redirect sink guards and the request authenticator use.
// Implementations route the hosting UI; tests record the target.
type Navigator interface {
	NavigateTo(path string, query map[string]string)
}
