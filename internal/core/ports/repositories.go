package ports

import (
	"context"
	"time"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

// StoredUser is a user record as persisted server-side, including the
// password hash that must never leave the repository layer.
type StoredUser struct {
	User         domain.User
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *StoredUser) (*StoredUser, error)
	FindByUsername(ctx context.Context, username string) (*StoredUser, error)
	FindByID(ctx context.Context, id int64) (*StoredUser, error)
	UpdateRoles(ctx context.Context, id int64, roles []string) (*StoredUser, error)
}

// SessionRepository tracks live server sessions keyed by session id.
type SessionRepository interface {
	Create(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error
	Lookup(ctx context.Context, sessionID string) (int64, error)
	Destroy(ctx context.Context, sessionID string) error
	// Touch extends the session's TTL; called on every authenticated request
	// so active users are not logged out mid-visit.
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error
}

// RateLimiter answers whether a key may proceed within the current window.
type RateLimiter interface {
	// Allow returns false with the remaining wait when the key's budget for
	// the window is spent.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
