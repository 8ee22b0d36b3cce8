package ports

import (
	"context"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

// AccountService is the server-side account surface behind the user handlers.
type AccountService interface {
	Register(ctx context.Context, in RegistrationInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	AddRole(ctx context.Context, userID int64, role string) (*domain.User, error)
	RemoveRole(ctx context.Context, userID int64, role string) (*domain.User, error)
}
