package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
)

var (
	accountUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

	knownRoles = map[string]struct{}{
		domain.RoleUser:      {},
		domain.RoleModerator: {},
		domain.RoleAdmin:     {},
	}
)

// AccountService implements registration, credential checks, and role
// administration on the server side.
type AccountService struct {
	repo ports.UserRepository
}

func NewAccountService(repo ports.UserRepository) *AccountService {
	return &AccountService{repo: repo}
}

var _ ports.AccountService = (*AccountService)(nil)

// Register creates an account with a bcrypt-hashed password. New accounts
// always start with exactly ROLE_USER.
func (s *AccountService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.User, error) {
	if !accountUsernamePattern.MatchString(in.Username) || in.Password == "" {
		return nil, domain.ErrValidationFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	stored := &ports.StoredUser{
		User: domain.User{
			Username:  in.Username,
			Firstname: in.Firstname,
			Lastname:  in.Lastname,
			Email:     in.Email,
			Roles:     []string{domain.RoleUser},
		},
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, stored)
	if err != nil {
		return nil, err
	}
	return created.User.Clone(), nil
}

// Authenticate verifies credentials. An unknown username and a wrong
// password are indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	stored, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return stored.User.Clone(), nil
}

func (s *AccountService) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return stored.User.Clone(), nil
}

// AddRole grants a role and returns the updated user. Granting a role the
// user already holds is a no-op.
func (s *AccountService) AddRole(ctx context.Context, userID int64, role string) (*domain.User, error) {
	if _, ok := knownRoles[role]; !ok {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidationFailed, role)
	}

	stored, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored.User.HasRole(role) {
		return stored.User.Clone(), nil
	}

	roles := append(append([]string(nil), stored.User.Roles...), role)
	updated, err := s.repo.UpdateRoles(ctx, userID, roles)
	if err != nil {
		return nil, err
	}
	return updated.User.Clone(), nil
}

// RemoveRole revokes a role and returns the updated user. ROLE_USER cannot
// be removed; every account keeps its base role.
func (s *AccountService) RemoveRole(ctx context.Context, userID int64, role string) (*domain.User, error) {
	if role == domain.RoleUser {
		return nil, fmt.Errorf("%w: the base role cannot be removed", domain.ErrValidationFailed)
	}

	stored, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(stored.User.Roles))
	for _, r := range stored.User.Roles {
		if r != role {
			roles = append(roles, r)
		}
	}
	if len(roles) == len(stored.User.Roles) {
		return stored.User.Clone(), nil
	}

	updated, err := s.repo.UpdateRoles(ctx, userID, roles)
	if err != nil {
		return nil, err
	}
	return updated.User.Clone(), nil
}
