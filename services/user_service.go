package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkryuchkov/socnet/models"
	"github.com/mkryuchkov/socnet/repositories"
	"github.com/mkryuchkov/socnet/utils"
)

// UserService enforces the business rules on accounts.
type UserService struct {
	users *repositories.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(users *repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// Register creates an account with a bcrypt-hashed password. Usernames are
// stored lower-case. A username or email collision returns ErrUserExists.
func (s *UserService) Register(ctx context.Context, username, password string, email *string) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     strings.ToLower(strings.TrimSpace(username)),
		PasswordHash: hash,
		Email:        email,
	}
	if err := s.users.Add(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrIntegrity) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the matching user, or nil
// when the username is unknown or the password does not match.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, nil
	}
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoSuchUser
	}
	return user, nil
}

// UpdateProfile replaces the opaque enrichment blob on the account.
func (s *UserService) UpdateProfile(ctx context.Context, userID, profile string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoSuchUser
	}
	return s.users.UpdateProfile(ctx, userID, profile)
}

// Delete removes an account. Dependent rows must be cleaned up by the caller
// beforehand; the store does not cascade.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoSuchUser
	}
	return s.users.Delete(ctx, userID)
}

// FindOrCreateOAuthUser resolves a third-party identity to a local account,
// creating one on first sign-in. Username collisions get a numeric suffix.
func (s *UserService) FindOrCreateOAuthUser(ctx context.Context, provider, providerID, username string, email *string) (*models.User, error) {
	user, err := s.users.GetByProvider(ctx, provider, providerID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	base := strings.ToLower(strings.TrimSpace(username))
	if base == "" {
		base = provider + "-" + providerID
	}
	candidate := base
	for i := 1; i <= 5; i++ {
		user = &models.User{
			Username:   candidate,
			Email:      email,
			Provider:   provider,
			ProviderID: providerID,
		}
		err = s.users.Add(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repositories.ErrIntegrity) {
			return nil, err
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return nil, ErrUserExists
}
