package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mkryuchkov/socnet/models"
)

// UserRepository provides durable storage access for user accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Add inserts a new user. Username and email collisions surface as ErrIntegrity.
func (r *UserRepository) Add(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Get returns the user with the given id, or nil when it does not exist.
func (r *UserRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByUsername returns the user with the given username, or nil when it does not exist.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByProvider returns the user registered through a third-party identity
// provider, or nil when it does not exist.
func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "provider = ? AND provider_id = ?", provider, providerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateProfile replaces the opaque enrichment blob on a user row.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID, profile string) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("profile", profile).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Delete removes a user row. Deleting a missing user is not an error.
// Dependent rows are the caller's responsibility; the store does not cascade.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", userID).Error; err != nil {
		return translate(err)
	}
	return nil
}
