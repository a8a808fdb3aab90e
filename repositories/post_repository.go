package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mkryuchkov/socnet/models"
)

// PostRepository provides durable storage access for posts.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a PostRepository.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Add inserts a new post. A missing author surfaces as ErrIntegrity through
// the foreign key on author_id.
func (r *PostRepository) Add(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Get returns the post with the given id, or nil when it does not exist.
func (r *PostRepository) Get(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// Update replaces the post body.
func (r *PostRepository) Update(ctx context.Context, postID, newBody string) error {
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Update("body", newBody).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Delete removes a post row. Deleting a missing post is not an error.
// Dependent reactions must already be gone or the FK constraint fires.
func (r *PostRepository) Delete(ctx context.Context, postID string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", postID).Error; err != nil {
		return translate(err)
	}
	return nil
}
