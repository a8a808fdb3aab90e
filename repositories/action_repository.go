package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mkryuchkov/socnet/models"
	"github.com/mkryuchkov/socnet/utils"
)

// ActionRepository mediates reaction reads and writes between the cache layer
// and the primary store. The store is the source of truth; cache writes are
// best-effort and a cache fault after construction never fails the request.
type ActionRepository struct {
	db    *gorm.DB
	cache ActionCache // nil means store-only
}

// NewActionRepository creates an ActionRepository. Pass a nil cache for
// store-only behavior; the capability is decided here and never re-probed.
func NewActionRepository(db *gorm.DB, cache ActionCache) *ActionRepository {
	return &ActionRepository{db: db, cache: cache}
}

// Add inserts a reaction row and mirrors it into the cache set. An existing
// (user, post, action) triple surfaces as ErrIntegrity.
func (r *ActionRepository) Add(ctx context.Context, act models.PostAction) error {
	if err := r.db.WithContext(ctx).Create(&act).Error; err != nil {
		return translate(err)
	}
	if r.cache != nil {
		if err := r.cache.Add(ctx, act); err != nil {
			r.warnCache("add", err)
		}
	}
	return nil
}

// ListByPost returns all reactions for a post. With a cache attached, each
// action kind is probed and filled independently.
func (r *ActionRepository) ListByPost(ctx context.Context, postID string) ([]models.PostAction, error) {
	if r.cache == nil {
		return r.listStore(ctx, "post_id = ?", postID)
	}
	out := make([]models.PostAction, 0)
	for _, kind := range models.ActionKinds {
		acts, err := r.listKindCached(ctx, postID, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, acts...)
	}
	return out, nil
}

// ListByPostAndKind returns the reactions of one kind for a post, cache-aside.
func (r *ActionRepository) ListByPostAndKind(ctx context.Context, postID string, kind models.ActionKind) ([]models.PostAction, error) {
	if r.cache == nil {
		return r.listStore(ctx, "post_id = ? AND action = ?", postID, kind)
	}
	return r.listKindCached(ctx, postID, kind)
}

// ListByUser returns all reactions a user has put, store-only.
func (r *ActionRepository) ListByUser(ctx context.Context, userID string) ([]models.PostAction, error) {
	return r.listStore(ctx, "user_id = ?", userID)
}

// ListByPostAndUser returns a user's reactions to one post, store-only.
func (r *ActionRepository) ListByPostAndUser(ctx context.Context, postID, userID string) ([]models.PostAction, error) {
	return r.listStore(ctx, "post_id = ? AND user_id = ?", postID, userID)
}

// Delete removes one reaction row and its cache member. Deleting an absent row
// or member is not an error.
func (r *ActionRepository) Delete(ctx context.Context, act models.PostAction) error {
	err := r.db.WithContext(ctx).
		Delete(&models.PostAction{}, "user_id = ? AND post_id = ? AND action = ?", act.UserID, act.PostID, act.Action).Error
	if err != nil {
		return translate(err)
	}
	if r.cache != nil {
		if err := r.cache.Remove(ctx, act); err != nil {
			r.warnCache("remove", err)
		}
	}
	return nil
}

// DeleteAllForPostUser removes both possible reaction rows for a (post, user)
// pair and the matching members from both cache keys, tolerating absence of
// either.
func (r *ActionRepository) DeleteAllForPostUser(ctx context.Context, postID, userID string) error {
	err := r.db.WithContext(ctx).
		Delete(&models.PostAction{}, "post_id = ? AND user_id = ?", postID, userID).Error
	if err != nil {
		return translate(err)
	}
	if r.cache != nil {
		for _, kind := range models.ActionKinds {
			act := models.PostAction{UserID: userID, PostID: postID, Action: kind}
			if err := r.cache.Remove(ctx, act); err != nil {
				r.warnCache("remove", err)
			}
		}
	}
	return nil
}

// listKindCached is the cache-aside read path for a single action kind: a
// present key is served from the cache, an absent key falls back to the store
// and repopulates the key with that kind's full result set.
func (r *ActionRepository) listKindCached(ctx context.Context, postID string, kind models.ActionKind) ([]models.PostAction, error) {
	ok, err := r.cache.Contains(ctx, postID, kind)
	if err != nil {
		r.warnCache("exists", err)
	} else if ok {
		acts, err := r.cache.Members(ctx, postID, kind)
		if err == nil {
			return acts, nil
		}
		r.warnCache("members", err)
	}

	acts, err := r.listStore(ctx, "post_id = ? AND action = ?", postID, kind)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Fill(ctx, postID, kind, acts); err != nil {
		r.warnCache("fill", err)
	}
	return acts, nil
}

func (r *ActionRepository) listStore(ctx context.Context, query string, args ...interface{}) ([]models.PostAction, error) {
	var acts []models.PostAction
	if err := r.db.WithContext(ctx).Where(query, args...).Find(&acts).Error; err != nil {
		return nil, translate(err)
	}
	return acts, nil
}

func (r *ActionRepository) warnCache(op string, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Warnf("reaction cache %s failed: %v", op, err)
	}
}
