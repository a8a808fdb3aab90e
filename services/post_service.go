package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkryuchkov/socnet/models"
	"github.com/mkryuchkov/socnet/repositories"
)

// PostService enforces the business rules on posts and reactions. Repository
// faults are translated into domain errors here, exactly once; the HTTP layer
// maps each domain error to a single status.
type PostService struct {
	users   *repositories.UserRepository
	posts   *repositories.PostRepository
	actions *repositories.ActionRepository
}

// NewPostService creates a PostService.
func NewPostService(users *repositories.UserRepository, posts *repositories.PostRepository, actions *repositories.ActionRepository) *PostService {
	return &PostService{users: users, posts: posts, actions: actions}
}

// Create inserts a new post for the given author.
func (s *PostService) Create(ctx context.Context, authorID, body string) (*models.Post, error) {
	post := &models.Post{Body: body, AuthorID: authorID}
	if err := s.posts.Add(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrIntegrity) {
			return nil, ErrNoSuchUser
		}
		return nil, err
	}
	return post, nil
}

// Get returns a post by id.
func (s *PostService) Get(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNoSuchPost
	}
	return post, nil
}

// Update replaces a post body. Only the author may edit.
func (s *PostService) Update(ctx context.Context, postID, userID, newBody string) error {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNoSuchPost
	}
	if post.AuthorID != userID {
		return ErrPermissionDenied
	}
	return s.posts.Update(ctx, postID, newBody)
}

// Delete removes a post. Only the author may delete. All reactions referencing
// the post are removed first; the FK from post_action to post makes this
// ordering mandatory.
func (s *PostService) Delete(ctx context.Context, postID, userID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoSuchUser
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNoSuchPost
	}
	if post.AuthorID != userID {
		return ErrPermissionDenied
	}

	acts, err := s.actions.ListByPost(ctx, postID)
	if err != nil {
		return err
	}
	for _, act := range acts {
		if err := s.actions.DeleteAllForPostUser(ctx, postID, act.UserID); err != nil {
			return fmt.Errorf("cascade reactions for post %s: %w", postID, err)
		}
	}

	return s.posts.Delete(ctx, postID)
}

// Rate puts a reaction on a post. Self-rating is forbidden. If the user
// already holds the opposite reaction it is removed first, so a successful
// call always leaves exactly one reaction for the (user, post) pair. An
// identical existing reaction is rejected with ErrDuplicateAction.
func (s *PostService) Rate(ctx context.Context, postID, userID string, action models.ActionKind) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoSuchUser
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNoSuchPost
	}
	if post.AuthorID == userID {
		return ErrPermissionDenied
	}

	current, err := s.actions.ListByPostAndUser(ctx, postID, userID)
	if err != nil {
		return err
	}
	for _, act := range current {
		if act.Action == action {
			return ErrDuplicateAction
		}
		// opposite reaction: delete before inserting the new one
		if err := s.actions.Delete(ctx, act); err != nil {
			return err
		}
	}

	err = s.actions.Add(ctx, models.PostAction{UserID: userID, PostID: postID, Action: action})
	if errors.Is(err, repositories.ErrIntegrity) {
		// lost a race with a concurrent identical rate; the composite key is
		// the safety net
		return ErrDuplicateAction
	}
	return err
}

// RemoveRate deletes the specified reaction. The reaction must currently
// exist, otherwise ErrNoSuchAction is returned and the store is untouched.
func (s *PostService) RemoveRate(ctx context.Context, postID, userID string, action models.ActionKind) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoSuchUser
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNoSuchPost
	}

	current, err := s.actions.ListByPostAndUser(ctx, postID, userID)
	if err != nil {
		return err
	}
	exists := false
	for _, act := range current {
		if act.Action == action {
			exists = true
			break
		}
	}
	if !exists {
		return ErrNoSuchAction
	}

	return s.actions.Delete(ctx, models.PostAction{UserID: userID, PostID: postID, Action: action})
}

// ListReactions returns all reactions for a post through the cache-aside path.
func (s *PostService) ListReactions(ctx context.Context, postID string) ([]models.PostAction, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNoSuchPost
	}
	return s.actions.ListByPost(ctx, postID)
}
