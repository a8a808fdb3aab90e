package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkryuchkov/socnet/middleware"
	"github.com/mkryuchkov/socnet/models"
	"github.com/mkryuchkov/socnet/services"
	"github.com/mkryuchkov/socnet/utils"
)

// PostController manages CRUD operations for posts and reactions.
type PostController struct {
	posts *services.PostService
}

// NewPostController creates a PostController.
func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required,min=1"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if body == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "post body cannot be empty")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), userID, body)
	if err != nil {
		if errors.Is(err, services.ErrNoSuchUser) {
			utils.Error(ctx, http.StatusNotFound, 40402, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.Created(ctx, gin.H{"post_id": post.ID})
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNoSuchPost) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost replaces the post body; author only.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required,min=1"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if body == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "post body cannot be empty")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := p.posts.Update(ctx.Request.Context(), ctx.Param("id"), userID, body); err != nil {
		p.respondDomainError(ctx, err, 50022, "failed to update post")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// DeletePost removes a post and all reactions referencing it; author only.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := p.posts.Delete(ctx.Request.Context(), ctx.Param("id"), userID); err != nil {
		p.respondDomainError(ctx, err, 50023, "failed to delete post")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// RatePost puts a LIKE or DISLIKE on a post.
func (p *PostController) RatePost(ctx *gin.Context) {
	action, err := models.ParseActionKind(ctx.Param("action"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "action must be LIKE or DISLIKE")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := p.posts.Rate(ctx.Request.Context(), ctx.Param("id"), userID, action); err != nil {
		if errors.Is(err, services.ErrDuplicateAction) {
			utils.Error(ctx, http.StatusConflict, 40902, "reaction already exists")
			return
		}
		p.respondDomainError(ctx, err, 50024, "failed to rate post")
		return
	}

	utils.Created(ctx, gin.H{"message": "successful assessment"})
}

// RemoveRate deletes a LIKE or DISLIKE from a post.
func (p *PostController) RemoveRate(ctx *gin.Context) {
	action, err := models.ParseActionKind(ctx.Param("action"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "action must be LIKE or DISLIKE")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := p.posts.RemoveRate(ctx.Request.Context(), ctx.Param("id"), userID, action); err != nil {
		if errors.Is(err, services.ErrNoSuchAction) {
			utils.Error(ctx, http.StatusNotFound, 40404, "reaction not found")
			return
		}
		p.respondDomainError(ctx, err, 50025, "failed to remove reaction")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// ListReactions returns all reactions for a post.
func (p *PostController) ListReactions(ctx *gin.Context) {
	acts, err := p.posts.ListReactions(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNoSuchPost) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to list reactions")
		return
	}
	utils.Success(ctx, gin.H{"items": acts})
}

// respondDomainError maps the shared domain errors to their single HTTP
// outcome; callers handle operation-specific errors before delegating here.
func (p *PostController) respondDomainError(ctx *gin.Context, err error, code int, fallback string) {
	switch {
	case errors.Is(err, services.ErrNoSuchUser):
		utils.Error(ctx, http.StatusNotFound, 40402, "user not found")
	case errors.Is(err, services.ErrNoSuchPost):
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.Error(ctx, http.StatusForbidden, 40301, "permission denied")
	default:
		utils.Error(ctx, http.StatusInternalServerError, code, fallback)
	}
}
