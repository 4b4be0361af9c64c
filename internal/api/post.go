package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/internal/models"
	"github.com/pulsegram/feed-service/pkg/telemetry"
)

type createPostRequest struct {
	AuthorID string `json:"author_id" binding:"required"`
	Body     string `json:"body" binding:"required"`
}

// createPost handles POST /posts. The post is committed to the database
// before fanout starts; fanout itself runs in the background so a cache
// problem never fails the creation request.
func (r *Router) createPost(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "post.create")
	defer span.End()

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "author_id and body are required")
		return
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		AuthorID:  req.AuthorID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.posts.Create(ctx, post); err != nil {
		r.logger.Error("Failed to create post",
			zap.String("author_id", req.AuthorID),
			zap.Error(err))
		internalError(c)
		return
	}

	r.tasks.Submit("fanout", func(ctx context.Context) error {
		return r.feedCache.Fanout(ctx, post.ID, post.AuthorID, post.CreatedAt)
	})

	c.JSON(http.StatusCreated, post)
}

// deletePost handles DELETE /posts/:post_id. Deletion is soft; the fanout
// removal scrubs the ID from cached feeds in the background, and hydration
// drops whatever it misses.
func (r *Router) deletePost(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "post.delete")
	defer span.End()

	postID := c.Param("post_id")

	post, err := r.posts.GetByID(ctx, postID)
	if err != nil {
		r.logger.Error("Failed to load post",
			zap.String("post_id", postID),
			zap.Error(err))
		internalError(c)
		return
	}
	if post == nil || post.IsDeleted {
		notFound(c, "post not found")
		return
	}

	if err := r.posts.SoftDelete(ctx, postID); err != nil {
		r.logger.Error("Failed to delete post",
			zap.String("post_id", postID),
			zap.Error(err))
		internalError(c)
		return
	}

	authorID := post.AuthorID
	r.tasks.Submit("remove-fanout", func(ctx context.Context) error {
		return r.feedCache.RemoveFanout(ctx, postID, authorID)
	})

	c.Status(http.StatusNoContent)
}
