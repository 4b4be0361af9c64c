package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/pkg/telemetry"
)

// follow handles PUT /users/:user_id/following/:target_id. The edge is
// committed first; the feed backfill reacts to it in the background.
func (r *Router) follow(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "follow.create")
	defer span.End()

	followerID := c.Param("user_id")
	targetID := c.Param("target_id")
	if followerID == targetID {
		badRequest(c, "cannot follow yourself")
		return
	}

	if err := r.follows.Create(ctx, followerID, targetID); err != nil {
		r.logger.Error("Failed to create follow",
			zap.String("follower_id", followerID),
			zap.String("followee_id", targetID),
			zap.Error(err))
		internalError(c)
		return
	}

	r.tasks.Submit("on-follow", func(ctx context.Context) error {
		return r.feedCache.OnFollow(ctx, followerID, targetID)
	})

	c.Status(http.StatusNoContent)
}

// unfollow handles DELETE /users/:user_id/following/:target_id
func (r *Router) unfollow(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "follow.delete")
	defer span.End()

	followerID := c.Param("user_id")
	targetID := c.Param("target_id")

	if err := r.follows.Delete(ctx, followerID, targetID); err != nil {
		r.logger.Error("Failed to delete follow",
			zap.String("follower_id", followerID),
			zap.String("followee_id", targetID),
			zap.Error(err))
		internalError(c)
		return
	}

	r.tasks.Submit("on-unfollow", func(ctx context.Context) error {
		return r.feedCache.OnUnfollow(ctx, followerID, targetID)
	})

	c.Status(http.StatusNoContent)
}

// likePost handles PUT /users/:user_id/likes/:post_id
func (r *Router) likePost(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "like.create")
	defer span.End()

	userID := c.Param("user_id")
	postID := c.Param("post_id")

	post, err := r.posts.GetByID(ctx, postID)
	if err != nil {
		internalError(c)
		return
	}
	if post == nil || post.IsDeleted {
		notFound(c, "post not found")
		return
	}

	if err := r.likes.Create(ctx, userID, postID); err != nil {
		r.logger.Error("Failed to create like",
			zap.String("user_id", userID),
			zap.String("post_id", postID),
			zap.Error(err))
		internalError(c)
		return
	}

	c.Status(http.StatusNoContent)
}

// unlikePost handles DELETE /users/:user_id/likes/:post_id
func (r *Router) unlikePost(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "like.delete")
	defer span.End()

	userID := c.Param("user_id")
	postID := c.Param("post_id")

	if err := r.likes.Delete(ctx, userID, postID); err != nil {
		r.logger.Error("Failed to delete like",
			zap.String("user_id", userID),
			zap.String("post_id", postID),
			zap.Error(err))
		internalError(c)
		return
	}

	c.Status(http.StatusNoContent)
}
