package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/pkg/telemetry"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// getFeed handles GET /users/:user_id/feed
func (r *Router) getFeed(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "feed.get")
	defer span.End()

	userID := c.Param("user_id")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		badRequest(c, "page must be a positive integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		badRequest(c, "limit must be a positive integer")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	feedPage, err := r.svc.GetFeed(ctx, userID, page, limit)
	if err != nil {
		r.logger.Error("Failed to read feed",
			zap.String("user_id", userID),
			zap.Error(err))
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, feedPage)
}

// rebuildFeed handles POST /users/:user_id/feed/rebuild
func (r *Router) rebuildFeed(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "feed.rebuild")
	defer span.End()

	userID := c.Param("user_id")

	restored, err := r.feedCache.Rebuild(ctx, userID)
	if err != nil {
		r.logger.Error("Failed to rebuild feed",
			zap.String("user_id", userID),
			zap.Error(err))
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": restored})
}
