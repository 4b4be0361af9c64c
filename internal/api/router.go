package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/internal/cache"
	"github.com/pulsegram/feed-service/internal/db"
	"github.com/pulsegram/feed-service/internal/feed"
	"github.com/pulsegram/feed-service/pkg/logging"
)

// Router wires the REST surface to the feed subsystem
type Router struct {
	svc       *feed.Service
	feedCache *feed.FeedCache
	tasks     *feed.Runner
	posts     *db.PostRepository
	follows   *db.FollowRepository
	likes     *db.LikeRepository
	database  *db.DB
	redis     *cache.Client
	logger    *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(
	svc *feed.Service,
	feedCache *feed.FeedCache,
	tasks *feed.Runner,
	posts *db.PostRepository,
	follows *db.FollowRepository,
	likes *db.LikeRepository,
	database *db.DB,
	redisClient *cache.Client,
) *Router {
	return &Router{
		svc:       svc,
		feedCache: feedCache,
		tasks:     tasks,
		posts:     posts,
		follows:   follows,
		likes:     likes,
		database:  database,
		redis:     redisClient,
		logger:    logging.WithComponent("api-router"),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	engine.GET("/users/:user_id/feed", r.getFeed)
	engine.POST("/users/:user_id/feed/rebuild", r.rebuildFeed)

	engine.POST("/posts", r.createPost)
	engine.DELETE("/posts/:post_id", r.deletePost)

	engine.PUT("/users/:user_id/following/:target_id", r.follow)
	engine.DELETE("/users/:user_id/following/:target_id", r.unfollow)

	engine.PUT("/users/:user_id/likes/:post_id", r.likePost)
	engine.DELETE("/users/:user_id/likes/:post_id", r.unlikePost)
}

// healthHandler reports liveness of the service and its backends. A cache
// outage is reported but does not fail the check; the service still serves
// feeds through the fallback path.
func (r *Router) healthHandler(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "OK"
	if err := r.database.Health(c.Request.Context()); err != nil {
		dbStatus = "DOWN"
		status = http.StatusServiceUnavailable
	}

	cacheStatus := "OK"
	if err := r.redis.Health(c.Request.Context()); err != nil {
		cacheStatus = "DEGRADED"
	}

	c.JSON(status, gin.H{
		"status":   dbStatus,
		"service":  "feed-service",
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
