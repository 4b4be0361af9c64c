package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pulsegram/feed-service/pkg/config"
	"github.com/pulsegram/feed-service/pkg/logging"
)

// Client wraps the Redis connection for the feed store. One Client is
// constructed per process by the composition root; there is no package-level
// singleton.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies connectivity
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Client{rdb: rdb}, nil
}

// Redis exposes the underlying go-redis client
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Health checks Redis health
func (c *Client) Health(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return ErrStoreUnavailable
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
