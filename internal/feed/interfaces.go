package feed

import (
	"context"

	"github.com/pulsegram/feed-service/internal/cache"
	"github.com/pulsegram/feed-service/internal/models"
)

// Store is the per-user ordered feed store. Implemented by cache.FeedStore;
// every method may fail with cache.ErrStoreUnavailable, which callers treat
// as "fall back to the database", never as a request failure.
type Store interface {
	AddEntry(ctx context.Context, userID, postID string, score int64) error
	AddEntryBatch(ctx context.Context, userIDs []string, postID string, score int64) error
	RemoveEntry(ctx context.Context, userID, postID string) error
	RemoveEntryBatch(ctx context.Context, userIDs []string, postID string) error
	ReadRange(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	Size(ctx context.Context, userID string) (int64, error)
	Exists(ctx context.Context, userID string) (bool, error)
	Invalidate(ctx context.Context, userID string) error
	PopulateBatch(ctx context.Context, userID string, entries []cache.Entry) error
}

// PostDirectory is the read surface over the posts table
type PostDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	FindRecentByAuthors(ctx context.Context, authorIDs []string, limit, offset int) ([]models.PostRef, error)
	CountByAuthors(ctx context.Context, authorIDs []string) (int64, error)
	ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error)
}

// FollowGraph is the read surface over the follow edges
type FollowGraph interface {
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// LikeStore resolves which of a set of posts a viewer has liked
type LikeStore interface {
	FindLikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]struct{}, error)
}
