package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/pkg/logging"
)

// FeedPost is a hydrated feed entry as served to clients
type FeedPost struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	IsLiked   bool      `json:"is_liked"`
}

// FeedPage is one page of a user's feed plus pagination metadata
type FeedPage struct {
	Data       []FeedPost `json:"data"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
	HasMore    bool       `json:"has_more"`
}

// Service is the read facade over FeedCache: it hydrates post IDs into full
// posts, drops tombstones, annotates the viewer's likes and attaches
// pagination metadata that is consistent whichever path served the IDs.
type Service struct {
	feedCache *FeedCache
	store     Store
	posts     PostDirectory
	follows   FollowGraph
	likes     LikeStore
	logger    *zap.Logger
}

// NewService creates the feed read service
func NewService(feedCache *FeedCache, store Store, posts PostDirectory, follows FollowGraph, likes LikeStore) *Service {
	return &Service{
		feedCache: feedCache,
		store:     store,
		posts:     posts,
		follows:   follows,
		likes:     likes,
		logger:    logging.WithComponent("feed-service"),
	}
}

// GetFeed returns one hydrated page of the user's feed
func (s *Service) GetFeed(ctx context.Context, userID string, page, limit int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	result, err := s.feedCache.Read(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.FindByIDs(ctx, result.PostIDs)
	if err != nil {
		return nil, err
	}

	liked, err := s.likes.FindLikedPostIDs(ctx, userID, result.PostIDs)
	if err != nil {
		return nil, err
	}

	// Re-project in feed order; the database returns the ID set unordered.
	// IDs without a backing post are tombstones of deleted posts still
	// sitting in the cache and are dropped silently.
	byID := make(map[string]int, len(posts))
	for i := range posts {
		byID[posts[i].ID] = i
	}

	data := make([]FeedPost, 0, len(result.PostIDs))
	for _, id := range result.PostIDs {
		i, ok := byID[id]
		if !ok {
			continue
		}
		_, isLiked := liked[id]
		data = append(data, FeedPost{
			ID:        posts[i].ID,
			AuthorID:  posts[i].AuthorID,
			Body:      posts[i].Body,
			CreatedAt: posts[i].CreatedAt,
			IsLiked:   isLiked,
		})
	}

	total, err := s.totalCount(ctx, userID, result.FromCache)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &FeedPage{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasMore:    int64(page*limit) < total,
	}, nil
}

// totalCount uses the store cardinality when the page came from cache and
// the relational count otherwise. A store failure between the read and the
// count falls through to the relational count.
func (s *Service) totalCount(ctx context.Context, userID string, fromCache bool) (int64, error) {
	if fromCache {
		total, err := s.store.Size(ctx, userID)
		if err == nil {
			return total, nil
		}
		s.logger.Debug("Feed store size failed, counting from database",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	following, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.posts.CountByAuthors(ctx, append(following, userID))
}
