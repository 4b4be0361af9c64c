package feed

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/internal/cache"
	"github.com/pulsegram/feed-service/pkg/config"
	"github.com/pulsegram/feed-service/pkg/logging"
)

// FeedCache orchestrates the fanout-on-write feed. It owns fanout, the
// cache-first read with relational fallback, rebuild, and the incremental
// follow/unfollow maintenance. No failure of the store ever propagates to a
// user-facing request; the only error a caller can see comes from the
// database fallback itself.
type FeedCache struct {
	store   Store
	posts   PostDirectory
	follows FollowGraph
	tasks   *Runner
	cfg     config.FeedConfig
	logger  *zap.Logger
}

// ReadResult carries a page of post IDs and which path produced it
type ReadResult struct {
	PostIDs   []string
	FromCache bool
}

// NewFeedCache creates the feed orchestrator
func NewFeedCache(store Store, posts PostDirectory, follows FollowGraph, tasks *Runner, cfg config.FeedConfig) *FeedCache {
	return &FeedCache{
		store:   store,
		posts:   posts,
		follows: follows,
		tasks:   tasks,
		cfg:     cfg,
		logger:  logging.WithComponent("feed-cache"),
	}
}

// Read returns one page of a user's feed. It tries the store first; on an
// empty result or store failure it recomputes the page from the posts of
// everyone the user follows (plus the user) and schedules a background cache
// warm. The fallback keeps reads correct through a total cache outage.
func (fc *FeedCache) Read(ctx context.Context, userID string, page, limit int) (*ReadResult, error) {
	ids, err := fc.store.ReadRange(ctx, userID, page, limit)
	if err == nil && len(ids) > 0 {
		return &ReadResult{PostIDs: ids, FromCache: true}, nil
	}
	if err != nil {
		fc.logger.Debug("Feed store read failed, using fallback",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	authors, err := fc.followedAuthors(ctx, userID)
	if err != nil {
		return nil, err
	}

	refs, err := fc.posts.FindRecentByAuthors(ctx, authors, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	postIDs := make([]string, len(refs))
	for i, ref := range refs {
		postIDs[i] = ref.ID
	}

	// Repair the cache off the request path; errors are logged by the runner
	fc.tasks.Submit("warm-feed", func(ctx context.Context) error {
		return fc.WarmCache(ctx, userID)
	})

	return &ReadResult{PostIDs: postIDs, FromCache: false}, nil
}

// Fanout pushes a new post into the cached feed of every follower of its
// author, and into the author's own feed. Authors above the fanout limit are
// skipped entirely: their followers get the post through the fallback path
// instead of triggering tens of thousands of writes per post. Store failures
// are logged per batch and never propagated.
func (fc *FeedCache) Fanout(ctx context.Context, postID, authorID string, createdAt time.Time) error {
	followers, err := fc.follows.GetFollowerIDs(ctx, authorID)
	if err != nil {
		return err
	}

	if len(followers) > fc.cfg.FanoutLimit {
		fc.logger.Info("Skipping fanout for high-follower author",
			zap.String("author_id", authorID),
			zap.String("post_id", postID),
			zap.Int("followers", len(followers)))
		return nil
	}

	// Authors always see their own posts
	targets := append(followers, authorID)
	score := createdAt.UnixMilli()

	for start := 0; start < len(targets); start += fc.cfg.FanoutBatchSize {
		end := start + fc.cfg.FanoutBatchSize
		if end > len(targets) {
			end = len(targets)
		}
		if err := fc.store.AddEntryBatch(ctx, targets[start:end], postID, score); err != nil {
			fc.logger.Warn("Fanout batch had failures",
				zap.String("post_id", postID),
				zap.Error(err))
		}
	}

	return nil
}

// RemoveFanout is the deletion mirror of Fanout. There is no follower ceiling
// here: a stale reference in a cached feed is worse than a burst of cheap
// removals, so removal is always attempted for every target.
func (fc *FeedCache) RemoveFanout(ctx context.Context, postID, authorID string) error {
	followers, err := fc.follows.GetFollowerIDs(ctx, authorID)
	if err != nil {
		return err
	}

	targets := append(followers, authorID)

	for start := 0; start < len(targets); start += fc.cfg.FanoutBatchSize {
		end := start + fc.cfg.FanoutBatchSize
		if end > len(targets) {
			end = len(targets)
		}
		if err := fc.store.RemoveEntryBatch(ctx, targets[start:end], postID); err != nil {
			fc.logger.Warn("Fanout removal batch had failures",
				zap.String("post_id", postID),
				zap.Error(err))
		}
	}

	return nil
}

// Rebuild recomputes a user's cached feed from the system of record and
// returns the number of posts restored. The key is invalidated first so a
// stale feed never mixes with the rebuilt one.
func (fc *FeedCache) Rebuild(ctx context.Context, userID string) (int, error) {
	if err := fc.store.Invalidate(ctx, userID); err != nil {
		return 0, err
	}

	authors, err := fc.followedAuthors(ctx, userID)
	if err != nil {
		return 0, err
	}

	refs, err := fc.posts.FindRecentByAuthors(ctx, authors, fc.cfg.MaxFeedSize, 0)
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}

	entries := make([]cache.Entry, len(refs))
	for i, ref := range refs {
		entries[i] = cache.Entry{PostID: ref.ID, Score: ref.CreatedAt.UnixMilli()}
	}

	if err := fc.store.PopulateBatch(ctx, userID, entries); err != nil {
		return 0, err
	}

	fc.logger.Debug("Rebuilt feed",
		zap.String("user_id", userID),
		zap.Int("posts", len(entries)))

	return len(entries), nil
}

// WarmCache rebuilds a user's feed only if it is not cached. A populated
// feed, even a sparse one, is left alone.
func (fc *FeedCache) WarmCache(ctx context.Context, userID string) error {
	exists, err := fc.store.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = fc.Rebuild(ctx, userID)
	return err
}

// OnFollow backfills the follower's feed with the followee's most recent
// posts, bounded so a single follow action cannot trigger an unbounded
// write burst. Anything older reaches the feed through rebuild or fallback.
func (fc *FeedCache) OnFollow(ctx context.Context, followerID, followeeID string) error {
	refs, err := fc.posts.FindRecentByAuthors(ctx, []string{followeeID}, fc.cfg.FollowBackfillLimit, 0)
	if err != nil {
		return err
	}

	var errs []error
	for _, ref := range refs {
		if err := fc.store.AddEntry(ctx, followerID, ref.ID, ref.CreatedAt.UnixMilli()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnUnfollow scrubs every post of the unfollowed author from the follower's
// feed. Unlike the backfill this is unbounded: correctness requires removing
// every trace, however old. The feed is left shorter rather than topped up;
// the gap heals on the next rebuild or fallback read.
func (fc *FeedCache) OnUnfollow(ctx context.Context, followerID, unfollowedID string) error {
	ids, err := fc.posts.ListIDsByAuthor(ctx, unfollowedID)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		if err := fc.store.RemoveEntry(ctx, followerID, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// followedAuthors is the authorship set for a user's feed: everyone they
// follow plus themselves.
func (fc *FeedCache) followedAuthors(ctx context.Context, userID string) ([]string, error) {
	following, err := fc.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(following, userID), nil
}
