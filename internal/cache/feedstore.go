package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pulsegram/feed-service/pkg/config"
)

// ErrStoreUnavailable is returned for every feed store failure, whether the
// cause is a connection error, a timeout or a missing client. Callers treat
// the store as a pure accelerator: on this error they fall back to the
// database instead of failing the request.
var ErrStoreUnavailable = errors.New("feed store unavailable")

// Entry is one member of a user's feed: the post ID keyed by its creation
// timestamp in milliseconds, which doubles as the sort order.
type Entry struct {
	PostID string
	Score  int64
}

// FeedStore keeps one bounded sorted set per user under feed:{userID}.
// Highest score is most recent. Every write refreshes the key TTL; add, trim
// and expire travel in a single MULTI/EXEC pipeline so a concurrent reader
// never observes a partially trimmed or TTL-less feed.
type FeedStore struct {
	rdb       *redis.Client
	maxSize   int
	ttl       time.Duration
	opTimeout time.Duration
}

// NewFeedStore creates a feed store on top of an established Redis client
func NewFeedStore(client *Client, cfg *config.FeedConfig) *FeedStore {
	var rdb *redis.Client
	if client != nil {
		rdb = client.Redis()
	}
	return &FeedStore{
		rdb:       rdb,
		maxSize:   cfg.MaxFeedSize,
		ttl:       cfg.TTL,
		opTimeout: cfg.StoreOpTimeout,
	}
}

func feedKey(userID string) string {
	return "feed:" + userID
}

// opContext derives a short-deadline context so a slow or partitioned Redis
// surfaces as ErrStoreUnavailable instead of stalling the fallback path.
func (s *FeedStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *FeedStore) wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// AddEntry inserts or updates one member in a user's feed, trims the feed to
// its size bound keeping the highest scores, and refreshes the TTL, all as
// one atomic batch.
func (s *FeedStore) AddEntry(ctx context.Context, userID, postID string, score int64) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	key := feedKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(score), Member: postID})
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(s.maxSize + 1)))
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return s.wrap(err)
}

// AddEntryBatch applies AddEntry to many user feeds. Each key gets its own
// pipeline so one failing feed does not block the others; the errors of all
// failed keys are joined into the returned error.
func (s *FeedStore) AddEntryBatch(ctx context.Context, userIDs []string, postID string, score int64) error {
	return s.forEachKey(userIDs, func(userID string) error {
		return s.AddEntry(ctx, userID, postID, score)
	})
}

// RemoveEntry removes one member from a user's feed. Removing an absent
// member is a no-op, not an error.
func (s *FeedStore) RemoveEntry(ctx context.Context, userID, postID string) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	err := s.rdb.ZRem(ctx, feedKey(userID), postID).Err()
	return s.wrap(err)
}

// RemoveEntryBatch applies RemoveEntry to many user feeds, each key
// independently.
func (s *FeedStore) RemoveEntryBatch(ctx context.Context, userIDs []string, postID string) error {
	return s.forEachKey(userIDs, func(userID string) error {
		return s.RemoveEntry(ctx, userID, postID)
	})
}

// ReadRange returns up to pageSize post IDs ordered by score descending, at
// offset (page-1)*pageSize. An absent key yields an empty slice.
func (s *FeedStore) ReadRange(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	if s.rdb == nil {
		return nil, ErrStoreUnavailable
	}
	if page < 1 {
		page = 1
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	start := int64((page - 1) * pageSize)
	stop := start + int64(pageSize) - 1
	ids, err := s.rdb.ZRevRange(ctx, feedKey(userID), start, stop).Result()
	if err != nil {
		return nil, s.wrap(err)
	}
	return ids, nil
}

// Size returns the cardinality of a user's feed, 0 if absent
func (s *FeedStore) Size(ctx context.Context, userID string) (int64, error) {
	if s.rdb == nil {
		return 0, ErrStoreUnavailable
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := s.rdb.ZCard(ctx, feedKey(userID)).Result()
	if err != nil {
		return 0, s.wrap(err)
	}
	return n, nil
}

// Exists reports whether a user's feed key is present. Used to distinguish
// an empty feed from an uncached one.
func (s *FeedStore) Exists(ctx context.Context, userID string) (bool, error) {
	if s.rdb == nil {
		return false, ErrStoreUnavailable
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := s.rdb.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		return false, s.wrap(err)
	}
	return n > 0, nil
}

// Invalidate deletes a user's feed key entirely
func (s *FeedStore) Invalidate(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	err := s.rdb.Del(ctx, feedKey(userID)).Err()
	return s.wrap(err)
}

// PopulateBatch bulk-inserts many entries into one user's feed with a single
// trim and a single TTL refresh at the end. Rebuilds use this to avoid the
// per-entry trim and expire overhead of AddEntry.
func (s *FeedStore) PopulateBatch(ctx context.Context, userID string, entries []Entry) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	members := make([]*redis.Z, len(entries))
	for i, e := range entries {
		members[i] = &redis.Z{Score: float64(e.Score), Member: e.PostID}
	}

	key := feedKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(s.maxSize + 1)))
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return s.wrap(err)
}

// forEachKey runs fn for every user ID concurrently and joins the failures.
// Callers bound the slice size, which in turn bounds in-flight connections.
func (s *FeedStore) forEachKey(userIDs []string, fn func(userID string) error) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, userID := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if err := fn(userID); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("feed %s: %w", userID, err))
				mu.Unlock()
			}
		}(userID)
	}
	wg.Wait()

	return errors.Join(errs...)
}
