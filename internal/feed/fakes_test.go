package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/pulsegram/feed-service/internal/cache"
	"github.com/pulsegram/feed-service/internal/models"
)

// fakeStore is an in-memory stand-in for cache.FeedStore with the same
// observable semantics: score-ordered members, trim-to-max on write, keys
// disappearing when emptied, and a switch to simulate a store outage.
type fakeStore struct {
	mu         sync.Mutex
	feeds      map[string]map[string]int64
	maxSize    int
	fail       bool
	batchSizes []int
	writes     int
}

func newFakeStore(maxSize int) *fakeStore {
	return &fakeStore{
		feeds:   make(map[string]map[string]int64),
		maxSize: maxSize,
	}
}

func (s *fakeStore) sorted(userID string) []string {
	feed := s.feeds[userID]
	ids := make([]string, 0, len(feed))
	for id := range feed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if feed[ids[i]] != feed[ids[j]] {
			return feed[ids[i]] > feed[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (s *fakeStore) trim(userID string) {
	ids := s.sorted(userID)
	for _, id := range ids[min(len(ids), s.maxSize):] {
		delete(s.feeds[userID], id)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (s *fakeStore) AddEntry(_ context.Context, userID, postID string, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return cache.ErrStoreUnavailable
	}
	if s.feeds[userID] == nil {
		s.feeds[userID] = make(map[string]int64)
	}
	s.feeds[userID][postID] = score
	s.trim(userID)
	s.writes++
	return nil
}

func (s *fakeStore) AddEntryBatch(ctx context.Context, userIDs []string, postID string, score int64) error {
	s.mu.Lock()
	s.batchSizes = append(s.batchSizes, len(userIDs))
	s.mu.Unlock()
	for _, userID := range userIDs {
		if err := s.AddEntry(ctx, userID, postID, score); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) RemoveEntry(_ context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return cache.ErrStoreUnavailable
	}
	delete(s.feeds[userID], postID)
	if len(s.feeds[userID]) == 0 {
		delete(s.feeds, userID)
	}
	return nil
}

func (s *fakeStore) RemoveEntryBatch(ctx context.Context, userIDs []string, postID string) error {
	for _, userID := range userIDs {
		if err := s.RemoveEntry(ctx, userID, postID); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) ReadRange(_ context.Context, userID string, page, pageSize int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, cache.ErrStoreUnavailable
	}
	ids := s.sorted(userID)
	start := (page - 1) * pageSize
	if start >= len(ids) {
		return nil, nil
	}
	return ids[start:min(start+pageSize, len(ids))], nil
}

func (s *fakeStore) Size(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, cache.ErrStoreUnavailable
	}
	return int64(len(s.feeds[userID])), nil
}

func (s *fakeStore) Exists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false, cache.ErrStoreUnavailable
	}
	_, ok := s.feeds[userID]
	return ok, nil
}

func (s *fakeStore) Invalidate(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return cache.ErrStoreUnavailable
	}
	delete(s.feeds, userID)
	return nil
}

func (s *fakeStore) PopulateBatch(_ context.Context, userID string, entries []cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return cache.ErrStoreUnavailable
	}
	if len(entries) == 0 {
		return nil
	}
	if s.feeds[userID] == nil {
		s.feeds[userID] = make(map[string]int64)
	}
	for _, e := range entries {
		s.feeds[userID][e.PostID] = e.Score
	}
	s.trim(userID)
	s.writes++
	return nil
}

// fakePosts is an in-memory PostDirectory
type fakePosts struct {
	posts []models.Post
}

func (p *fakePosts) FindByIDs(_ context.Context, ids []string) ([]models.Post, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.Post
	for _, post := range p.posts {
		if _, ok := want[post.ID]; ok && !post.IsDeleted {
			out = append(out, post)
		}
	}
	return out, nil
}

func (p *fakePosts) FindRecentByAuthors(_ context.Context, authorIDs []string, limit, offset int) ([]models.PostRef, error) {
	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}
	var matched []models.Post
	for _, post := range p.posts {
		if _, ok := authors[post.AuthorID]; ok && !post.IsDeleted {
			matched = append(matched, post)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:min(offset+limit, len(matched))]
	refs := make([]models.PostRef, len(matched))
	for i, post := range matched {
		refs[i] = models.PostRef{ID: post.ID, CreatedAt: post.CreatedAt}
	}
	return refs, nil
}

func (p *fakePosts) CountByAuthors(_ context.Context, authorIDs []string) (int64, error) {
	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}
	var count int64
	for _, post := range p.posts {
		if _, ok := authors[post.AuthorID]; ok && !post.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (p *fakePosts) ListIDsByAuthor(_ context.Context, authorID string) ([]string, error) {
	var ids []string
	for _, post := range p.posts {
		if post.AuthorID == authorID {
			ids = append(ids, post.ID)
		}
	}
	return ids, nil
}

// fakeFollows is an in-memory FollowGraph
type fakeFollows struct {
	edges [][2]string // follower, followee
}

func (f *fakeFollows) GetFollowerIDs(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, e := range f.edges {
		if e[1] == userID {
			ids = append(ids, e[0])
		}
	}
	return ids, nil
}

func (f *fakeFollows) GetFollowingIDs(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, e := range f.edges {
		if e[0] == userID {
			ids = append(ids, e[1])
		}
	}
	return ids, nil
}

// fakeLikes is an in-memory LikeStore
type fakeLikes struct {
	likes map[string]map[string]struct{} // userID -> postID set
}

func (l *fakeLikes) FindLikedPostIDs(_ context.Context, userID string, postIDs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, id := range postIDs {
		if _, ok := l.likes[userID][id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}
