package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsegram/feed-service/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PostRepository provides post-related database operations. It is the system
// of record behind the feed cache: feed reconstruction, fallback reads and
// hydration all resolve against it.
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByID retrieves a post by ID, including soft-deleted ones
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// FindByIDs retrieves posts by ID set, excluding soft-deleted posts. The
// result order is whatever the database returns; callers that care about
// order re-project against their own ID sequence.
func (r *PostRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// FindRecentByAuthors retrieves id+created_at refs of the most recent posts
// authored by any of the given authors, ordered by created_at descending.
func (r *PostRepository) FindRecentByAuthors(ctx context.Context, authorIDs []string, limit, offset int) ([]models.PostRef, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var refs []models.PostRef
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("id", "created_at").
		Where("author_id IN ? AND is_deleted = ?", authorIDs, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// CountByAuthors counts non-deleted posts authored by any of the given authors
func (r *PostRepository) CountByAuthors(ctx context.Context, authorIDs []string) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id IN ? AND is_deleted = ?", authorIDs, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListIDsByAuthor retrieves every post ID by one author, deleted posts
// included. Unfollow cleanup has to scrub IDs that may still sit in cached
// feeds even after the backing post is gone.
func (r *PostRepository) ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ?", authorID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SoftDelete marks a post as deleted without removing the row
func (r *PostRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

// FollowRepository provides follow-graph database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// Create creates a follow edge; re-following is a no-op
func (r *FollowRepository) Create(ctx context.Context, followerID, followeeID string) error {
	follow := &models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow).Error
}

// Delete removes a follow edge; removing an absent edge is a no-op
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}

// GetFollowerIDs retrieves the IDs of everyone following the given user
func (r *FollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetFollowingIDs retrieves the IDs of everyone the given user follows
func (r *FollowRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// LikeRepository provides like-related database operations
type LikeRepository struct {
	*Repository
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(repo *Repository) *LikeRepository {
	return &LikeRepository{Repository: repo}
}

// Create records a like; liking twice is a no-op
func (r *LikeRepository) Create(ctx context.Context, userID, postID string) error {
	like := &models.Like{
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like).Error
}

// Delete removes a like; removing an absent like is a no-op
func (r *LikeRepository) Delete(ctx context.Context, userID, postID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
}

// FindLikedPostIDs returns which of the given post IDs the user has liked,
// in a single query
func (r *LikeRepository) FindLikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]struct{}, error) {
	liked := make(map[string]struct{})
	if len(postIDs) == 0 {
		return liked, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = struct{}{}
	}
	return liked, nil
}
