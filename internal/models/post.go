package models

import (
	"time"
)

// Post represents a user post. Feed entries reference posts by ID only; a
// cached feed may still carry IDs of posts that were deleted afterwards, so
// readers must treat a missing post as a tombstone rather than an error.
type Post struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;column:id"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index;column:author_id"`
	Body      string    `gorm:"type:text;not null;column:body"`
	CreatedAt time.Time `gorm:"not null;index;column:created_at"`
	IsDeleted bool      `gorm:"not null;default:false;column:is_deleted"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// PostRef is a minimal projection of a post used when building feed entries:
// the ID becomes the sorted-set member and CreatedAt becomes its score.
type PostRef struct {
	ID        string    `gorm:"column:id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}
