package models

import (
	"time"
)

// Like represents a user liking a post.
type Like struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey;column:user_id"`
	PostID    string    `gorm:"type:varchar(36);primaryKey;column:post_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}
