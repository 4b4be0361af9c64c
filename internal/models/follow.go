package models

import (
	"time"
)

// Follow represents a follow edge from FollowerID to FolloweeID.
type Follow struct {
	FollowerID string    `gorm:"type:varchar(36);primaryKey;column:follower_id"`
	FolloweeID string    `gorm:"type:varchar(36);primaryKey;column:followee_id"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
