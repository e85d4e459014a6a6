package model

import "gorm.io/gorm"

// Follow is a directed social edge (follower -> followee), unique per
// ordered pair. Self-follow is rejected at the service layer.
type Follow struct {
	gorm.Model

	FollowerUsername string `gorm:"column:follower_username;type:varchar(100);not null;uniqueIndex:idx_follow_pair"`
	FolloweeUsername string `gorm:"column:followee_username;type:varchar(100);not null;uniqueIndex:idx_follow_pair;index"`
}

func (Follow) TableName() string {
	return "follows"
}
