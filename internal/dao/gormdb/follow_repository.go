package gormdb

import (
	"klav_chat_server/internal/model"

	"gorm.io/gorm"
)

type followRepository struct {
	db *gorm.DB
}

// Create inserts a follow edge.
func (r *followRepository) Create(follower, followee string) error {
	edge := model.Follow{FollowerUsername: follower, FolloweeUsername: followee}
	if err := r.db.Create(&edge).Error; err != nil {
		return wrapDBErrorf(err, "create follow %s->%s", follower, followee)
	}
	return nil
}

// Exists reports whether the edge is present.
func (r *followRepository) Exists(follower, followee string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Follow{}).
		Where("follower_username = ? AND followee_username = ?", follower, followee).
		Count(&count).Error; err != nil {
		return false, wrapDBErrorf(err, "check follow %s->%s", follower, followee)
	}
	return count > 0, nil
}

// Delete removes the edge and reports whether one existed.
func (r *followRepository) Delete(follower, followee string) (bool, error) {
	res := r.db.Where("follower_username = ? AND followee_username = ?", follower, followee).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "delete follow %s->%s", follower, followee)
	}
	return res.RowsAffected > 0, nil
}

// Following lists followees of a user, sorted ascending.
func (r *followRepository) Following(username string) ([]string, error) {
	var followees []string
	if err := r.db.Model(&model.Follow{}).
		Where("follower_username = ?", username).
		Order("followee_username asc").
		Pluck("followee_username", &followees).Error; err != nil {
		return nil, wrapDBErrorf(err, "list following username=%s", username)
	}
	return followees, nil
}

// Followers lists followers of a user, sorted ascending.
func (r *followRepository) Followers(username string) ([]string, error) {
	var followers []string
	if err := r.db.Model(&model.Follow{}).
		Where("followee_username = ?", username).
		Order("follower_username asc").
		Pluck("follower_username", &followers).Error; err != nil {
		return nil, wrapDBErrorf(err, "list followers username=%s", username)
	}
	return followers, nil
}
