package gormdb

import (
	"klav_chat_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// FindByUsername looks a user up by handle.
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapDBErrorf(err, "find user username=%s", username)
	}
	return &user, nil
}

// Create inserts a new user row.
func (r *userRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "create user")
	}
	return nil
}

// UpdateNickname mutates the display name.
func (r *userRepository) UpdateNickname(username, nickname string) error {
	if err := r.db.Model(&model.User{}).Where("username = ?", username).Update("nickname", nickname).Error; err != nil {
		return wrapDBErrorf(err, "update nickname username=%s", username)
	}
	return nil
}
