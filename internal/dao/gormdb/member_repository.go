package gormdb

import (
	"klav_chat_server/internal/model"

	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

// Add inserts a membership row.
func (r *memberRepository) Add(member *model.RoomMember) error {
	if err := r.db.Create(member).Error; err != nil {
		return wrapDBErrorf(err, "add member room_id=%s username=%s", member.RoomID, member.Username)
	}
	return nil
}

// Remove deletes a membership row and reports whether one existed.
func (r *memberRepository) Remove(roomID, username string) (bool, error) {
	res := r.db.Where("room_id = ? AND username = ?", roomID, username).Delete(&model.RoomMember{})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "remove member room_id=%s username=%s", roomID, username)
	}
	return res.RowsAffected > 0, nil
}

// Exists reports current membership.
func (r *memberRepository) Exists(roomID, username string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.RoomMember{}).Where("room_id = ? AND username = ?", roomID, username).Count(&count).Error; err != nil {
		return false, wrapDBErrorf(err, "check member room_id=%s username=%s", roomID, username)
	}
	return count > 0, nil
}

// MembersOf lists usernames currently in the room.
func (r *memberRepository) MembersOf(roomID string) ([]string, error) {
	var usernames []string
	if err := r.db.Model(&model.RoomMember{}).Where("room_id = ?", roomID).Pluck("username", &usernames).Error; err != nil {
		return nil, wrapDBErrorf(err, "list members room_id=%s", roomID)
	}
	return usernames, nil
}

// RoomsOf lists room ids the user belongs to.
func (r *memberRepository) RoomsOf(username string) ([]string, error) {
	var roomIDs []string
	if err := r.db.Model(&model.RoomMember{}).Where("username = ?", username).Pluck("room_id", &roomIDs).Error; err != nil {
		return nil, wrapDBErrorf(err, "list rooms username=%s", username)
	}
	return roomIDs, nil
}
