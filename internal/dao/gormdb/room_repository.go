package gormdb

import (
	"database/sql"

	"klav_chat_server/internal/model"

	"gorm.io/gorm"
)

type roomRepository struct {
	db *gorm.DB
}

// FindByRoomID looks a room up by opaque id.
func (r *roomRepository) FindByRoomID(roomID string) (*model.Room, error) {
	var room model.Room
	if err := r.db.Where("room_id = ?", roomID).First(&room).Error; err != nil {
		return nil, wrapDBErrorf(err, "find room room_id=%s", roomID)
	}
	return &room, nil
}

// FindFirstByName returns the oldest room with the given display name.
// Names are non-unique; first-match wins, matching the legacy name-based
// join behavior.
func (r *roomRepository) FindFirstByName(name string) (*model.Room, error) {
	var room model.Room
	if err := r.db.Where("name = ?", name).Order("id asc").First(&room).Error; err != nil {
		return nil, wrapDBErrorf(err, "find room name=%s", name)
	}
	return &room, nil
}

// Create inserts a new room row.
func (r *roomRepository) Create(room *model.Room) error {
	if err := r.db.Create(room).Error; err != nil {
		return wrapDBError(err, "create room")
	}
	return nil
}

// UpdateLast rewrites the cached last-activity summary.
func (r *roomRepository) UpdateLast(roomID string, last model.RoomLast) error {
	updates := map[string]any{
		"last_message_text": last.Text,
		"last_message_from": last.From,
		"last_message_kind": last.Kind,
		"last_message_ts":   sql.NullTime{Time: last.Ts, Valid: true},
	}
	if err := r.db.Model(&model.Room{}).Where("room_id = ?", roomID).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "update room last room_id=%s", roomID)
	}
	return nil
}

// FindByRoomIDs fetches room metadata for a set of ids.
func (r *roomRepository) FindByRoomIDs(roomIDs []string) ([]model.Room, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	var rooms []model.Room
	if err := r.db.Where("room_id IN ?", roomIDs).Find(&rooms).Error; err != nil {
		return nil, wrapDBError(err, "find rooms by ids")
	}
	return rooms, nil
}
