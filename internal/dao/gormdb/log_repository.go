package gormdb

import (
	"time"

	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/constants"

	"gorm.io/gorm"
)

type logRepository struct {
	db *gorm.DB
}

// Append stores a log entry and evicts the oldest rows beyond the per-room
// retention cap. Truncation happens here, at append time, never at read.
func (r *logRepository) Append(entry *model.ChatLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return wrapDBErrorf(err, "append log room_id=%s", entry.RoomID)
	}

	var count int64
	if err := r.db.Model(&model.ChatLog{}).Where("room_id = ?", entry.RoomID).Count(&count).Error; err != nil {
		return wrapDBErrorf(err, "count logs room_id=%s", entry.RoomID)
	}
	if count <= constants.MAX_LOGS_PER_ROOM {
		return nil
	}

	// Collect the ids of the oldest surplus rows, then hard-delete them.
	var surplus []uint
	err := r.db.Model(&model.ChatLog{}).
		Where("room_id = ?", entry.RoomID).
		Order("ts asc, id asc").
		Limit(int(count - constants.MAX_LOGS_PER_ROOM)).
		Pluck("id", &surplus).Error
	if err != nil {
		return wrapDBErrorf(err, "find surplus logs room_id=%s", entry.RoomID)
	}
	if len(surplus) == 0 {
		return nil
	}
	if err := r.db.Unscoped().Where("id IN ?", surplus).Delete(&model.ChatLog{}).Error; err != nil {
		return wrapDBErrorf(err, "truncate logs room_id=%s", entry.RoomID)
	}
	return nil
}

// History returns the most recent limit entries within the exclusive
// (after, before) bounds, ascending by timestamp.
func (r *logRepository) History(roomID string, limit int, before, after *time.Time) ([]model.ChatLog, error) {
	q := r.db.Where("room_id = ?", roomID)
	if after != nil {
		q = q.Where("ts > ?", *after)
	}
	if before != nil {
		q = q.Where("ts < ?", *before)
	}

	var entries []model.ChatLog
	if err := q.Order("ts desc, id desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, wrapDBErrorf(err, "history room_id=%s", roomID)
	}

	// Fetched newest-first for the limit; reverse to ascending.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// CountByRoom returns the number of retained entries for a room.
func (r *logRepository) CountByRoom(roomID string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.ChatLog{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "count logs room_id=%s", roomID)
	}
	return count, nil
}
