package model

import (
	"time"

	"gorm.io/gorm"
)

// Log entry kinds.
const (
	KindMessage = "msg"
	KindDirect  = "dm"
	KindSystem  = "system"
)

// ChatLog is one entry of a room's append-only log. Each room keeps at
// most constants.MAX_LOGS_PER_ROOM entries, truncated at append time.
type ChatLog struct {
	gorm.Model

	RoomID       string    `gorm:"column:room_id;type:char(20);not null;index:idx_room_ts"`
	Ts           time.Time `gorm:"column:ts;not null;index:idx_room_ts"`
	Kind         string    `gorm:"column:kind;type:varchar(20);not null;index"`
	FromUser     string    `gorm:"column:from_user;type:varchar(100);not null"`
	FromNickname string    `gorm:"column:from_nickname;type:varchar(100)"`

	// ToUser is set only on direct-message entries.
	ToUser string `gorm:"column:to_user;type:varchar(100)"`

	Text string `gorm:"column:text;type:text"`
}

func (ChatLog) TableName() string {
	return "chat_logs"
}
