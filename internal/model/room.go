package model

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room is identified by a generated opaque id ("r_" + 8 hex). The display
// name is mutable and unique only by convention; lookups by name take the
// first match.
type Room struct {
	gorm.Model

	RoomID string `gorm:"column:room_id;uniqueIndex;type:char(20);not null;comment:opaque room id"`
	Name   string `gorm:"column:name;index;type:varchar(255);not null"`

	// Cached last-activity summary used for room-list ordering. Direct
	// messages never update these fields.
	LastMessageText string       `gorm:"column:last_message_text;type:text"`
	LastMessageFrom string       `gorm:"column:last_message_from;type:varchar(100)"`
	LastMessageKind string       `gorm:"column:last_message_kind;type:varchar(20)"`
	LastMessageTs   sql.NullTime `gorm:"column:last_message_ts"`
}

func (Room) TableName() string {
	return "rooms"
}

// NewRoomID generates an opaque room id: "r_" + the first 8 hex digits of
// a v4 uuid.
func NewRoomID() string {
	return "r_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// RoomLast is the cached last-activity summary of a room.
type RoomLast struct {
	Text string
	From string
	Kind string
	Ts   time.Time
}
