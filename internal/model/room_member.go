package model

import "gorm.io/gorm"

// RoomMember links a user to a room. Unique per (room, user); the join
// timestamp is the row's CreatedAt.
type RoomMember struct {
	gorm.Model

	RoomID   string `gorm:"column:room_id;type:char(20);not null;uniqueIndex:idx_room_member;index"`
	Username string `gorm:"column:username;type:varchar(100);not null;uniqueIndex:idx_room_member;index"`
}

func (RoomMember) TableName() string {
	return "room_members"
}
