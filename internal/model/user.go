// Package model defines the durable entities of the chat core.
package model

import (
	"gorm.io/gorm"
)

// User is an authenticated identity. The username is the opaque handle
// referenced everywhere else; the nickname is a mutable display name
// defaulting to the handle.
type User struct {
	gorm.Model

	Username string `gorm:"column:username;uniqueIndex;type:varchar(100);not null;comment:opaque user handle"`
	Nickname string `gorm:"column:nickname;type:varchar(100);comment:mutable display name"`

	// Password stores the bcrypt hash, never plaintext.
	Password string `gorm:"column:password;type:varchar(100);not null"`

	Extra string `gorm:"column:extra;type:text"`
}

func (User) TableName() string {
	return "users"
}
