// Package dao defines the repository interfaces of the durable store and
// selects a backend implementation at startup. Two implementations exist:
// gormdb (relational, mysql or sqlite) and filestore (JSON state files).
package dao

import (
	"time"

	"klav_chat_server/internal/model"
)

// UserRepository persists registered identities.
type UserRepository interface {
	// FindByUsername returns the user or a CodeNotFound error.
	FindByUsername(username string) (*model.User, error)
	Create(user *model.User) error
	UpdateNickname(username, nickname string) error
}

// RoomRepository persists room metadata and the cached last-activity
// summary used for room-list ordering.
type RoomRepository interface {
	FindByRoomID(roomID string) (*model.Room, error)
	// FindFirstByName returns the first room carrying the name. Names are
	// not unique; first-match semantics are deliberate.
	FindFirstByName(name string) (*model.Room, error)
	Create(room *model.Room) error
	UpdateLast(roomID string, last model.RoomLast) error
	FindByRoomIDs(roomIDs []string) ([]model.Room, error)
}

// MemberRepository persists the many-to-many room membership relation.
type MemberRepository interface {
	Add(member *model.RoomMember) error
	// Remove reports whether a membership row was actually deleted.
	Remove(roomID, username string) (bool, error)
	Exists(roomID, username string) (bool, error)
	MembersOf(roomID string) ([]string, error)
	RoomsOf(username string) ([]string, error)
}

// LogRepository persists per-room append-only logs. Append enforces the
// retention cap; History filters by exclusive time bounds and returns the
// most recent limit entries in ascending timestamp order.
type LogRepository interface {
	Append(entry *model.ChatLog) error
	History(roomID string, limit int, before, after *time.Time) ([]model.ChatLog, error)
	// CountByRoom exists for retention verification and admin tooling.
	CountByRoom(roomID string) (int64, error)
}

// FollowRepository persists directed follow edges.
type FollowRepository interface {
	Create(follower, followee string) error
	Exists(follower, followee string) (bool, error)
	// Delete reports whether an edge existed.
	Delete(follower, followee string) (bool, error)
	// Following and Followers return usernames sorted ascending.
	Following(username string) ([]string, error)
	Followers(username string) ([]string, error)
}

// Repositories aggregates the repository set of one backend.
type Repositories struct {
	User   UserRepository
	Room   RoomRepository
	Member MemberRepository
	Log    LogRepository
	Follow FollowRepository

	pinger func() error
	closer func() error
}

// Ping verifies the backing store is reachable.
func (r *Repositories) Ping() error {
	if r.pinger == nil {
		return nil
	}
	return r.pinger()
}

// Close releases backend resources.
func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
