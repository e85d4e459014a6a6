// Package respond defines outbound payloads: every websocket event carries
// {"type", "ts", ...}; REST responses use the dedicated structs below.
package respond

import "time"

// EventTs formats an event timestamp for the wire.
func EventTs(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NowTs is EventTs(now).
func NowTs() string {
	return EventTs(time.Now())
}

// MessageEvent is a room broadcast chat message.
type MessageEvent struct {
	Type         string `json:"type"` // "message"
	Ts           string `json:"ts"`
	Room         string `json:"room"`
	From         string `json:"from"`
	FromNickname string `json:"from_nickname"`
	Text         string `json:"text"`
}

// DirectMessageEvent is a live-delivered room-scoped DM.
type DirectMessageEvent struct {
	Type         string `json:"type"` // "dm"
	Ts           string `json:"ts"`
	Room         string `json:"room"`
	From         string `json:"from"`
	FromNickname string `json:"from_nickname"`
	To           string `json:"to"`
	Text         string `json:"text"`
}

// OfflineDirectMessageEvent is a DM replayed from the offline queue.
// At is the original enqueue time; Ts the delivery time.
type OfflineDirectMessageEvent struct {
	Type         string `json:"type"` // "offline_dm"
	Ts           string `json:"ts"`
	Room         string `json:"room"`
	From         string `json:"from"`
	FromNickname string `json:"from_nickname"`
	Text         string `json:"text"`
	At           string `json:"at"`
}

// DMAckEvent reports the outcome of a room_dm command to its sender.
type DMAckEvent struct {
	Type   string `json:"type"` // "dm_ack"
	Ts     string `json:"ts"`
	Room   string `json:"room"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// SystemRoomEvent announces a join or leave inside a room.
type SystemRoomEvent struct {
	Type         string `json:"type"` // "system"
	Ts           string `json:"ts"`
	Room         string `json:"room"`
	Event        string `json:"event"` // "joined" | "left"
	User         string `json:"user"`
	UserNickname string `json:"user_nickname"`
}

// SystemTextEvent is a free-form system notice to a single user.
type SystemTextEvent struct {
	Type string `json:"type"` // "system"
	Ts   string `json:"ts"`
	Text string `json:"text"`
}

// RoomLastInfo mirrors the cached last-activity summary on the wire.
type RoomLastInfo struct {
	Text string `json:"text"`
	From string `json:"from"`
	Kind string `json:"kind"`
	Ts   string `json:"ts"`
}

// RoomSummary is one row of the my_rooms listing.
type RoomSummary struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Last *RoomLastInfo `json:"last"`
}

// MyRoomsEvent lists the caller's rooms, most recently active first.
type MyRoomsEvent struct {
	Type      string        `json:"type"` // "my_rooms"
	Ts        string        `json:"ts"`
	Rooms     []string      `json:"rooms"`
	RoomsInfo []RoomSummary `json:"rooms_info"`
}

// HistoryItem is one log entry of a history response.
type HistoryItem struct {
	Ts           string `json:"ts"`
	Kind         string `json:"kind"`
	Room         string `json:"room"`
	From         string `json:"from"`
	FromNickname string `json:"from_nickname"`
	Text         string `json:"text"`
	To           string `json:"to,omitempty"`
}

// HistoryEvent answers a history command, items ascending by timestamp.
type HistoryEvent struct {
	Type  string        `json:"type"` // "history"
	Ts    string        `json:"ts"`
	Room  string        `json:"room"`
	Items []HistoryItem `json:"items"`
}

// CreateRoomAckEvent answers a create_room command.
type CreateRoomAckEvent struct {
	Type   string `json:"type"` // "create_room_ack"
	Ts     string `json:"ts"`
	Status string `json:"status"`
	RoomID string `json:"room_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// FollowAckEvent answers friend_follow / friend_unfollow.
type FollowAckEvent struct {
	Type   string `json:"type"` // "friend_follow_ack" | "friend_unfollow_ack"
	Ts     string `json:"ts"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// NotifyFollowedEvent is pushed to the target of a successful follow.
type NotifyFollowedEvent struct {
	Type string `json:"type"` // "notify_followed"
	Ts   string `json:"ts"`
	From string `json:"from"`
}

// UserBrief pairs a handle with its display name.
type UserBrief struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// FollowingListEvent answers following_list.
type FollowingListEvent struct {
	Type      string      `json:"type"` // "following_list"
	Ts        string      `json:"ts"`
	Following []UserBrief `json:"following"`
}

// FollowersListEvent answers followers_list.
type FollowersListEvent struct {
	Type      string      `json:"type"` // "followers_list"
	Ts        string      `json:"ts"`
	Followers []UserBrief `json:"followers"`
}

// OnlineFriend is one row of an online-followees snapshot.
type OnlineFriend struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	Connections int    `json:"connections"`
}

// OnlineFriendsEvent answers get_online_friends and the subscribe command.
type OnlineFriendsEvent struct {
	Type  string         `json:"type"` // "online_friends"
	Ts    string         `json:"ts"`
	Users []OnlineFriend `json:"users"`
}

// PresenceChangeEvent notifies a subscribed follower of a followee's
// aggregate online/offline transition.
type PresenceChangeEvent struct {
	Type   string `json:"type"` // "presence_change"
	Ts     string `json:"ts"`
	Scope  string `json:"scope"` // "friends"
	User   string `json:"user"`
	Name   string `json:"name"`
	Status string `json:"status"` // "online" | "offline"
}

// ErrorEvent reports a per-command validation failure; the connection
// stays open.
type ErrorEvent struct {
	Type string `json:"type"` // "error"
	Ts   string `json:"ts"`
	Code string `json:"code"`
}
