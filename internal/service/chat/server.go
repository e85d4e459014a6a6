package chat

import (
	"context"

	"klav_chat_server/internal/config"
	"klav_chat_server/internal/dao"
	"klav_chat_server/internal/dto/respond"
	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Room DM delivery outcomes, reported on the dm_ack event.
const (
	StatusDelivered          = "DELIVERED"
	StatusQueued             = "QUEUED"
	StatusSenderNotInRoom    = "SENDER_NOT_IN_ROOM"
	StatusRecipientNotInRoom = "RECIPIENT_NOT_IN_ROOM"
)

// Follow outcomes, reported on the ack events.
const (
	StatusFollowed      = "FOLLOWED"
	StatusAlready       = "ALREADY"
	StatusSelf          = "SELF"
	StatusNotRegistered = "NOT_REGISTERED"
	StatusUnfollowed    = "UNFOLLOWED"
	StatusNotFollowing  = "NOT_FOLLOWING"
)

// Server is the chat core: it owns the connection registry, presence
// fan-out, the offline DM queue and the broadcast broker, and composes
// the room and message services.
type Server struct {
	Registry *Registry
	Presence *PresenceManager
	Offline  *OfflineQueue
	Rooms    *RoomService
	Messages *MessageService

	users     dao.UserRepository
	follows   dao.FollowRepository
	nicknames NicknameResolver
	broker    MessageBroker
}

// NewServer wires the chat core. The broker mode comes from cfg.
func NewServer(cfg *config.BrokerConfig, repos *dao.Repositories, nicknames NicknameResolver) (*Server, error) {
	registry := NewRegistry()
	messages := NewMessageService(repos.Log, repos.Room)
	s := &Server{
		Registry: registry,
		Presence: NewPresenceManager(registry, repos.Follow, nicknames),
		Offline:  NewOfflineQueue(),
		Rooms:    NewRoomService(repos.Room, repos.Member, messages),
		Messages: messages,
		users:     repos.User,
		follows:   repos.Follow,
		nicknames: nicknames,
	}
	broker, err := NewBroker(cfg, s.deliverBroadcast)
	if err != nil {
		return nil, err
	}
	s.broker = broker
	return s, nil
}

// Start runs the broker delivery loop. Blocks; run in a goroutine.
func (s *Server) Start() {
	s.broker.Start()
}

// Close stops the broker and drops every live connection.
func (s *Server) Close() error {
	err := s.broker.Close()
	s.Registry.CloseAll()
	return err
}

// HandleRoomMessage logs a room message and hands it to the broker for
// delivery. Membership of the room at delivery time decides who receives
// it.
func (s *Server) HandleRoomMessage(ctx context.Context, roomID, from, text string) error {
	nickname := s.nicknames.Nickname(from)
	if _, err := s.Messages.Append(roomID, model.KindMessage, from, nickname, "", text); err != nil {
		return err
	}
	return s.broker.Publish(ctx, BroadcastRequest{
		RoomID:       roomID,
		From:         from,
		FromNickname: nickname,
		Text:         text,
	})
}

// deliverBroadcast fans one logged room message out to the live
// connections of the room's current members.
func (s *Server) deliverBroadcast(req BroadcastRequest) {
	event := respond.MessageEvent{
		Type:         "message",
		Ts:           respond.NowTs(),
		Room:         req.RoomID,
		From:         req.From,
		FromNickname: req.FromNickname,
		Text:         req.Text,
	}
	s.BroadcastToRoom(req.RoomID, event)
}

// BroadcastToRoom enqueues the event on every live connection of the
// room's current members.
func (s *Server) BroadcastToRoom(roomID string, event any) {
	members, err := s.Rooms.MembersOf(roomID)
	if err != nil {
		zap.L().Error("load room members failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	for _, member := range members {
		for _, c := range s.Registry.ConnectionsOf(member) {
			c.Enqueue(event)
		}
	}
}

// SendToUser enqueues an event on all of the user's live connections.
func (s *Server) SendToUser(username string, event any) {
	for _, c := range s.Registry.ConnectionsOf(username) {
		c.Enqueue(event)
	}
}

// SendDirect delivers a room-scoped DM. Both parties must be members of
// the room; an offline recipient gets the DM queued instead. The DM is
// logged on success either way and never touches the room's
// last-activity cache.
func (s *Server) SendDirect(roomID, from, to, text string) (status string, err error) {
	if ok, err := s.Rooms.IsMember(roomID, from); err != nil {
		return "", err
	} else if !ok {
		return StatusSenderNotInRoom, nil
	}
	if ok, err := s.Rooms.IsMember(roomID, to); err != nil {
		return "", err
	} else if !ok {
		return StatusRecipientNotInRoom, nil
	}

	nickname := s.nicknames.Nickname(from)
	entry, err := s.Messages.Append(roomID, model.KindDirect, from, nickname, to, text)
	if err != nil {
		return "", err
	}

	conns := s.Registry.ConnectionsOf(to)
	if len(conns) == 0 {
		s.Offline.Enqueue(to, QueuedDM{
			Room:         roomID,
			From:         from,
			FromNickname: nickname,
			Text:         text,
			At:           entry.Ts,
		})
		return StatusQueued, nil
	}

	event := respond.DirectMessageEvent{
		Type:         "dm",
		Ts:           respond.EventTs(entry.Ts),
		Room:         roomID,
		From:         from,
		FromNickname: nickname,
		To:           to,
		Text:         text,
	}
	for _, c := range conns {
		c.Enqueue(event)
	}
	return StatusDelivered, nil
}

// FlushOffline replays the user's queued DMs to their live connections in
// enqueue order. When no connection survives by flush time the batch goes
// back to the queue.
func (s *Server) FlushOffline(username string) {
	queued := s.Offline.Drain(username)
	if len(queued) == 0 {
		return
	}
	conns := s.Registry.ConnectionsOf(username)
	if len(conns) == 0 {
		s.Offline.Requeue(username, queued)
		return
	}
	for _, dm := range queued {
		event := respond.OfflineDirectMessageEvent{
			Type:         "offline_dm",
			Ts:           respond.NowTs(),
			Room:         dm.Room,
			From:         dm.From,
			FromNickname: dm.FromNickname,
			Text:         dm.Text,
			At:           respond.EventTs(dm.At),
		}
		for _, c := range conns {
			c.Enqueue(event)
		}
	}
}

// Follow records a directed follow edge. Both parties must be registered
// users; the edge is idempotent.
func (s *Server) Follow(from, to string) (status string, err error) {
	if from == to {
		return StatusSelf, nil
	}
	for _, username := range []string{from, to} {
		if _, err := s.users.FindByUsername(username); err != nil {
			if errorx.IsNotFound(err) {
				return StatusNotRegistered, nil
			}
			return "", err
		}
	}
	exists, err := s.follows.Exists(from, to)
	if err != nil {
		return "", err
	}
	if exists {
		return StatusAlready, nil
	}
	if err := s.follows.Create(from, to); err != nil {
		return "", err
	}
	return StatusFollowed, nil
}

// Unfollow removes the edge when it exists.
func (s *Server) Unfollow(from, to string) (status string, err error) {
	removed, err := s.follows.Delete(from, to)
	if err != nil {
		return "", err
	}
	if removed {
		return StatusUnfollowed, nil
	}
	return StatusNotFollowing, nil
}

// FollowingList resolves the user's followees with display names.
func (s *Server) FollowingList(username string) ([]respond.UserBrief, error) {
	names, err := s.follows.Following(username)
	if err != nil {
		return nil, err
	}
	return s.toBriefs(names), nil
}

// FollowersList resolves the user's followers with display names.
func (s *Server) FollowersList(username string) ([]respond.UserBrief, error) {
	names, err := s.follows.Followers(username)
	if err != nil {
		return nil, err
	}
	return s.toBriefs(names), nil
}

func (s *Server) toBriefs(usernames []string) []respond.UserBrief {
	briefs := make([]respond.UserBrief, 0, len(usernames))
	for _, username := range usernames {
		briefs = append(briefs, respond.UserBrief{
			Username: username,
			Nickname: s.nicknames.Nickname(username),
		})
	}
	return briefs
}

// Nickname exposes display-name resolution to the session layer.
func (s *Server) Nickname(username string) string {
	return s.nicknames.Nickname(username)
}
