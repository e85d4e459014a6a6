package chat

import (
	"context"
	"strings"

	"klav_chat_server/internal/dto/request"
	"klav_chat_server/internal/dto/respond"
	"klav_chat_server/pkg/errorx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Error codes returned on malformed commands. The connection stays open
// after any of them.
const (
	codeRoomIDOrNameRequired = "ROOM_ID_OR_NAME_REQUIRED"
	codeRoomIDRequired       = "ROOM_ID_REQUIRED"
	codeRoomIDAndToRequired  = "ROOM_ID_AND_TO_REQUIRED"
	codeFollowToRequired     = "FOLLOW_TO_REQUIRED"
	codeUnfollowToRequired   = "UNFOLLOW_TO_REQUIRED"
	codeBadRequest           = "BAD_REQUEST"
)

// HandleConnection runs one websocket session: registers the connection,
// replays queued DMs, then dispatches commands until the socket drops.
// Presence transitions fire on the user's aggregate online state, not per
// socket.
func (s *Server) HandleConnection(username string, conn *websocket.Conn) {
	client := NewClient(username, conn)
	wasOffline := s.Registry.Register(client)
	go client.writePump()

	client.Enqueue(respond.SystemTextEvent{
		Type: "system",
		Ts:   respond.NowTs(),
		Text: "welcome, " + s.Nickname(username),
	})
	s.FlushOffline(username)
	if wasOffline {
		s.Presence.NotifyTransition(username, "online")
	}
	zap.L().Info("websocket session opened",
		zap.String("username", username),
		zap.Bool("first_connection", wasOffline))

	defer func() {
		client.Close()
		s.Presence.Unsubscribe(client)
		nowOffline := s.Registry.Unregister(client)
		if nowOffline {
			s.Presence.NotifyTransition(username, "offline")
		}
		zap.L().Info("websocket session closed",
			zap.String("username", username),
			zap.Bool("last_connection", nowOffline))
	}()

	conn.SetReadLimit(1 << 20)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("websocket read failed",
					zap.String("username", username), zap.Error(err))
			}
			return
		}
		s.dispatch(client, data)
	}
}

// dispatch routes one inbound frame. Unknown command types are ignored,
// matching the tolerant intake of the protocol.
func (s *Server) dispatch(client *Client, data []byte) {
	env, err := request.DecodeCommand(data)
	if err != nil {
		client.Enqueue(errorEvent(codeBadRequest))
		return
	}

	switch env.Type {
	case "create_room":
		s.onCreateRoom(client, env)
	case "join":
		s.onJoin(client, env)
	case "leave":
		s.onLeave(client, env)
	case "msg":
		s.onRoomMessage(client, env)
	case "room_dm":
		s.onRoomDM(client, env)
	case "my_rooms":
		s.onMyRooms(client)
	case "history":
		s.onHistory(client, env)
	case "friend_follow":
		s.onFollow(client, env)
	case "friend_unfollow":
		s.onUnfollow(client, env)
	case "following_list":
		s.onFollowingList(client)
	case "followers_list":
		s.onFollowersList(client)
	case "get_online_friends":
		s.onOnlineFriends(client)
	case "presence_friends_subscribe":
		s.Presence.Subscribe(client)
		s.onOnlineFriends(client)
	case "presence_friends_unsubscribe":
		s.Presence.Unsubscribe(client)
	default:
		zap.L().Debug("ignoring unknown command",
			zap.String("username", client.Username), zap.String("type", env.Type))
	}
}

func (s *Server) onCreateRoom(client *Client, env *request.CommandEnvelope) {
	var req request.CreateRoomRequest
	if err := env.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		client.Enqueue(respond.CreateRoomAckEvent{
			Type: "create_room_ack", Ts: respond.NowTs(), Status: "INVALID",
		})
		return
	}
	name := strings.TrimSpace(req.Name)
	room, err := s.Rooms.CreateRoom(name, client.Username, s.Nickname(client.Username))
	if err != nil {
		s.reportError(client, "create_room", err)
		return
	}
	client.Enqueue(respond.CreateRoomAckEvent{
		Type:   "create_room_ack",
		Ts:     respond.NowTs(),
		Status: "CREATED",
		RoomID: room.RoomID,
		Name:   room.Name,
	})
}

func (s *Server) onJoin(client *Client, env *request.CommandEnvelope) {
	var req request.JoinRoomRequest
	if err := env.Bind(&req); err != nil {
		client.Enqueue(errorEvent(codeRoomIDOrNameRequired))
		return
	}
	nickname := s.Nickname(client.Username)

	roomID := req.RoomID
	var newly bool
	var err error
	if roomID != "" {
		newly, err = s.Rooms.Join(roomID, client.Username, nickname)
	} else {
		roomID, err = s.Rooms.JoinByName(req.Room, client.Username, nickname)
		newly = true
	}
	if err != nil {
		s.reportError(client, "join", err)
		return
	}
	if newly {
		s.BroadcastToRoom(roomID, respond.SystemRoomEvent{
			Type:         "system",
			Ts:           respond.NowTs(),
			Room:         roomID,
			Event:        "joined",
			User:         client.Username,
			UserNickname: nickname,
		})
	}
}

func (s *Server) onLeave(client *Client, env *request.CommandEnvelope) {
	var req request.LeaveRoomRequest
	if err := env.Bind(&req); err != nil {
		client.Enqueue(errorEvent(codeRoomIDRequired))
		return
	}
	roomID := req.Target()
	nickname := s.Nickname(client.Username)
	removed, err := s.Rooms.Leave(roomID, client.Username, nickname)
	if err != nil {
		s.reportError(client, "leave", err)
		return
	}
	if removed {
		s.BroadcastToRoom(roomID, respond.SystemRoomEvent{
			Type:         "system",
			Ts:           respond.NowTs(),
			Room:         roomID,
			Event:        "left",
			User:         client.Username,
			UserNickname: nickname,
		})
	}
}

func (s *Server) onRoomMessage(client *Client, env *request.CommandEnvelope) {
	var req request.RoomMessageRequest
	if err := env.Bind(&req); err != nil {
		client.Enqueue(errorEvent(codeRoomIDRequired))
		return
	}
	if err := s.HandleRoomMessage(context.Background(), req.Target(), client.Username, req.Text); err != nil {
		s.reportError(client, "msg", err)
	}
}

func (s *Server) onRoomDM(client *Client, env *request.CommandEnvelope) {
	var req request.RoomDMRequest
	if err := env.Bind(&req); err != nil {
		client.Enqueue(errorEvent(codeRoomIDAndToRequired))
		return
	}
	status, err := s.SendDirect(req.Target(), client.Username, req.To, req.Text)
	if err != nil {
		s.reportError(client, "room_dm", err)
		return
	}
	client.Enqueue(respond.DMAckEvent{
		Type:   "dm_ack",
		Ts:     respond.NowTs(),
		Room:   req.Target(),
		To:     req.To,
		Status: status,
	})
}

func (s *Server) onMyRooms(client *Client) {
	summaries, err := s.Rooms.Summary(client.Username)
	if err != nil {
		s.reportError(client, "my_rooms", err)
		return
	}
	rooms := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		rooms = append(rooms, summary.ID)
	}
	client.Enqueue(respond.MyRoomsEvent{
		Type:      "my_rooms",
		Ts:        respond.NowTs(),
		Rooms:     rooms,
		RoomsInfo: summaries,
	})
}

func (s *Server) onHistory(client *Client, env *request.CommandEnvelope) {
	var req request.HistoryRequest
	if err := env.Bind(&req); err != nil {
		client.Enqueue(errorEvent(codeRoomIDRequired))
		return
	}
	items, err := s.Messages.History(req.Target(), req.Limit, req.Before, req.After)
	if err != nil {
		s.reportError(client, "history", err)
		return
	}
	client.Enqueue(respond.HistoryEvent{
		Type:  "history",
		Ts:    respond.NowTs(),
		Room:  req.Target(),
		Items: items,
	})
}

func (s *Server) onFollow(client *Client, env *request.CommandEnvelope) {
	var req request.FollowRequest
	if err := env.Bind(&req); err != nil {
		client.Enqueue(errorEvent(codeFollowToRequired))
		return
	}
	status, err := s.Follow(client.Username, req.To)
	if err != nil {
		s.reportError(client, "friend_follow", err)
		return
	}
	client.Enqueue(respond.FollowAckEvent{
		Type:   "friend_follow_ack",
		Ts:     respond.NowTs(),
		To:     req.To,
		Status: status,
	})
	if status == StatusFollowed {
		s.SendToUser(req.To, respond.NotifyFollowedEvent{
			Type: "notify_followed",
			Ts:   respond.NowTs(),
			From: client.Username,
		})
	}
}

func (s *Server) onUnfollow(client *Client, env *request.CommandEnvelope) {
	var req request.FollowRequest
	if err := env.Bind(&req); err != nil {
		client.Enqueue(errorEvent(codeUnfollowToRequired))
		return
	}
	status, err := s.Unfollow(client.Username, req.To)
	if err != nil {
		s.reportError(client, "friend_unfollow", err)
		return
	}
	client.Enqueue(respond.FollowAckEvent{
		Type:   "friend_unfollow_ack",
		Ts:     respond.NowTs(),
		To:     req.To,
		Status: status,
	})
}

func (s *Server) onFollowingList(client *Client) {
	briefs, err := s.FollowingList(client.Username)
	if err != nil {
		s.reportError(client, "following_list", err)
		return
	}
	client.Enqueue(respond.FollowingListEvent{
		Type:      "following_list",
		Ts:        respond.NowTs(),
		Following: briefs,
	})
}

func (s *Server) onFollowersList(client *Client) {
	briefs, err := s.FollowersList(client.Username)
	if err != nil {
		s.reportError(client, "followers_list", err)
		return
	}
	client.Enqueue(respond.FollowersListEvent{
		Type:      "followers_list",
		Ts:        respond.NowTs(),
		Followers: briefs,
	})
}

func (s *Server) onOnlineFriends(client *Client) {
	users, err := s.Presence.Snapshot(client.Username)
	if err != nil {
		s.reportError(client, "get_online_friends", err)
		return
	}
	client.Enqueue(respond.OnlineFriendsEvent{
		Type:  "online_friends",
		Ts:    respond.NowTs(),
		Users: users,
	})
}

// reportError logs a command failure and tells the client. Bad input
// reports BAD_REQUEST; storage and internal failures surface as a
// generic error event.
func (s *Server) reportError(client *Client, command string, err error) {
	zap.L().Error("command failed",
		zap.String("username", client.Username),
		zap.String("command", command),
		zap.Error(err))
	if errorx.GetCode(err) == errorx.CodeInvalidParam {
		client.Enqueue(errorEvent(codeBadRequest))
		return
	}
	client.Enqueue(errorEvent("INTERNAL_ERROR"))
}

func errorEvent(code string) respond.ErrorEvent {
	return respond.ErrorEvent{Type: "error", Ts: respond.NowTs(), Code: code}
}
