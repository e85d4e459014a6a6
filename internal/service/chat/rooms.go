package chat

import (
	"fmt"
	"sort"

	"klav_chat_server/internal/dao"
	"klav_chat_server/internal/dto/respond"
	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/errorx"
)

// RoomService manages rooms and memberships. Room names are not unique;
// name lookups resolve to the oldest room carrying the name.
type RoomService struct {
	rooms    dao.RoomRepository
	members  dao.MemberRepository
	messages *MessageService
}

func NewRoomService(rooms dao.RoomRepository, members dao.MemberRepository, messages *MessageService) *RoomService {
	return &RoomService{rooms: rooms, members: members, messages: messages}
}

// CreateRoom creates a room with a generated id and records a system log
// entry crediting the creator. Duplicate names are allowed.
func (s *RoomService) CreateRoom(name, creator, creatorNickname string) (*model.Room, error) {
	room := &model.Room{
		RoomID: model.NewRoomID(),
		Name:   name,
	}
	if err := s.rooms.Create(room); err != nil {
		return nil, err
	}
	err := s.messages.AppendSystem(room.RoomID, fmt.Sprintf("%s created room %q", creatorNickname, name))
	if err != nil {
		return nil, err
	}
	return room, nil
}

// ensureRoom creates a placeholder room when the id is unknown, so joins
// by id never fail on a dangling identifier. The placeholder's name is
// the id itself.
func (s *RoomService) ensureRoom(roomID string) error {
	_, err := s.rooms.FindByRoomID(roomID)
	if err == nil {
		return nil
	}
	if !errorx.IsNotFound(err) {
		return err
	}
	return s.rooms.Create(&model.Room{RoomID: roomID, Name: roomID})
}

// Join adds the user to the room, creating the room when the id is
// unknown. Reports whether the membership is new; re-joining is a no-op
// and emits no log entry.
func (s *RoomService) Join(roomID, username, nickname string) (newly bool, err error) {
	if err := s.ensureRoom(roomID); err != nil {
		return false, err
	}
	exists, err := s.members.Exists(roomID, username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.members.Add(&model.RoomMember{RoomID: roomID, Username: username}); err != nil {
		return false, err
	}
	if err := s.messages.AppendSystem(roomID, fmt.Sprintf("%s joined", nickname)); err != nil {
		return false, err
	}
	return true, nil
}

// JoinByName joins by display name, creating the room when no room
// carries the name yet. Returns the resolved room id.
func (s *RoomService) JoinByName(name, username, nickname string) (roomID string, err error) {
	room, err := s.rooms.FindFirstByName(name)
	if err != nil {
		if !errorx.IsNotFound(err) {
			return "", err
		}
		room, err = s.CreateRoom(name, username, nickname)
		if err != nil {
			return "", err
		}
	}
	if _, err := s.Join(room.RoomID, username, nickname); err != nil {
		return "", err
	}
	return room.RoomID, nil
}

// Leave removes the membership. The "left" log entry and the returned
// flag fire only when a membership actually existed, so repeated leaves
// stay silent.
func (s *RoomService) Leave(roomID, username, nickname string) (removed bool, err error) {
	removed, err = s.members.Remove(roomID, username)
	if err != nil || !removed {
		return removed, err
	}
	if err := s.messages.AppendSystem(roomID, fmt.Sprintf("%s left", nickname)); err != nil {
		return true, err
	}
	return true, nil
}

func (s *RoomService) IsMember(roomID, username string) (bool, error) {
	return s.members.Exists(roomID, username)
}

func (s *RoomService) MembersOf(roomID string) ([]string, error) {
	return s.members.MembersOf(roomID)
}

// Summary lists the user's rooms ordered by last activity, most recent
// first; rooms with no activity sort last.
func (s *RoomService) Summary(username string) ([]respond.RoomSummary, error) {
	roomIDs, err := s.members.RoomsOf(username)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.FindByRoomIDs(roomIDs)
	if err != nil {
		return nil, err
	}
	sortRoomsByActivity(rooms)

	items := make([]respond.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		var last *respond.RoomLastInfo
		if room.LastMessageText != "" {
			last = &respond.RoomLastInfo{
				Text: room.LastMessageText,
				From: room.LastMessageFrom,
				Kind: room.LastMessageKind,
			}
			if room.LastMessageTs.Valid {
				last.Ts = respond.EventTs(room.LastMessageTs.Time)
			}
		}
		items = append(items, respond.RoomSummary{
			ID:   room.RoomID,
			Name: room.Name,
			Last: last,
		})
	}
	return items, nil
}

func sortRoomsByActivity(rooms []model.Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i].LastMessageTs, rooms[j].LastMessageTs
		if a.Valid != b.Valid {
			return a.Valid
		}
		if !a.Valid {
			return false
		}
		return a.Time.After(b.Time)
	})
}
