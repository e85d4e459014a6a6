package chat

import (
	"time"

	"klav_chat_server/internal/dao"
	"klav_chat_server/internal/dto/respond"
	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/constants"
	"klav_chat_server/pkg/errorx"
)

// MessageService appends log entries and serves history queries. All
// timestamps are assigned server-side in UTC.
type MessageService struct {
	logs  dao.LogRepository
	rooms dao.RoomRepository
}

func NewMessageService(logs dao.LogRepository, rooms dao.RoomRepository) *MessageService {
	return &MessageService{logs: logs, rooms: rooms}
}

// Append records one log entry and refreshes the room's last-activity
// cache. Direct messages are logged but never surface in the cache.
// Returns the stored entry with its assigned timestamp.
func (s *MessageService) Append(roomID, kind, fromUser, fromNickname, toUser, text string) (*model.ChatLog, error) {
	if fromNickname == "" {
		fromNickname = fromUser
	}
	entry := &model.ChatLog{
		RoomID:       roomID,
		Ts:           time.Now().UTC(),
		Kind:         kind,
		FromUser:     fromUser,
		FromNickname: fromNickname,
		ToUser:       toUser,
		Text:         text,
	}
	if err := s.logs.Append(entry); err != nil {
		return nil, err
	}
	if kind != model.KindDirect {
		err := s.rooms.UpdateLast(roomID, model.RoomLast{
			Text: text,
			From: fromUser,
			Kind: kind,
			Ts:   entry.Ts,
		})
		if err != nil && !errorx.IsNotFound(err) {
			return nil, err
		}
	}
	return entry, nil
}

// AppendSystem records a room system notice.
func (s *MessageService) AppendSystem(roomID, text string) error {
	_, err := s.Append(roomID, model.KindSystem, constants.SystemUser, constants.SystemUser, "", text)
	return err
}

// History returns up to limit entries in ascending timestamp order,
// bounded by the optional exclusive before/after timestamps. Bounds are
// RFC 3339 strings; malformed ones fail with an invalid-parameter error.
func (s *MessageService) History(roomID string, limit int, before, after string) ([]respond.HistoryItem, error) {
	if limit <= 0 {
		limit = constants.DEFAULT_HISTORY_LIMIT
	}
	beforeTs, err := parseBound(before)
	if err != nil {
		return nil, err
	}
	afterTs, err := parseBound(after)
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.History(roomID, limit, beforeTs, afterTs)
	if err != nil {
		return nil, err
	}
	items := make([]respond.HistoryItem, 0, len(logs))
	for _, entry := range logs {
		items = append(items, respond.HistoryItem{
			Ts:           respond.EventTs(entry.Ts),
			Kind:         entry.Kind,
			Room:         entry.RoomID,
			From:         entry.FromUser,
			FromNickname: entry.FromNickname,
			Text:         entry.Text,
			To:           entry.ToUser,
		})
	}
	return items, nil
}

func parseBound(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, value)
	}
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeInvalidParam, "bad timestamp %q", value)
	}
	utc := ts.UTC()
	return &utc, nil
}
