package filestore

import (
	"database/sql"
	"sort"
	"time"

	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/errorx"
)

// Repositories bundles the file-backed repository set over one Store.
type Repositories struct {
	Store  *Store
	User   *userRepository
	Room   *roomRepository
	Member *memberRepository
	Log    *logRepository
	Follow *followRepository
}

// New wires the repository set onto an open store.
func New(s *Store) *Repositories {
	return &Repositories{
		Store:  s,
		User:   &userRepository{s: s},
		Room:   &roomRepository{s: s},
		Member: &memberRepository{s: s},
		Log:    &logRepository{s: s},
		Follow: &followRepository{s: s},
	}
}

// Ping always succeeds: the state lives in process memory.
func (r *Repositories) Ping() error { return nil }

// Close flushes all state files.
func (r *Repositories) Close() error {
	if err := r.Store.saveChatState(); err != nil {
		return err
	}
	if err := r.Store.saveUsers(); err != nil {
		return err
	}
	return r.Store.saveFriends()
}

// ---------- users ----------

type userRepository struct {
	s *Store
}

func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	r.s.mu.Lock()
	rec, ok := r.s.users[username]
	if !ok {
		r.s.mu.Unlock()
		return nil, errorx.Newf(errorx.CodeNotFound, "user %s not found", username)
	}
	user := recordToUser(rec)
	r.s.mu.Unlock()
	return user, nil
}

func (r *userRepository) Create(user *model.User) error {
	r.s.mu.Lock()
	if _, ok := r.s.users[user.Username]; ok {
		r.s.mu.Unlock()
		return errorx.Newf(errorx.CodeDBError, "user %s already exists", user.Username)
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	r.s.users[user.Username] = &userRecord{
		Username:  user.Username,
		Password:  user.Password,
		Nickname:  user.Nickname,
		Extra:     user.Extra,
		CreatedAt: createdAt,
	}
	r.s.mu.Unlock()
	return r.s.saveUsers()
}

func (r *userRepository) UpdateNickname(username, nickname string) error {
	r.s.mu.Lock()
	rec, ok := r.s.users[username]
	if ok {
		rec.Nickname = nickname
	}
	r.s.mu.Unlock()
	if !ok {
		return nil
	}
	return r.s.saveUsers()
}

func recordToUser(rec *userRecord) *model.User {
	user := &model.User{
		Username: rec.Username,
		Nickname: rec.Nickname,
		Password: rec.Password,
		Extra:    rec.Extra,
	}
	user.CreatedAt = rec.CreatedAt
	return user
}

// ---------- rooms ----------

type roomRepository struct {
	s *Store
}

func (r *roomRepository) FindByRoomID(roomID string) (*model.Room, error) {
	r.s.mu.Lock()
	rec, ok := r.s.roomInfos[roomID]
	if !ok {
		r.s.mu.Unlock()
		return nil, errorx.Newf(errorx.CodeNotFound, "room %s not found", roomID)
	}
	room := recordToRoom(rec)
	r.s.mu.Unlock()
	return room, nil
}

// FindFirstByName resolves a display name to the oldest room carrying it.
// Names are non-unique; the deterministic first match keeps legacy
// name-based joins stable across restarts.
func (r *roomRepository) FindFirstByName(name string) (*model.Room, error) {
	r.s.mu.Lock()
	var best *roomRecord
	for _, rec := range r.s.roomInfos {
		if rec.Name != name {
			continue
		}
		if best == nil || rec.CreatedAt < best.CreatedAt ||
			(rec.CreatedAt == best.CreatedAt && rec.ID < best.ID) {
			best = rec
		}
	}
	if best == nil {
		r.s.mu.Unlock()
		return nil, errorx.Newf(errorx.CodeNotFound, "room named %s not found", name)
	}
	room := recordToRoom(best)
	r.s.mu.Unlock()
	return room, nil
}

func (r *roomRepository) Create(room *model.Room) error {
	r.s.mu.Lock()
	if _, ok := r.s.roomInfos[room.RoomID]; ok {
		r.s.mu.Unlock()
		return errorx.Newf(errorx.CodeDBError, "room %s already exists", room.RoomID)
	}
	createdAt := room.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	r.s.roomInfos[room.RoomID] = &roomRecord{
		ID:        room.RoomID,
		Name:      room.Name,
		CreatedAt: formatTs(createdAt),
	}
	r.s.mu.Unlock()
	return r.s.saveChatState()
}

func (r *roomRepository) UpdateLast(roomID string, last model.RoomLast) error {
	r.s.mu.Lock()
	rec, ok := r.s.roomInfos[roomID]
	if ok {
		rec.Last = &lastRecord{
			Text: last.Text,
			From: last.From,
			Kind: last.Kind,
			Ts:   formatTs(last.Ts),
		}
	}
	r.s.mu.Unlock()
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "room %s not found", roomID)
	}
	return r.s.saveChatState()
}

func (r *roomRepository) FindByRoomIDs(roomIDs []string) ([]model.Room, error) {
	r.s.mu.Lock()
	rooms := make([]model.Room, 0, len(roomIDs))
	for _, rid := range roomIDs {
		if rec, ok := r.s.roomInfos[rid]; ok {
			rooms = append(rooms, *recordToRoom(rec))
		}
	}
	r.s.mu.Unlock()
	return rooms, nil
}

func recordToRoom(rec *roomRecord) *model.Room {
	room := &model.Room{
		RoomID: rec.ID,
		Name:   rec.Name,
	}
	room.CreatedAt = parseTs(rec.CreatedAt)
	if rec.Last != nil {
		room.LastMessageText = rec.Last.Text
		room.LastMessageFrom = rec.Last.From
		room.LastMessageKind = rec.Last.Kind
		room.LastMessageTs = sql.NullTime{Time: parseTs(rec.Last.Ts), Valid: true}
	}
	return room
}

// ---------- membership ----------

type memberRepository struct {
	s *Store
}

func (r *memberRepository) Add(member *model.RoomMember) error {
	r.s.mu.Lock()
	set, ok := r.s.roomMembers[member.RoomID]
	if !ok {
		set = make(map[string]time.Time)
		r.s.roomMembers[member.RoomID] = set
	}
	set[member.Username] = time.Now().UTC()
	r.s.mu.Unlock()
	return r.s.saveChatState()
}

func (r *memberRepository) Remove(roomID, username string) (bool, error) {
	r.s.mu.Lock()
	set := r.s.roomMembers[roomID]
	_, existed := set[username]
	if existed {
		delete(set, username)
		if len(set) == 0 {
			delete(r.s.roomMembers, roomID)
		}
	}
	r.s.mu.Unlock()
	if !existed {
		return false, nil
	}
	return true, r.s.saveChatState()
}

func (r *memberRepository) Exists(roomID, username string) (bool, error) {
	r.s.mu.Lock()
	_, ok := r.s.roomMembers[roomID][username]
	r.s.mu.Unlock()
	return ok, nil
}

func (r *memberRepository) MembersOf(roomID string) ([]string, error) {
	r.s.mu.Lock()
	set := r.s.roomMembers[roomID]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	r.s.mu.Unlock()
	sort.Strings(members)
	return members, nil
}

func (r *memberRepository) RoomsOf(username string) ([]string, error) {
	r.s.mu.Lock()
	var roomIDs []string
	for rid, set := range r.s.roomMembers {
		if _, ok := set[username]; ok {
			roomIDs = append(roomIDs, rid)
		}
	}
	r.s.mu.Unlock()
	sort.Strings(roomIDs)
	return roomIDs, nil
}

// ---------- logs ----------

type logRepository struct {
	s *Store
}

func (r *logRepository) Append(entry *model.ChatLog) error {
	rec := logRecord{
		Ts:           formatTs(entry.Ts),
		Kind:         entry.Kind,
		Room:         entry.RoomID,
		From:         entry.FromUser,
		FromNickname: entry.FromNickname,
		To:           entry.ToUser,
		Text:         entry.Text,
	}
	r.s.mu.Lock()
	logs := append(r.s.chatLogs[entry.RoomID], rec)
	r.s.chatLogs[entry.RoomID] = truncateLogs(logs)
	r.s.mu.Unlock()
	return r.s.saveChatState()
}

func (r *logRepository) History(roomID string, limit int, before, after *time.Time) ([]model.ChatLog, error) {
	r.s.mu.Lock()
	logs := append([]logRecord(nil), r.s.chatLogs[roomID]...)
	r.s.mu.Unlock()

	var filtered []model.ChatLog
	for _, rec := range logs {
		ts := parseTs(rec.Ts)
		if after != nil && !ts.After(*after) {
			continue
		}
		if before != nil && !ts.Before(*before) {
			continue
		}
		filtered = append(filtered, model.ChatLog{
			RoomID:       rec.Room,
			Ts:           ts,
			Kind:         rec.Kind,
			FromUser:     rec.From,
			FromNickname: rec.FromNickname,
			ToUser:       rec.To,
			Text:         rec.Text,
		})
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Ts.Before(filtered[j].Ts)
	})
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

func (r *logRepository) CountByRoom(roomID string) (int64, error) {
	r.s.mu.Lock()
	n := len(r.s.chatLogs[roomID])
	r.s.mu.Unlock()
	return int64(n), nil
}

// ---------- follows ----------

type followRepository struct {
	s *Store
}

func (r *followRepository) Create(follower, followee string) error {
	r.s.mu.Lock()
	set, ok := r.s.following[follower]
	if !ok {
		set = make(map[string]bool)
		r.s.following[follower] = set
	}
	set[followee] = true
	r.s.mu.Unlock()
	return r.s.saveFriends()
}

func (r *followRepository) Exists(follower, followee string) (bool, error) {
	r.s.mu.Lock()
	ok := r.s.following[follower][followee]
	r.s.mu.Unlock()
	return ok, nil
}

func (r *followRepository) Delete(follower, followee string) (bool, error) {
	r.s.mu.Lock()
	set := r.s.following[follower]
	existed := set[followee]
	if existed {
		delete(set, followee)
		if len(set) == 0 {
			delete(r.s.following, follower)
		}
	}
	r.s.mu.Unlock()
	if !existed {
		return false, nil
	}
	return true, r.s.saveFriends()
}

func (r *followRepository) Following(username string) ([]string, error) {
	r.s.mu.Lock()
	set := r.s.following[username]
	followees := make([]string, 0, len(set))
	for f := range set {
		followees = append(followees, f)
	}
	r.s.mu.Unlock()
	sort.Strings(followees)
	return followees, nil
}

func (r *followRepository) Followers(username string) ([]string, error) {
	r.s.mu.Lock()
	var followers []string
	for follower, set := range r.s.following {
		if set[username] {
			followers = append(followers, follower)
		}
	}
	r.s.mu.Unlock()
	sort.Strings(followers)
	return followers, nil
}
