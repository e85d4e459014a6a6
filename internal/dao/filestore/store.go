// Package filestore implements the dao repository interfaces on JSON state
// files. It mirrors the legacy file-backed deployment: room membership and
// logs in chat_state.json, registered users in users.json, follow edges in
// friends_state.json. Writes go through a temp file and an atomic rename.
//
// Opening a state directory performs a one-time idempotent migration of
// legacy name-keyed room records to id-keyed records; steady-state request
// handling never sees the old format.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/constants"

	"go.uber.org/zap"
)

const (
	stateFile   = "chat_state.json"
	usersFile   = "users.json"
	friendsFile = "friends_state.json"
)

type userRecord struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Nickname  string    `json:"nickname"`
	Extra     string    `json:"extra,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type lastRecord struct {
	Text string `json:"text"`
	From string `json:"from"`
	Kind string `json:"kind"`
	Ts   string `json:"ts"`
}

type roomRecord struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CreatedAt string      `json:"created_at"`
	Last      *lastRecord `json:"last"`
}

type logRecord struct {
	Ts           string `json:"ts"`
	Kind         string `json:"kind"`
	Room         string `json:"room"`
	From         string `json:"from"`
	FromNickname string `json:"from_nickname,omitempty"`
	To           string `json:"to,omitempty"`
	Text         string `json:"text"`
}

type chatState struct {
	RoomMembers map[string][]string        `json:"room_members"`
	ChatLogs    map[string][]logRecord     `json:"chat_logs"`
	RoomInfos   map[string]json.RawMessage `json:"room_infos"`
}

// Store owns the in-memory state and its persistence. All mutation goes
// through the repository types in repositories.go under a single lock;
// the lock is never held across file I/O of an unrelated save.
type Store struct {
	mu  sync.Mutex
	dir string

	users       map[string]*userRecord
	roomInfos   map[string]*roomRecord
	roomMembers map[string]map[string]time.Time // roomID -> username -> joined at
	chatLogs    map[string][]logRecord
	following   map[string]map[string]bool // follower -> followee set
}

// Open loads (and if necessary migrates) the state directory.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: mkdir %s: %w", dir, err)
	}
	s := &Store{
		dir:         dir,
		users:       make(map[string]*userRecord),
		roomInfos:   make(map[string]*roomRecord),
		roomMembers: make(map[string]map[string]time.Time),
		chatLogs:    make(map[string][]logRecord),
		following:   make(map[string]map[string]bool),
	}
	if err := s.loadUsers(); err != nil {
		return nil, err
	}
	if err := s.loadFriends(); err != nil {
		return nil, err
	}
	migrated, err := s.loadChatState()
	if err != nil {
		return nil, err
	}
	if migrated {
		// Rewrite immediately so the migration never runs twice.
		if err := s.saveChatState(); err != nil {
			return nil, err
		}
		zap.L().Info("filestore: migrated legacy name-keyed rooms", zap.Int("rooms", len(s.roomInfos)))
	}
	return s, nil
}

func (s *Store) loadUsers() error {
	raw, err := os.ReadFile(filepath.Join(s.dir, usersFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("filestore: read users: %w", err)
	}
	var data struct {
		Users map[string]*userRecord `json:"users"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("filestore: parse users: %w", err)
	}
	if data.Users != nil {
		s.users = data.Users
	}
	return nil
}

func (s *Store) loadFriends() error {
	raw, err := os.ReadFile(filepath.Join(s.dir, friendsFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("filestore: read friends: %w", err)
	}
	var data struct {
		Following map[string][]string `json:"following"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("filestore: parse friends: %w", err)
	}
	for follower, followees := range data.Following {
		set := make(map[string]bool, len(followees))
		for _, f := range followees {
			set[f] = true
		}
		s.following[follower] = set
	}
	return nil
}

// loadChatState reads chat_state.json. It reports whether a legacy
// name-keyed file was migrated to the id-keyed format.
func (s *Store) loadChatState() (bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, stateFile))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("filestore: read state: %w", err)
	}
	var data chatState
	if err := json.Unmarshal(raw, &data); err != nil {
		return false, fmt.Errorf("filestore: parse state: %w", err)
	}

	// The current format stores roomRecord values carrying an "id" field.
	isCurrent := false
	for _, v := range data.RoomInfos {
		var rec roomRecord
		if err := json.Unmarshal(v, &rec); err == nil && rec.ID != "" {
			isCurrent = true
			break
		}
	}

	if isCurrent {
		for rid, v := range data.RoomInfos {
			var rec roomRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return false, fmt.Errorf("filestore: parse room %s: %w", rid, err)
			}
			s.roomInfos[rid] = &rec
		}
		for rid, members := range data.RoomMembers {
			s.roomMembers[rid] = memberSet(members)
		}
		for rid, logs := range data.ChatLogs {
			s.chatLogs[rid] = truncateLogs(normalizeLogs(rid, logs))
		}
		return false, nil
	}

	// Legacy format: room_members and chat_logs keyed by room name, no
	// usable room_infos. Assign fresh ids and rewrite everything.
	nameSet := make(map[string]bool)
	for name := range data.RoomMembers {
		nameSet[name] = true
	}
	for name := range data.ChatLogs {
		nameSet[name] = true
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]string, len(names))
	for _, name := range names {
		rid := model.NewRoomID()
		for s.roomInfos[rid] != nil {
			rid = model.NewRoomID()
		}
		nameToID[name] = rid
		s.roomInfos[rid] = &roomRecord{
			ID:        rid,
			Name:      name,
			CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		}
	}
	for name, members := range data.RoomMembers {
		s.roomMembers[nameToID[name]] = memberSet(members)
	}
	for name, logs := range data.ChatLogs {
		rid := nameToID[name]
		s.chatLogs[rid] = truncateLogs(normalizeLogs(rid, logs))
	}

	// Backfill the last-activity cache: prefer the newest chat message,
	// fall back to the newest system entry. DMs are never eligible.
	for rid, logs := range s.chatLogs {
		var last *logRecord
		for i := len(logs) - 1; i >= 0; i-- {
			if logs[i].Kind == model.KindMessage {
				last = &logs[i]
				break
			}
		}
		if last == nil {
			for i := len(logs) - 1; i >= 0; i-- {
				if logs[i].Kind == model.KindSystem {
					last = &logs[i]
					break
				}
			}
		}
		if last != nil {
			s.roomInfos[rid].Last = &lastRecord{
				Text: last.Text,
				From: last.From,
				Kind: last.Kind,
				Ts:   last.Ts,
			}
		}
	}
	return true, nil
}

func memberSet(members []string) map[string]time.Time {
	set := make(map[string]time.Time, len(members))
	now := time.Now().UTC()
	for _, m := range members {
		set[m] = now
	}
	return set
}

func normalizeLogs(rid string, logs []logRecord) []logRecord {
	out := make([]logRecord, 0, len(logs))
	for _, it := range logs {
		if it.Kind == "" {
			it.Kind = model.KindMessage
		}
		it.Room = rid
		out = append(out, it)
	}
	return out
}

func truncateLogs(logs []logRecord) []logRecord {
	if over := len(logs) - constants.MAX_LOGS_PER_ROOM; over > 0 {
		logs = append([]logRecord(nil), logs[over:]...)
	}
	return logs
}

// saveChatState, saveUsers and saveFriends snapshot under the lock is the
// caller's responsibility; these marshal and atomically replace a file.
func (s *Store) saveChatState() error {
	s.mu.Lock()
	data := chatState{
		RoomMembers: make(map[string][]string, len(s.roomMembers)),
		ChatLogs:    make(map[string][]logRecord, len(s.chatLogs)),
		RoomInfos:   make(map[string]json.RawMessage, len(s.roomInfos)),
	}
	for rid, members := range s.roomMembers {
		names := make([]string, 0, len(members))
		for m := range members {
			names = append(names, m)
		}
		sort.Strings(names)
		data.RoomMembers[rid] = names
	}
	for rid, logs := range s.chatLogs {
		data.ChatLogs[rid] = append([]logRecord(nil), logs...)
	}
	for rid, info := range s.roomInfos {
		raw, err := json.Marshal(info)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("filestore: marshal room %s: %w", rid, err)
		}
		data.RoomInfos[rid] = raw
	}
	s.mu.Unlock()
	return s.writeFile(stateFile, data)
}

func (s *Store) saveUsers() error {
	s.mu.Lock()
	data := struct {
		Users map[string]*userRecord `json:"users"`
	}{Users: make(map[string]*userRecord, len(s.users))}
	for name, rec := range s.users {
		cp := *rec
		data.Users[name] = &cp
	}
	s.mu.Unlock()
	return s.writeFile(usersFile, data)
}

func (s *Store) saveFriends() error {
	s.mu.Lock()
	data := struct {
		Following map[string][]string `json:"following"`
	}{Following: make(map[string][]string, len(s.following))}
	for follower, set := range s.following {
		followees := make([]string, 0, len(set))
		for f := range set {
			followees = append(followees, f)
		}
		sort.Strings(followees)
		data.Following[follower] = followees
	}
	s.mu.Unlock()
	return s.writeFile(friendsFile, data)
}

func (s *Store) writeFile(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: marshal %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, "state_*.json")
	if err != nil {
		return fmt.Errorf("filestore: temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: replace %s: %w", name, err)
	}
	return nil
}

func parseTs(ts string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTs(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
