package chat

import (
	"strings"
	"testing"

	"klav_chat_server/internal/model"
)

func newRoomFixtures(t *testing.T) *RoomService {
	t.Helper()
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)
	return NewRoomService(repos.Room, repos.Member, messages)
}

func TestCreateRoomGeneratesOpaqueID(t *testing.T) {
	rooms := newRoomFixtures(t)
	room, err := rooms.CreateRoom("lobby", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(room.RoomID, "r_") || len(room.RoomID) != 10 {
		t.Fatalf("unexpected room id %q", room.RoomID)
	}
	if room.Name != "lobby" {
		t.Fatalf("unexpected name %q", room.Name)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	rooms := newRoomFixtures(t)
	room, err := rooms.CreateRoom("lobby", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}

	newly, err := rooms.Join(room.RoomID, "bob", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if !newly {
		t.Fatal("first join should be new")
	}
	newly, err = rooms.Join(room.RoomID, "bob", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if newly {
		t.Fatal("re-join must be a no-op")
	}
	members, err := rooms.MembersOf(room.RoomID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 {
		t.Fatalf("expected one member, got %v", members)
	}
}

func TestJoinUnknownIDCreatesPlaceholderRoom(t *testing.T) {
	rooms := newRoomFixtures(t)
	newly, err := rooms.Join("r_deadbeef", "bob", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if !newly {
		t.Fatal("join should succeed on an unknown id")
	}
	summaries, err := rooms.Summary("bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].ID != "r_deadbeef" || summaries[0].Name != "r_deadbeef" {
		t.Fatalf("placeholder room missing: %+v", summaries)
	}
}

func TestJoinByNameFindsOrCreates(t *testing.T) {
	rooms := newRoomFixtures(t)

	first, err := rooms.JoinByName("lobby", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	second, err := rooms.JoinByName("lobby", "bob", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("both joins should land in one room: %q vs %q", first, second)
	}
	members, err := rooms.MembersOf(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
}

func TestJoinByNameResolvesOldestDuplicate(t *testing.T) {
	rooms := newRoomFixtures(t)
	oldest, err := rooms.CreateRoom("dup", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rooms.CreateRoom("dup", "bob", "Bob"); err != nil {
		t.Fatal(err)
	}

	got, err := rooms.JoinByName("dup", "carol", "Carol")
	if err != nil {
		t.Fatal(err)
	}
	if got != oldest.RoomID {
		t.Fatalf("expected oldest room %q, joined %q", oldest.RoomID, got)
	}
}

func TestLeaveOnlyLogsConfirmedRemovals(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)
	rooms := NewRoomService(repos.Room, repos.Member, messages)

	room, err := rooms.CreateRoom("lobby", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rooms.Join(room.RoomID, "bob", "Bob"); err != nil {
		t.Fatal(err)
	}
	countBefore, err := repos.Log.CountByRoom(room.RoomID)
	if err != nil {
		t.Fatal(err)
	}

	removed, err := rooms.Leave(room.RoomID, "bob", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Fatal("member leave should report removal")
	}

	// A second leave must stay silent: no flag, no log entry.
	removed, err = rooms.Leave(room.RoomID, "bob", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Fatal("repeated leave must not report removal")
	}

	countAfter, err := repos.Log.CountByRoom(room.RoomID)
	if err != nil {
		t.Fatal(err)
	}
	if countAfter != countBefore+1 {
		t.Fatalf("expected exactly one left entry, logs went %d -> %d", countBefore, countAfter)
	}
}

func TestSummaryOrdersByLastActivity(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)
	rooms := NewRoomService(repos.Room, repos.Member, messages)

	quiet, err := rooms.CreateRoom("quiet", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	busy, err := rooms.CreateRoom("busy", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{quiet.RoomID, busy.RoomID} {
		if _, err := rooms.Join(id, "alice", "Alice"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := messages.Append(busy.RoomID, model.KindMessage, "alice", "Alice", "", "hi"); err != nil {
		t.Fatal(err)
	}

	summaries, err := rooms.Summary("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(summaries))
	}
	if summaries[0].ID != busy.RoomID {
		t.Fatalf("most recently active room should sort first, got %q", summaries[0].ID)
	}
	if summaries[0].Last == nil || summaries[0].Last.Text != "hi" {
		t.Fatalf("last-activity summary missing: %+v", summaries[0].Last)
	}
}

func TestSummaryExcludesDirectMessages(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)
	rooms := NewRoomService(repos.Room, repos.Member, messages)

	room, err := rooms.CreateRoom("lobby", "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rooms.Join(room.RoomID, "alice", "Alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := messages.Append(room.RoomID, model.KindDirect, "alice", "Alice", "bob", "psst"); err != nil {
		t.Fatal(err)
	}

	summaries, err := rooms.Summary("alice")
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].Last != nil && summaries[0].Last.Text == "psst" {
		t.Fatal("direct messages must not surface in the room summary")
	}
}
