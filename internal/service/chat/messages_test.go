package chat

import (
	"fmt"
	"testing"
	"time"

	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/constants"
	"klav_chat_server/pkg/errorx"
)

func TestAppendAssignsServerTimestamp(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)

	before := time.Now().UTC()
	entry, err := messages.Append("r_test0001", model.KindMessage, "alice", "", "", "hi")
	if err != nil {
		t.Fatal(err)
	}
	after := time.Now().UTC()

	if entry.Ts.Before(before) || entry.Ts.After(after) {
		t.Fatalf("timestamp %v outside append window", entry.Ts)
	}
	if entry.FromNickname != "alice" {
		t.Fatalf("empty nickname should fall back to the handle, got %q", entry.FromNickname)
	}
}

func TestAppendEnforcesRetentionCap(t *testing.T) {
	if testing.Short() {
		t.Skip("writes past the retention cap")
	}
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)

	room := "r_capped01"
	total := constants.MAX_LOGS_PER_ROOM + 5
	for i := 0; i < total; i++ {
		if _, err := messages.Append(room, model.KindMessage, "alice", "Alice", "", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	count, err := repos.Log.CountByRoom(room)
	if err != nil {
		t.Fatal(err)
	}
	if count != constants.MAX_LOGS_PER_ROOM {
		t.Fatalf("expected %d retained entries, got %d", constants.MAX_LOGS_PER_ROOM, count)
	}

	items, err := messages.History(room, 1, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Text != fmt.Sprintf("m%d", total-1) {
		t.Fatalf("newest entry should survive truncation, got %q", items[0].Text)
	}
}

func TestHistoryAscendingWithLimit(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)

	room := "r_history1"
	for i := 0; i < 5; i++ {
		if _, err := messages.Append(room, model.KindMessage, "alice", "Alice", "", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	items, err := messages.History(room, 3, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	// The most recent 3, oldest first.
	want := []string{"m2", "m3", "m4"}
	for i, item := range items {
		if item.Text != want[i] {
			t.Fatalf("position %d: want %q, got %q", i, want[i], item.Text)
		}
	}
}

func TestHistoryExclusiveBounds(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)

	room := "r_bounds01"
	var stamps []time.Time
	for i := 0; i < 3; i++ {
		entry, err := messages.Append(room, model.KindMessage, "alice", "Alice", "", fmt.Sprintf("m%d", i))
		if err != nil {
			t.Fatal(err)
		}
		stamps = append(stamps, entry.Ts)
		time.Sleep(2 * time.Millisecond)
	}

	items, err := messages.History(room, 10, stamps[2].Format(time.RFC3339Nano), stamps[0].Format(time.RFC3339Nano))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Text != "m1" {
		t.Fatalf("exclusive bounds should keep only the middle entry, got %+v", items)
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)

	room := "r_dflt0001"
	for i := 0; i < constants.DEFAULT_HISTORY_LIMIT+3; i++ {
		if _, err := messages.Append(room, model.KindMessage, "alice", "Alice", "", "x"); err != nil {
			t.Fatal(err)
		}
	}
	items, err := messages.History(room, 0, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != constants.DEFAULT_HISTORY_LIMIT {
		t.Fatalf("expected the default limit %d, got %d", constants.DEFAULT_HISTORY_LIMIT, len(items))
	}
}

func TestHistoryRejectsMalformedBound(t *testing.T) {
	repos := newTestRepos(t)
	messages := NewMessageService(repos.Log, repos.Room)

	_, err := messages.History("r_x", 10, "yesterday", "")
	if err == nil {
		t.Fatal("malformed bound should fail")
	}
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("expected invalid-parameter code, got %d", errorx.GetCode(err))
	}
}
