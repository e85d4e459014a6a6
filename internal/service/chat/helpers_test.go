package chat

import (
	"encoding/json"
	"testing"
	"time"

	"klav_chat_server/internal/config"
	"klav_chat_server/internal/dao"
)

// plainNicknames resolves every handle to itself, with optional overrides.
type plainNicknames map[string]string

func (n plainNicknames) Nickname(username string) string {
	if nick, ok := n[username]; ok {
		return nick
	}
	return username
}

func newTestRepos(t *testing.T) *dao.Repositories {
	t.Helper()
	repos, err := dao.Init(&config.StorageConfig{Backend: "file", StateDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open filestore: %v", err)
	}
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func newTestServer(t *testing.T, nicknames plainNicknames) *Server {
	t.Helper()
	srv, err := NewServer(&config.BrokerConfig{MessageMode: "channel"}, newTestRepos(t), nicknames)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

// recvEvent pops one queued event off the client's send buffer.
func recvEvent(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case data := <-c.send:
		var event map[string]any
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event queued")
		return nil
	}
}

func noEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected event queued: %s", data)
	default:
	}
}
