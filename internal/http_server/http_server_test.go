package http_server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"klav_chat_server/internal/config"
	"klav_chat_server/internal/dao"
	"klav_chat_server/internal/handler"
	"klav_chat_server/internal/http_server"
	"klav_chat_server/internal/service/auth"
	"klav_chat_server/internal/service/chat"
	"klav_chat_server/internal/service/user"
	"klav_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestStack(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt.Init("e2e-secret", 60, 168)

	repos, err := dao.Init(&config.StorageConfig{Backend: "file", StateDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	authSvc := auth.NewService(repos.User)
	userSvc := user.NewService(repos.User, nil)
	chatSrv, err := chat.NewServer(&config.BrokerConfig{MessageMode: "channel"}, repos, userSvc)
	if err != nil {
		t.Fatal(err)
	}
	go chatSrv.Start()

	handlers := handler.NewHandlers(authSvc, userSvc, chatSrv, repos)
	engine := http_server.Init(&config.MainConfig{}, handlers)
	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		srv.Close()
		_ = chatSrv.Close()
		_ = repos.Close()
	})
	return srv
}

func postJSON(t *testing.T, url string, body any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	postJSON(t, srv.URL+"/register", map[string]string{
		"username": username, "password": "secret",
	})
	out := postJSON(t, srv.URL+"/login", map[string]string{
		"username": username, "password": "secret",
	})
	data, ok := out["data"].(map[string]any)
	if !ok {
		t.Fatalf("login failed: %v", out)
	}
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatalf("no access token: %v", out)
	}
	return token
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Every session opens with a welcome system event.
	welcome := awaitEvent(t, conn, "system")
	if text, _ := welcome["text"].(string); !strings.HasPrefix(text, "welcome") {
		t.Fatalf("expected welcome notice, got %v", welcome)
	}
	return conn
}

// awaitEvent reads frames until one of the wanted type arrives.
func awaitEvent(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var event map[string]any
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("waiting for %q: %v", wantType, err)
		}
		if event["type"] == wantType {
			return event
		}
	}
	t.Fatalf("no %q event before deadline", wantType)
	return nil
}

func sendCmd(t *testing.T, conn *websocket.Conn, cmd map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatal(err)
	}
}

func TestChatSmoke(t *testing.T) {
	srv := newTestStack(t)
	aliceToken := registerAndLogin(t, srv, "alice")
	bobToken := registerAndLogin(t, srv, "bob")

	alice := dialWS(t, srv, aliceToken)
	bob := dialWS(t, srv, bobToken)

	// alice creates the room and joins by id.
	sendCmd(t, alice, map[string]any{"type": "create_room", "name": "lobby"})
	ack := awaitEvent(t, alice, "create_room_ack")
	if ack["status"] != "CREATED" {
		t.Fatalf("unexpected ack: %v", ack)
	}
	roomID, _ := ack["room_id"].(string)
	if !strings.HasPrefix(roomID, "r_") {
		t.Fatalf("bad room id %q", roomID)
	}
	sendCmd(t, alice, map[string]any{"type": "join", "room_id": roomID})
	awaitEvent(t, alice, "system")

	// bob joins the same room by name and both sides see the system event.
	sendCmd(t, bob, map[string]any{"type": "join", "room": "lobby"})
	joined := awaitEvent(t, bob, "system")
	if joined["room"] != roomID {
		t.Fatalf("name join resolved to %v, want %v", joined["room"], roomID)
	}
	awaitEvent(t, alice, "system")

	// A room message reaches both members.
	sendCmd(t, alice, map[string]any{"type": "msg", "room_id": roomID, "text": "hello"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := awaitEvent(t, conn, "message")
		if msg["text"] != "hello" || msg["from"] != "alice" {
			t.Fatalf("unexpected message: %v", msg)
		}
	}

	// A room DM acks DELIVERED and reaches only bob.
	sendCmd(t, alice, map[string]any{"type": "room_dm", "room_id": roomID, "to": "bob", "text": "psst"})
	dmAck := awaitEvent(t, alice, "dm_ack")
	if dmAck["status"] != "DELIVERED" {
		t.Fatalf("unexpected dm ack: %v", dmAck)
	}
	dm := awaitEvent(t, bob, "dm")
	if dm["text"] != "psst" || dm["to"] != "bob" {
		t.Fatalf("unexpected dm: %v", dm)
	}

	// History returns the full room log in ascending order.
	sendCmd(t, alice, map[string]any{"type": "history", "room_id": roomID, "limit": 50})
	history := awaitEvent(t, alice, "history")
	items, _ := history["items"].([]any)
	if len(items) < 4 {
		t.Fatalf("expected at least 4 log entries, got %d", len(items))
	}
	var prev string
	for _, it := range items {
		entry := it.(map[string]any)
		ts, _ := entry["ts"].(string)
		if prev != "" && ts < prev {
			t.Fatalf("history out of order: %q after %q", ts, prev)
		}
		prev = ts
	}
	lastEntry := items[len(items)-1].(map[string]any)
	if lastEntry["kind"] != "dm" || lastEntry["text"] != "psst" {
		t.Fatalf("unexpected tail entry: %v", lastEntry)
	}

	// my_rooms reports the room with its last activity (dm excluded).
	sendCmd(t, bob, map[string]any{"type": "my_rooms"})
	myRooms := awaitEvent(t, bob, "my_rooms")
	rooms, _ := myRooms["rooms"].([]any)
	if len(rooms) != 1 || rooms[0] != roomID {
		t.Fatalf("unexpected rooms: %v", rooms)
	}
	infos, _ := myRooms["rooms_info"].([]any)
	info := infos[0].(map[string]any)
	last, _ := info["last"].(map[string]any)
	if last == nil || last["text"] != "hello" {
		t.Fatalf("dm must not surface as last activity: %v", info)
	}
}

func TestFollowAndPresenceSmoke(t *testing.T) {
	srv := newTestStack(t)
	aliceToken := registerAndLogin(t, srv, "alice")
	bobToken := registerAndLogin(t, srv, "bob")

	bob := dialWS(t, srv, bobToken)

	sendCmd(t, bob, map[string]any{"type": "friend_follow", "to": "alice"})
	ack := awaitEvent(t, bob, "friend_follow_ack")
	if ack["status"] != "FOLLOWED" {
		t.Fatalf("unexpected follow ack: %v", ack)
	}

	sendCmd(t, bob, map[string]any{"type": "presence_friends_subscribe"})
	snapshot := awaitEvent(t, bob, "online_friends")
	if users, _ := snapshot["users"].([]any); len(users) != 0 {
		t.Fatalf("alice should be offline: %v", users)
	}

	// alice connects: bob gets the online transition, once.
	alice := dialWS(t, srv, aliceToken)
	change := awaitEvent(t, bob, "presence_change")
	if change["user"] != "alice" || change["status"] != "online" || change["scope"] != "friends" {
		t.Fatalf("unexpected presence change: %v", change)
	}

	// The followee is notified live when the edge is created.
	sendCmd(t, alice, map[string]any{"type": "friend_follow", "to": "bob"})
	notified := awaitEvent(t, bob, "notify_followed")
	if notified["from"] != "alice" {
		t.Fatalf("unexpected notify: %v", notified)
	}

	sendCmd(t, bob, map[string]any{"type": "get_online_friends"})
	online := awaitEvent(t, bob, "online_friends")
	users, _ := online["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("expected alice online: %v", online)
	}
	entry := users[0].(map[string]any)
	if entry["username"] != "alice" || entry["connections"].(float64) != 1 {
		t.Fatalf("unexpected snapshot entry: %v", entry)
	}

	// alice disconnects: bob sees the offline transition.
	_ = alice.Close()
	change = awaitEvent(t, bob, "presence_change")
	if change["status"] != "offline" {
		t.Fatalf("unexpected transition: %v", change)
	}
}

func TestWsRejectsBadToken(t *testing.T) {
	srv := newTestStack(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("upgrade should succeed before the auth check: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestHealthAndProfileEndpoints(t *testing.T) {
	srv := newTestStack(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}

	token := registerAndLogin(t, srv, "alice")
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	data, _ := out["data"].(map[string]any)
	if data["username"] != "alice" {
		t.Fatalf("unexpected profile: %v", out)
	}

	// No token: rejected.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/me", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
