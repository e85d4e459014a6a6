package chat

import (
	"sort"
	"strings"
	"sync"

	"klav_chat_server/internal/dao"
	"klav_chat_server/internal/dto/respond"

	"go.uber.org/zap"
)

// NicknameResolver maps a handle to its display name.
type NicknameResolver interface {
	Nickname(username string) string
}

// PresenceManager pushes followees' aggregate online/offline transitions
// to explicitly subscribed follower connections. Subscription is
// per-connection: closing a socket drops its subscription without
// touching the user's other sockets.
type PresenceManager struct {
	mu   sync.RWMutex
	subs map[string]map[*Client]struct{} // observer username -> subscribed clients

	registry  *Registry
	follows   dao.FollowRepository
	nicknames NicknameResolver
}

func NewPresenceManager(registry *Registry, follows dao.FollowRepository, nicknames NicknameResolver) *PresenceManager {
	return &PresenceManager{
		subs:      make(map[string]map[*Client]struct{}),
		registry:  registry,
		follows:   follows,
		nicknames: nicknames,
	}
}

// Subscribe registers the connection for presence_change pushes.
func (p *PresenceManager) Subscribe(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set := p.subs[c.Username]
	if set == nil {
		set = make(map[*Client]struct{})
		p.subs[c.Username] = set
	}
	set[c] = struct{}{}
}

// Unsubscribe drops the connection's subscription, if any.
func (p *PresenceManager) Unsubscribe(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set := p.subs[c.Username]
	delete(set, c)
	if len(set) == 0 {
		delete(p.subs, c.Username)
	}
}

// Snapshot lists the observer's currently online followees, sorted
// case-insensitively by display name.
func (p *PresenceManager) Snapshot(observer string) ([]respond.OnlineFriend, error) {
	following, err := p.follows.Following(observer)
	if err != nil {
		return nil, err
	}
	users := make([]respond.OnlineFriend, 0)
	for _, followee := range following {
		n := p.registry.ConnectionCount(followee)
		if n == 0 {
			continue
		}
		name := p.nicknames.Nickname(followee)
		users = append(users, respond.OnlineFriend{
			ID:          followee,
			Username:    followee,
			Name:        name,
			Nickname:    name,
			Connections: n,
		})
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Name) < strings.ToLower(users[j].Name)
	})
	return users, nil
}

// NotifyTransition fans a followee's aggregate transition out to every
// subscribed connection of every follower. status is "online" or
// "offline". Callers invoke it once per edge.
func (p *PresenceManager) NotifyTransition(username, status string) {
	followers, err := p.follows.Followers(username)
	if err != nil {
		zap.L().Error("load followers for presence fan-out failed",
			zap.String("username", username), zap.Error(err))
		return
	}

	event := respond.PresenceChangeEvent{
		Type:   "presence_change",
		Ts:     respond.NowTs(),
		Scope:  "friends",
		User:   username,
		Name:   p.nicknames.Nickname(username),
		Status: status,
	}

	p.mu.RLock()
	targets := make([]*Client, 0)
	for _, follower := range followers {
		for c := range p.subs[follower] {
			targets = append(targets, c)
		}
	}
	p.mu.RUnlock()

	for _, c := range targets {
		c.Enqueue(event)
	}
}
