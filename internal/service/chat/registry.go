package chat

import "sync"

// Registry tracks live websocket clients per user. A user is online iff
// at least one client is registered; Register and Unregister report the
// aggregate edge so presence transitions fire exactly once per edge, not
// once per socket.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]map[*Client]struct{})}
}

// Register adds a client and reports whether the user was offline before
// this call (the offline→online edge).
func (r *Registry) Register(c *Client) (wasOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.clients[c.Username]
	wasOffline = len(set) == 0
	if set == nil {
		set = make(map[*Client]struct{})
		r.clients[c.Username] = set
	}
	set[c] = struct{}{}
	return wasOffline
}

// Unregister removes a client and reports whether the user is now offline
// (the online→offline edge). Unknown clients report false.
func (r *Registry) Unregister(c *Client) (nowOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.clients[c.Username]
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.clients, c.Username)
		return true
	}
	return false
}

func (r *Registry) IsOnline(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[username]) > 0
}

// ConnectionsOf snapshots the user's live clients.
func (r *Registry) ConnectionsOf(username string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.clients[username]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// CloseAll closes every registered client. Used on shutdown; the clients
// unregister themselves as their session loops unwind.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	all := make([]*Client, 0)
	for _, set := range r.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	r.mu.RUnlock()
	for _, c := range all {
		c.Close()
	}
}

// ConnectionCount reports how many sockets the user currently holds.
func (r *Registry) ConnectionCount(username string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[username])
}
