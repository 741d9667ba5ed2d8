package server

import (
	"sync"
)

// PresenceRegistry tracks the set of live sessions per user. A user is
// online iff their session set is non-empty. The online/offline
// transition is computed inside the same critical section as the set
// mutation, so two concurrent disconnects can never both observe "last
// session closed".
type PresenceRegistry struct {
	mu       sync.Mutex
	sessions map[string]map[*Client]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		sessions: make(map[string]map[*Client]struct{}),
	}
}

// AddSession registers a session for userId and reports whether the
// user just transitioned from offline to online.
func (r *PresenceRegistry) AddSession(userId string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userId]
	if !ok {
		set = make(map[*Client]struct{})
		r.sessions[userId] = set
	}
	set[c] = struct{}{}

	return !ok
}

// RemoveSession drops a session for userId and reports whether the
// user just transitioned from online to offline. Removing a session
// that was never added is a no-op.
func (r *PresenceRegistry) RemoveSession(userId string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userId]
	if !ok {
		return false
	}

	if _, ok := set[c]; !ok {
		return false
	}

	delete(set, c)
	if len(set) == 0 {
		delete(r.sessions, userId)
		return true
	}
	return false
}

func (r *PresenceRegistry) IsOnline(userId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions[userId]) > 0
}

// SessionsOf returns a snapshot of the user's live sessions.
func (r *PresenceRegistry) SessionsOf(userId string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*Client, 0, len(r.sessions[userId]))
	for c := range r.sessions[userId] {
		clients = append(clients, c)
	}
	return clients
}

// OnlineUsers returns the number of distinct users with at least one
// live session.
func (r *PresenceRegistry) OnlineUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
