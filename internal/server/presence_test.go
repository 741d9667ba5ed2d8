package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceRegistry_Transitions(t *testing.T) {
	r := NewPresenceRegistry()

	c1 := &Client{sid: "s1"}
	c2 := &Client{sid: "s2"}

	assert.False(t, r.IsOnline("u1"))

	assert.True(t, r.AddSession("u1", c1), "expected first session to flip user online")
	assert.False(t, r.AddSession("u1", c2), "expected second session to not re-flip")
	assert.True(t, r.IsOnline("u1"))
	assert.Len(t, r.SessionsOf("u1"), 2)

	assert.False(t, r.RemoveSession("u1", c1), "expected removal to not flip while a session remains")
	assert.True(t, r.IsOnline("u1"))

	assert.True(t, r.RemoveSession("u1", c2), "expected last removal to flip user offline")
	assert.False(t, r.IsOnline("u1"))
	assert.Empty(t, r.SessionsOf("u1"))
}

func TestPresenceRegistry_RemoveUnknownSession(t *testing.T) {
	r := NewPresenceRegistry()

	c1 := &Client{sid: "s1"}
	c2 := &Client{sid: "s2"}

	assert.False(t, r.RemoveSession("u1", c1), "expected no-op for unknown user")

	r.AddSession("u1", c1)
	assert.False(t, r.RemoveSession("u1", c2), "expected no-op for session never added")
	assert.True(t, r.IsOnline("u1"))
}

// Exactly one of N concurrent disconnects must observe the
// online-to-offline transition.
func TestPresenceRegistry_ConcurrentRemoval(t *testing.T) {
	r := NewPresenceRegistry()

	const sessions = 64
	clients := make([]*Client, sessions)
	for i := range clients {
		clients[i] = &Client{}
		r.AddSession("u1", clients[i])
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	offlineCount := 0

	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if r.RemoveSession("u1", c) {
				mu.Lock()
				offlineCount++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 1, offlineCount, "expected exactly one offline transition")
	assert.False(t, r.IsOnline("u1"))
}

func TestPresenceRegistry_OnlineUsers(t *testing.T) {
	r := NewPresenceRegistry()

	c1 := &Client{}
	c2 := &Client{}
	r.AddSession("u1", c1)
	r.AddSession("u1", c2)
	r.AddSession("u2", &Client{})

	assert.Equal(t, 2, r.OnlineUsers())
}
