package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmalloy/chatrelay/internal/auth"
	"github.com/tmalloy/chatrelay/internal/store"
	"github.com/tmalloy/chatrelay/internal/testutil"
)

func TestNewClient(t *testing.T) {
	hub := newTestHub(t, &store.MockStore{})

	c, err := NewClient(auth.Identity{UserId: "u1", Username: "alice"}, nil, hub, testutil.TestLogger(t))
	assert.NoError(t, err)
	assert.NotEmpty(t, c.sid)
	assert.Equal(t, "u1", c.user.UserId)
	assert.Equal(t, sendBufferSize, cap(c.send))
	assert.Empty(t, c.rooms)
}

func TestClient_QueueEvent(t *testing.T) {
	hub := newTestHub(t, &store.MockStore{})
	c := newTestClient(t, hub, "u1", "alice")

	assert.True(t, c.queueEvent(newErrorEvent("first")))
	assert.Equal(t, "first", receiveEvent(t, c).Payload.(ErrorPayload).Message)

	// a full buffer drops the frame instead of blocking the caller
	for i := 0; i < sendBufferSize; i++ {
		assert.True(t, c.queueEvent(newErrorEvent("fill")))
	}
	assert.False(t, c.queueEvent(newErrorEvent("overflow")))
}

func TestClient_StopClientIdempotent(t *testing.T) {
	hub := newTestHub(t, &store.MockStore{})
	c := newTestClient(t, hub, "u1", "alice")

	c.stopClient()
	c.stopClient()

	select {
	case <-c.stop:
	default:
		t.Fatal("expected stop channel to be closed")
	}
}

func TestClient_RoomTracking(t *testing.T) {
	hub := newTestHub(t, &store.MockStore{})
	c := newTestClient(t, hub, "u1", "alice")

	assert.False(t, c.inRoom("r1"))

	c.addRoom("r1")
	assert.True(t, c.inRoom("r1"))

	c.delRoom("r1")
	assert.False(t, c.inRoom("r1"))

	// removing an untracked room is a no-op
	c.delRoom("r2")
}
