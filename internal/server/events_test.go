package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmalloy/chatrelay/internal/chat"
)

func Test_decodePayload(t *testing.T) {
	t.Run("valid send payload", func(t *testing.T) {
		p, err := decodePayload[SendPayload](json.RawMessage(
			`{"roomId":"r1","content":"hi","clientMessageId":"c1"}`,
		))
		assert.NoError(t, err)
		assert.Equal(t, "r1", p.RoomId)
		assert.Equal(t, "hi", p.Content)
		assert.Equal(t, "c1", p.ClientMessageId)
	})

	t.Run("missing payload", func(t *testing.T) {
		_, err := decodePayload[SendPayload](nil)
		assert.ErrorIs(t, err, chat.ErrValidation)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := decodePayload[SendPayload](json.RawMessage(`{`))
		assert.ErrorIs(t, err, chat.ErrValidation)
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := decodePayload[SendPayload](json.RawMessage(`{"content":"hi"}`))
		assert.ErrorIs(t, err, chat.ErrValidation)
	})

	t.Run("invalid message type", func(t *testing.T) {
		_, err := decodePayload[SendPayload](json.RawMessage(
			`{"roomId":"r1","content":"hi","type":"video"}`,
		))
		assert.ErrorIs(t, err, chat.ErrValidation)
	})

	t.Run("nested reply missing message id", func(t *testing.T) {
		_, err := decodePayload[SendPayload](json.RawMessage(
			`{"roomId":"r1","content":"hi","reply":{"content":"orig"}}`,
		))
		assert.ErrorIs(t, err, chat.ErrValidation)
	})

	t.Run("react payload", func(t *testing.T) {
		p, err := decodePayload[ReactPayload](json.RawMessage(
			`{"messageId":"m1","emoji":"👍"}`,
		))
		assert.NoError(t, err)
		assert.Equal(t, "m1", p.MessageId)
		assert.Equal(t, "👍", p.Emoji)

		_, err = decodePayload[ReactPayload](json.RawMessage(`{"messageId":"m1"}`))
		assert.ErrorIs(t, err, chat.ErrValidation)
	})
}

func Test_newErrorEvent(t *testing.T) {
	ev := newErrorEvent("boom")
	assert.Equal(t, EventError, ev.Kind)
	assert.Equal(t, ErrorPayload{Message: "boom"}, ev.Payload)
	assert.False(t, ev.Timestamp.IsZero())
}

func Test_serverEventSerialization(t *testing.T) {
	ev := newServerEvent(EventUserOnline, UserStatusPayload{UserId: "u1"})

	bytes, err := json.Marshal(ev)
	assert.NoError(t, err)
	assert.Contains(t, string(bytes), `"kind":"user:online"`)
	assert.Contains(t, string(bytes), `"userId":"u1"`)
}
