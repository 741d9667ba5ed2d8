package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tmalloy/chatrelay/internal/chat"
	"github.com/tmalloy/chatrelay/internal/types"
)

// Inbound event kinds (client to server).
const (
	EventMessageSend           = "message:send"
	EventMessageEdit           = "message:edit"
	EventMessageDeleteMe       = "message:delete:me"
	EventMessageDeleteEveryone = "message:delete:everyone"
	EventMessageReact          = "message:react"
	EventMessageReactRemove    = "message:react:remove"
	EventTypingStart           = "typing:start"
	EventTypingStop            = "typing:stop"
	EventMessagesRead          = "messages:read"
	EventMessageDelivered      = "message:delivered"
	EventRoomJoin              = "room:join"
	EventRoomLeave             = "room:leave"
)

// Outbound event kinds (server to subscribers).
const (
	EventMessageNew             = "message:new"
	EventMessageUpdated         = "message:updated"
	EventMessageReaction        = "message:reaction"
	EventMessageDeletedMe       = "message:deleted:me"
	EventMessageDeletedEveryone = "message:deleted:everyone"
	EventUserOnline             = "user:online"
	EventUserOffline            = "user:offline"
	EventRoomUpdated            = "room:updated"
	EventRoomLeft               = "room:left"
	EventError                  = "error"
)

// ClientEvent is the envelope for every inbound frame. The payload
// schema is fixed per kind; malformed or incomplete payloads are
// rejected at this boundary instead of failing deep in a handler.
type ClientEvent struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerEvent struct {
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ReplyPayload struct {
	MessageId      string `json:"messageId" validate:"required"`
	Content        string `json:"content"`
	SenderUsername string `json:"senderUsername"`
}

type ForwardPayload struct {
	OriginalMessageId string `json:"originalMessageId" validate:"required"`
	OriginalSenderId  string `json:"originalSenderId" validate:"required"`
}

type MentionPayload struct {
	UserId   string `json:"userId" validate:"required"`
	Username string `json:"username"`
}

type SendPayload struct {
	RoomId          string            `json:"roomId" validate:"required"`
	Content         string            `json:"content" validate:"required"`
	Type            types.MessageType `json:"type,omitempty" validate:"omitempty,oneof=text image file emoji system"`
	ClientMessageId string            `json:"clientMessageId,omitempty"`
	Reply           *ReplyPayload     `json:"reply,omitempty"`
	Forward         *ForwardPayload   `json:"forward,omitempty"`
	Mentions        []MentionPayload  `json:"mentions,omitempty"`
}

type EditPayload struct {
	MessageId string `json:"messageId" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

type DeleteForMePayload struct {
	MessageId string `json:"messageId" validate:"required"`
	RoomId    string `json:"roomId" validate:"required"`
}

type DeleteForEveryonePayload struct {
	MessageId string `json:"messageId" validate:"required"`
}

type ReactPayload struct {
	MessageId string `json:"messageId" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

type ReactRemovePayload struct {
	MessageId string `json:"messageId" validate:"required"`
}

// RoomPayload covers the event kinds addressed at a whole room:
// typing signals, read/delivered receipts, join and leave.
type RoomPayload struct {
	RoomId string `json:"roomId" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodePayload unmarshals and schema-checks an inbound payload.
// Failures map to the validation error class.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var p T
	if len(raw) == 0 {
		return p, fmt.Errorf("missing payload: %w", chat.ErrValidation)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("malformed payload: %w", chat.ErrValidation)
	}
	if err := validate.Struct(&p); err != nil {
		return p, fmt.Errorf("%s: %w", err, chat.ErrValidation)
	}
	return p, nil
}

func mentionFromPayload(m MentionPayload) types.Mention {
	return types.Mention{UserId: m.UserId, Username: m.Username}
}

type MessagePayload struct {
	Message types.Message `json:"message"`
}

type UserStatusPayload struct {
	UserId   string     `json:"userId"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type TypingEventPayload struct {
	UserId   string `json:"userId"`
	Username string `json:"username,omitempty"`
	RoomId   string `json:"roomId"`
}

type ReadReceiptPayload struct {
	UserId string `json:"userId"`
	RoomId string `json:"roomId"`
}

type DeliveredReceiptPayload struct {
	RoomId string `json:"roomId"`
	UserId string `json:"userId"`
}

// RoomEventPayload is the outbound shape for room membership events
// (room:left, room:updated).
type RoomEventPayload struct {
	RoomId string `json:"roomId"`
}

type MessageDeletedPayload struct {
	MessageId string `json:"messageId"`
	RoomId    string `json:"roomId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newServerEvent(kind string, payload any) *ServerEvent {
	return &ServerEvent{
		Kind:      kind,
		Payload:   payload,
		Timestamp: Now(),
	}
}

func newMessageEvent(kind string, msg types.Message) *ServerEvent {
	return newServerEvent(kind, MessagePayload{Message: msg})
}

func newErrorEvent(message string) *ServerEvent {
	return newServerEvent(EventError, ErrorPayload{Message: message})
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
