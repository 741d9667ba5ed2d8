// Package store defines the document-store interface the real-time
// core depends on, plus the MongoDB implementation. The store is the
// system of record for users, rooms and messages; every mutation of a
// shared message field uses an atomic single-document update so that
// concurrent sessions never race through read-modify-write cycles.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tmalloy/chatrelay/internal/types"
)

var (
	ErrNotFound = errors.New("store: not found")
)

type CreateMessageParams struct {
	RoomId         string
	SenderId       string
	SenderUsername string
	Content        string
	Type           types.MessageType
	Reply          *types.Reply
	Forward        *types.Forward
	Mentions       []types.Mention
}

type Store interface {
	// CreateMessage persists a new message. The sender is pre-seeded
	// into readBy; deliveredTo starts empty.
	CreateMessage(ctx context.Context, params CreateMessageParams) (types.Message, error)
	GetMessage(ctx context.Context, messageId string) (types.Message, error)

	// AddRoomMessagesRead adds userId to readBy on every message in the
	// room that does not already contain it (atomic set-add per document).
	AddRoomMessagesRead(ctx context.Context, roomId, userId string) error
	// AddRoomMessagesDelivered is the deliveredTo counterpart.
	AddRoomMessagesDelivered(ctx context.Context, roomId, userId string) error

	// UpdateMessageContent applies an edit and returns the updated message.
	UpdateMessageContent(ctx context.Context, messageId, content string, editedAt time.Time) (types.Message, error)
	// MarkDeletedForEveryone sets the global tombstone and replaces the
	// stored content with placeholder.
	MarkDeletedForEveryone(ctx context.Context, messageId, placeholder string) (types.Message, error)
	// AddDeletedFor hides the message for a single recipient.
	AddDeletedFor(ctx context.Context, messageId, userId string) error

	// SetReaction upserts the user's reaction: at most one reaction per
	// user per message, last write wins. Returns the updated message.
	SetReaction(ctx context.Context, messageId, userId, emoji string) (types.Message, error)
	// RemoveReaction removes the user's reaction entry, if any.
	RemoveReaction(ctx context.Context, messageId, userId string) (types.Message, error)

	// IsRoomMember reports whether userId is a member of roomId. A
	// missing room reads as "not a member".
	IsRoomMember(ctx context.Context, roomId, userId string) (bool, error)
	// TouchRoomLastMessage updates the room's lastMessage pointer and
	// updatedAt stamp.
	TouchRoomLastMessage(ctx context.Context, roomId, messageId string, at time.Time) error

	SetUserOnline(ctx context.Context, userId string, online bool, lastSeen *time.Time) error

	// UpsertRoomReadStatus writes lastReadAt for the (user, room) pair,
	// creating the row on first read.
	UpsertRoomReadStatus(ctx context.Context, userId, roomId string, lastReadAt time.Time) error

	Close(ctx context.Context) error
}
