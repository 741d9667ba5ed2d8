// Package chat implements the delivery-tracking core: the message send
// pipeline and the mutations that drive a message's lifecycle
// (edit, react, soft delete, delivered/read set growth). All state of
// record lives in the injected store; this package owns authorization
// and content preparation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tmalloy/chatrelay/internal/store"
	"github.com/tmalloy/chatrelay/internal/types"
)

// DeletedPlaceholder replaces the content of a message deleted for
// everyone. The record itself is never removed.
const DeletedPlaceholder = "[Message deleted]"

type Service struct {
	store store.Store
	log   *log.Logger
}

func NewService(logger *log.Logger, s store.Store) *Service {
	return &Service{
		store: s,
		log:   logger,
	}
}

type ReplyInput struct {
	MessageId      string
	Content        string
	SenderUsername string
}

type ForwardInput struct {
	OriginalMessageId string
	OriginalSenderId  string
}

type SendMessageParams struct {
	RoomId         string
	SenderId       string
	SenderUsername string
	Content        string
	Type           types.MessageType
	Reply          *ReplyInput
	Forward        *ForwardInput
	Mentions       []types.Mention
}

// SaveMessage runs the send pipeline: authorize against room
// membership, prepare content, persist, and bump the room's
// lastMessage pointer. Dedup of client retries happens a layer above,
// keyed on the client-supplied message id.
func (s *Service) SaveMessage(ctx context.Context, p SendMessageParams) (types.Message, error) {
	member, err := s.store.IsRoomMember(ctx, p.RoomId, p.SenderId)
	if err != nil {
		return types.Message{}, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return types.Message{}, fmt.Errorf("room %s: %w", p.RoomId, ErrForbidden)
	}

	msgType := p.Type
	if msgType == "" {
		msgType = types.MessageTypeText
	}

	content := p.Content
	if msgType == types.MessageTypeText {
		content = SanitizeMessage(content)
	}
	if content == "" {
		return types.Message{}, fmt.Errorf("empty content: %w", ErrValidation)
	}

	params := store.CreateMessageParams{
		RoomId:         p.RoomId,
		SenderId:       p.SenderId,
		SenderUsername: p.SenderUsername,
		Content:        content,
		Type:           msgType,
		Mentions:       p.Mentions,
	}

	if p.Reply != nil {
		// reply snapshots are point-in-time copies, captured here and
		// never refreshed if the original message changes
		params.Reply = &types.Reply{
			MessageId:      p.Reply.MessageId,
			Content:        SanitizeSnippet(p.Reply.Content),
			SenderUsername: SanitizeSnippet(p.Reply.SenderUsername),
		}
	}

	if p.Forward != nil {
		params.Forward = &types.Forward{
			OriginalMessageId: p.Forward.OriginalMessageId,
			OriginalSenderId:  p.Forward.OriginalSenderId,
		}
	}

	msg, err := s.store.CreateMessage(ctx, params)
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", err)
	}

	if err := s.store.TouchRoomLastMessage(ctx, p.RoomId, msg.Id, msg.CreatedAt); err != nil {
		// the message is already persisted; a stale lastMessage pointer
		// self-heals on the next send
		s.log.Printf("touch room %s: %v", p.RoomId, err)
	}

	return msg, nil
}

// GetMessage fetches a message by id, mapping absence to ErrNotFound.
func (s *Service) GetMessage(ctx context.Context, messageId string) (types.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageId)
	if errors.Is(err, store.ErrNotFound) {
		return types.Message{}, fmt.Errorf("message %s: %w", messageId, ErrNotFound)
	}
	if err != nil {
		return types.Message{}, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// EditMessage applies a content edit. Only the original sender may
// edit, and a message deleted for everyone stays deleted.
func (s *Service) EditMessage(ctx context.Context, messageId, userId, content string) (types.Message, error) {
	msg, err := s.GetMessage(ctx, messageId)
	if err != nil {
		return types.Message{}, err
	}
	if msg.SenderId != userId {
		return types.Message{}, fmt.Errorf("edit message %s: %w", messageId, ErrForbidden)
	}
	if msg.DeletedForEveryone {
		return types.Message{}, fmt.Errorf("edit deleted message %s: %w", messageId, ErrForbidden)
	}

	sanitized := SanitizeMessage(content)
	if sanitized == "" {
		return types.Message{}, fmt.Errorf("empty content: %w", ErrValidation)
	}

	updated, err := s.store.UpdateMessageContent(ctx, messageId, sanitized, time.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return types.Message{}, fmt.Errorf("message %s: %w", messageId, ErrNotFound)
	}
	if err != nil {
		return types.Message{}, fmt.Errorf("update content: %w", err)
	}
	return updated, nil
}

// DeleteForMe hides the message for the calling user only. Returns the
// message's room id for broadcast targeting.
func (s *Service) DeleteForMe(ctx context.Context, messageId, userId string) (string, error) {
	msg, err := s.GetMessage(ctx, messageId)
	if err != nil {
		return "", err
	}

	member, err := s.store.IsRoomMember(ctx, msg.RoomId, userId)
	if err != nil {
		return "", fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return "", fmt.Errorf("message %s: %w", messageId, ErrForbidden)
	}

	if err := s.store.AddDeletedFor(ctx, messageId, userId); err != nil {
		return "", fmt.Errorf("add deletedFor: %w", err)
	}
	return msg.RoomId, nil
}

// DeleteForEveryone tombstones the message globally: only the sender
// may do it, and the stored content is replaced by a placeholder.
// Per-recipient deletedFor entries are left untouched.
func (s *Service) DeleteForEveryone(ctx context.Context, messageId, userId string) (types.Message, error) {
	msg, err := s.GetMessage(ctx, messageId)
	if err != nil {
		return types.Message{}, err
	}
	if msg.SenderId != userId {
		return types.Message{}, fmt.Errorf("delete message %s: %w", messageId, ErrForbidden)
	}

	deleted, err := s.store.MarkDeletedForEveryone(ctx, messageId, DeletedPlaceholder)
	if errors.Is(err, store.ErrNotFound) {
		return types.Message{}, fmt.Errorf("message %s: %w", messageId, ErrNotFound)
	}
	if err != nil {
		return types.Message{}, fmt.Errorf("mark deleted: %w", err)
	}
	return deleted, nil
}

// AddReaction upserts the caller's reaction: at most one entry per
// user, last write wins.
func (s *Service) AddReaction(ctx context.Context, messageId, userId, emoji string) (types.Message, error) {
	msg, err := s.GetMessage(ctx, messageId)
	if err != nil {
		return types.Message{}, err
	}

	member, err := s.store.IsRoomMember(ctx, msg.RoomId, userId)
	if err != nil {
		return types.Message{}, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return types.Message{}, fmt.Errorf("message %s: %w", messageId, ErrForbidden)
	}

	updated, err := s.store.SetReaction(ctx, messageId, userId, emoji)
	if err != nil {
		return types.Message{}, fmt.Errorf("set reaction: %w", err)
	}
	return updated, nil
}

// RemoveReaction drops the caller's reaction entry, if present.
func (s *Service) RemoveReaction(ctx context.Context, messageId, userId string) (types.Message, error) {
	msg, err := s.GetMessage(ctx, messageId)
	if err != nil {
		return types.Message{}, err
	}

	member, err := s.store.IsRoomMember(ctx, msg.RoomId, userId)
	if err != nil {
		return types.Message{}, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return types.Message{}, fmt.Errorf("message %s: %w", messageId, ErrForbidden)
	}

	updated, err := s.store.RemoveReaction(ctx, messageId, userId)
	if err != nil {
		return types.Message{}, fmt.Errorf("remove reaction: %w", err)
	}
	return updated, nil
}

// MarkRead adds the user to readBy on every unread message in the room
// and stamps the (user, room) read status. Both operations are
// idempotent set writes, so client retries are harmless.
func (s *Service) MarkRead(ctx context.Context, roomId, userId string) error {
	if err := s.store.AddRoomMessagesRead(ctx, roomId, userId); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if err := s.store.UpsertRoomReadStatus(ctx, userId, roomId, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert read status: %w", err)
	}
	return nil
}

// MarkDelivered adds the user to deliveredTo on every message in the room.
func (s *Service) MarkDelivered(ctx context.Context, roomId, userId string) error {
	if err := s.store.AddRoomMessagesDelivered(ctx, roomId, userId); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// IsMember is the membership oracle consulted for room joins and sends.
func (s *Service) IsMember(ctx context.Context, roomId, userId string) (bool, error) {
	return s.store.IsRoomMember(ctx, roomId, userId)
}

// SetUserOnline records the presence flag on the user record. lastSeen
// is stamped only on the online-to-offline transition.
func (s *Service) SetUserOnline(ctx context.Context, userId string, online bool, lastSeen *time.Time) error {
	return s.store.SetUserOnline(ctx, userId, online, lastSeen)
}
