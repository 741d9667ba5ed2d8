package server

import (
	"context"
	"errors"

	"github.com/tmalloy/chatrelay/internal/chat"
	"github.com/tmalloy/chatrelay/internal/stats"
)

// dispatch routes one inbound event to its handler. Every handler
// catches domain errors and reports them as a private error event to
// this session only; no event kind terminates the connection or
// affects other sessions.
func (c *Client) dispatch(ctx context.Context, ev *ClientEvent) {
	switch ev.Kind {
	case EventMessageSend:
		c.handleMessageSend(ctx, ev.Payload)
	case EventMessageEdit:
		c.handleMessageEdit(ctx, ev.Payload)
	case EventMessageDeleteMe:
		c.handleMessageDeleteMe(ctx, ev.Payload)
	case EventMessageDeleteEveryone:
		c.handleMessageDeleteEveryone(ctx, ev.Payload)
	case EventMessageReact:
		c.handleMessageReact(ctx, ev.Payload)
	case EventMessageReactRemove:
		c.handleMessageReactRemove(ctx, ev.Payload)
	case EventTypingStart:
		c.handleTypingStart(ev.Payload)
	case EventTypingStop:
		c.handleTypingStop(ev.Payload)
	case EventMessagesRead:
		c.handleMessagesRead(ctx, ev.Payload)
	case EventMessageDelivered:
		c.handleMessageDelivered(ctx, ev.Payload)
	case EventRoomJoin:
		c.handleRoomJoin(ctx, ev.Payload)
	case EventRoomLeave:
		c.handleRoomLeave(ev.Payload)
	default:
		c.queueEvent(newErrorEvent("unknown event kind"))
	}
}

// reportError converts a domain error into a private error event for
// the triggering session. Errors outside the taxonomy are logged and
// surfaced as a generic internal failure.
func (c *Client) reportError(err error) {
	var msg string
	switch {
	case errors.Is(err, chat.ErrForbidden):
		msg = chat.ErrForbidden.Error()
	case errors.Is(err, chat.ErrNotFound):
		msg = chat.ErrNotFound.Error()
	case errors.Is(err, chat.ErrValidation):
		msg = chat.ErrValidation.Error()
	default:
		c.log.Printf("session %s: %v", c.sid, err)
		msg = "internal error"
	}
	c.queueEvent(newErrorEvent(msg))
}

// handleMessageSend runs the send pipeline. A retried send carrying a
// clientMessageId seen within the dedup window re-broadcasts the
// original message instead of creating a duplicate.
func (c *Client) handleMessageSend(ctx context.Context, raw []byte) {
	p, err := decodePayload[SendPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	if p.ClientMessageId != "" {
		if messageId, ok := c.hub.dedup.Get(c.user.UserId, p.RoomId, p.ClientMessageId); ok {
			msg, err := c.hub.chat.GetMessage(ctx, messageId)
			if err == nil {
				c.hub.stats.Incr(stats.DedupHits)
				c.hub.BroadcastToRoom(p.RoomId, newMessageEvent(EventMessageNew, msg), nil)
				return
			}
			// cached message no longer readable, treat as a fresh send
			c.log.Printf("dedup fetch %s: %v", messageId, err)
		}
	}

	params := chat.SendMessageParams{
		RoomId:         p.RoomId,
		SenderId:       c.user.UserId,
		SenderUsername: c.user.Username,
		Content:        p.Content,
		Type:           p.Type,
	}
	if p.Reply != nil {
		params.Reply = &chat.ReplyInput{
			MessageId:      p.Reply.MessageId,
			Content:        p.Reply.Content,
			SenderUsername: p.Reply.SenderUsername,
		}
	}
	if p.Forward != nil {
		params.Forward = &chat.ForwardInput{
			OriginalMessageId: p.Forward.OriginalMessageId,
			OriginalSenderId:  p.Forward.OriginalSenderId,
		}
	}
	for _, m := range p.Mentions {
		params.Mentions = append(params.Mentions, mentionFromPayload(m))
	}

	msg, err := c.hub.chat.SaveMessage(ctx, params)
	if err != nil {
		c.reportError(err)
		return
	}

	if p.ClientMessageId != "" {
		c.hub.dedup.Put(c.user.UserId, p.RoomId, p.ClientMessageId, msg.Id)
	}

	c.hub.stats.Incr(stats.MessagesSent)
	c.hub.BroadcastToRoom(msg.RoomId, newMessageEvent(EventMessageNew, msg), nil)
}

func (c *Client) handleMessageEdit(ctx context.Context, raw []byte) {
	p, err := decodePayload[EditPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	msg, err := c.hub.chat.EditMessage(ctx, p.MessageId, c.user.UserId, p.Content)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.BroadcastToRoom(msg.RoomId, newMessageEvent(EventMessageUpdated, msg), nil)
}

// handleMessageDeleteMe broadcasts the per-recipient soft delete to
// the whole room; clients filter by recipient on their side. Soft
// delete is visibility, not data removal.
func (c *Client) handleMessageDeleteMe(ctx context.Context, raw []byte) {
	p, err := decodePayload[DeleteForMePayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	roomId, err := c.hub.chat.DeleteForMe(ctx, p.MessageId, c.user.UserId)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.BroadcastToRoom(roomId, newServerEvent(EventMessageDeletedMe, MessageDeletedPayload{
		MessageId: p.MessageId,
		RoomId:    roomId,
	}), nil)
}

func (c *Client) handleMessageDeleteEveryone(ctx context.Context, raw []byte) {
	p, err := decodePayload[DeleteForEveryonePayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	msg, err := c.hub.chat.DeleteForEveryone(ctx, p.MessageId, c.user.UserId)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.BroadcastToRoom(msg.RoomId, newServerEvent(EventMessageDeletedEveryone, MessageDeletedPayload{
		MessageId: p.MessageId,
		RoomId:    msg.RoomId,
	}), nil)
}

func (c *Client) handleMessageReact(ctx context.Context, raw []byte) {
	p, err := decodePayload[ReactPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	msg, err := c.hub.chat.AddReaction(ctx, p.MessageId, c.user.UserId, p.Emoji)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.BroadcastToRoom(msg.RoomId, newMessageEvent(EventMessageReaction, msg), nil)
}

func (c *Client) handleMessageReactRemove(ctx context.Context, raw []byte) {
	p, err := decodePayload[ReactRemovePayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	msg, err := c.hub.chat.RemoveReaction(ctx, p.MessageId, c.user.UserId)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.BroadcastToRoom(msg.RoomId, newMessageEvent(EventMessageReaction, msg), nil)
}

// Typing signals mutate only the in-memory tracker and are broadcast
// to the room excluding the sender. They are deliberately not
// authorized against membership: low cost, low risk.
func (c *Client) handleTypingStart(raw []byte) {
	p, err := decodePayload[RoomPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.typing.Start(p.RoomId, c.user.UserId, c.user.Username)
	c.hub.BroadcastToRoom(p.RoomId, newServerEvent(EventTypingStart, TypingEventPayload{
		UserId:   c.user.UserId,
		Username: c.user.Username,
		RoomId:   p.RoomId,
	}), c)
}

func (c *Client) handleTypingStop(raw []byte) {
	p, err := decodePayload[RoomPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.typing.Stop(p.RoomId, c.user.UserId)
	c.hub.BroadcastToRoom(p.RoomId, newServerEvent(EventTypingStop, TypingEventPayload{
		UserId: c.user.UserId,
		RoomId: p.RoomId,
	}), c)
}

func (c *Client) handleMessagesRead(ctx context.Context, raw []byte) {
	p, err := decodePayload[RoomPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	if err := c.hub.chat.MarkRead(ctx, p.RoomId, c.user.UserId); err != nil {
		c.reportError(err)
		return
	}

	c.hub.BroadcastToRoom(p.RoomId, newServerEvent(EventMessagesRead, ReadReceiptPayload{
		UserId: c.user.UserId,
		RoomId: p.RoomId,
	}), c)
}

// handleMessageDelivered includes the sender in the broadcast so its
// own UI can update delivery ticks.
func (c *Client) handleMessageDelivered(ctx context.Context, raw []byte) {
	p, err := decodePayload[RoomPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	if err := c.hub.chat.MarkDelivered(ctx, p.RoomId, c.user.UserId); err != nil {
		c.reportError(err)
		return
	}

	c.hub.BroadcastToRoom(p.RoomId, newServerEvent(EventMessageDelivered, DeliveredReceiptPayload{
		RoomId: p.RoomId,
		UserId: c.user.UserId,
	}), nil)
}

// handleRoomJoin subscribes the session to a room's broadcast group.
// Non-members are silently ignored: no subscription and no error, so
// the response does not confirm the room exists.
func (c *Client) handleRoomJoin(ctx context.Context, raw []byte) {
	p, err := decodePayload[RoomPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	member, err := c.hub.chat.IsMember(ctx, p.RoomId, c.user.UserId)
	if err != nil {
		c.reportError(err)
		return
	}
	if !member {
		return
	}

	c.hub.Subscribe(p.RoomId, c)
}

// handleRoomLeave drops the subscription and confirms to the caller.
// Leaving an unjoined room is idempotent and still confirmed.
func (c *Client) handleRoomLeave(raw []byte) {
	p, err := decodePayload[RoomPayload](raw)
	if err != nil {
		c.reportError(err)
		return
	}

	c.hub.Unsubscribe(p.RoomId, c)
	c.queueEvent(newServerEvent(EventRoomLeft, RoomEventPayload{RoomId: p.RoomId}))
}
