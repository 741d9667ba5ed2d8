// Package server implements the real-time fan-out core: one websocket
// session per connection, room-scoped broadcast groups, presence and
// typing tracking, and a short-lived idempotency cache for client
// send retries.
package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tmalloy/chatrelay/internal/chat"
	"github.com/tmalloy/chatrelay/internal/stats"
)

// Hub owns every live session and the room subscription sets. It is
// the single fan-out process of the deployment: all broadcasts resolve
// to best-effort enqueues onto session send buffers, so a slow
// recipient never stalls a sender or another recipient.
type Hub struct {
	log   *log.Logger
	stats stats.StatsProvider
	chat  *chat.Service

	presence *PresenceRegistry
	typing   *TypingTracker
	dedup    *IdempotencyCache

	mu      sync.RWMutex
	clients map[*Client]struct{}
	subs    map[string]map[*Client]struct{}

	dedupSweepInterval time.Duration
}

func NewHub(logger *log.Logger, su stats.StatsProvider, svc *chat.Service, dedupTTL, dedupSweepInterval time.Duration) *Hub {
	h := &Hub{
		log:                logger,
		stats:              su,
		chat:               svc,
		presence:           NewPresenceRegistry(),
		typing:             NewTypingTracker(),
		dedup:              NewIdempotencyCache(dedupTTL),
		clients:            make(map[*Client]struct{}),
		subs:               make(map[string]map[*Client]struct{}),
		dedupSweepInterval: dedupSweepInterval,
	}

	for _, name := range []string{
		stats.NumConnections,
		stats.NumOnlineUsers,
		stats.MessagesSent,
		stats.DedupHits,
		stats.DroppedFrames,
	} {
		h.stats.RegisterMetric(name)
	}

	return h
}

// Run starts the idempotency-cache janitor and blocks until Shutdown.
func (h *Hub) Run() {
	h.dedup.Run(h.dedupSweepInterval)
}

// Shutdown stops every session's pumps and the cache janitor.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.stopClient()
	}

	stopped := make(chan struct{})
	go func() {
		h.dedup.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register admits an authenticated session: it joins the presence
// registry and, on the user's offline-to-online transition, stamps the
// user record and announces user:online to all other sessions.
func (h *Hub) Register(ctx context.Context, c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.stats.Incr(stats.NumConnections)
	h.log.Printf("session %s connected for user %q", c.sid, c.user.Username)

	if wentOnline := h.presence.AddSession(c.user.UserId, c); wentOnline {
		h.stats.Incr(stats.NumOnlineUsers)
		if err := h.chat.SetUserOnline(ctx, c.user.UserId, true, nil); err != nil {
			h.log.Printf("set user %s online: %v", c.user.UserId, err)
		}
		h.broadcastAll(newServerEvent(EventUserOnline, UserStatusPayload{UserId: c.user.UserId}), c)
	}
}

// Deregister removes a disconnected session. When the user's last
// session closes it stamps lastSeen, announces user:offline, and
// clears any stale typing indicators the user left behind.
func (h *Hub) Deregister(ctx context.Context, c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for roomId, group := range h.subs {
		if _, ok := group[c]; ok {
			delete(group, c)
			if len(group) == 0 {
				delete(h.subs, roomId)
			}
		}
	}
	h.mu.Unlock()

	h.stats.Decr(stats.NumConnections)
	h.log.Printf("session %s disconnected for user %q", c.sid, c.user.Username)

	wentOffline := h.presence.RemoveSession(c.user.UserId, c)
	if !wentOffline {
		return
	}

	h.stats.Decr(stats.NumOnlineUsers)
	lastSeen := time.Now().UTC()
	if err := h.chat.SetUserOnline(ctx, c.user.UserId, false, &lastSeen); err != nil {
		h.log.Printf("set user %s offline: %v", c.user.UserId, err)
	}

	h.broadcastAll(newServerEvent(EventUserOffline, UserStatusPayload{
		UserId:   c.user.UserId,
		LastSeen: &lastSeen,
	}), c)

	for _, roomId := range h.typing.ClearUser(c.user.UserId) {
		h.BroadcastToRoom(roomId, newServerEvent(EventTypingStop, TypingEventPayload{
			UserId: c.user.UserId,
			RoomId: roomId,
		}), c)
	}
}

// Subscribe adds the session to a room's broadcast group. Membership
// is authorized by the caller before subscribing.
func (h *Hub) Subscribe(roomId string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.subs[roomId]
	if !ok {
		group = make(map[*Client]struct{})
		h.subs[roomId] = group
	}
	group[c] = struct{}{}
	c.addRoom(roomId)
}

// Unsubscribe removes the session from a room's broadcast group.
// Unsubscribing a session that never joined is a no-op.
func (h *Hub) Unsubscribe(roomId string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if group, ok := h.subs[roomId]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.subs, roomId)
		}
	}
	c.delRoom(roomId)
}

// BroadcastToRoom enqueues ev to every session subscribed to roomId,
// except skip when non-nil. Sessions with a full send buffer drop the
// frame.
func (h *Hub) BroadcastToRoom(roomId string, ev *ServerEvent, skip *Client) {
	h.mu.RLock()
	group := make([]*Client, 0, len(h.subs[roomId]))
	for c := range h.subs[roomId] {
		group = append(group, c)
	}
	h.mu.RUnlock()

	for _, c := range group {
		if c == skip {
			continue
		}
		if !c.queueEvent(ev) {
			h.stats.Incr(stats.DroppedFrames)
		}
	}
}

// SendToUser enqueues ev on the user's private channel: every live
// session of that user, regardless of room subscriptions. Used for
// targeted notifications such as removal from a group.
func (h *Hub) SendToUser(userId string, ev *ServerEvent) {
	for _, c := range h.presence.SessionsOf(userId) {
		if !c.queueEvent(ev) {
			h.stats.Incr(stats.DroppedFrames)
		}
	}
}

func (h *Hub) broadcastAll(ev *ServerEvent, skip *Client) {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		if c == skip {
			continue
		}
		if !c.queueEvent(ev) {
			h.stats.Incr(stats.DroppedFrames)
		}
	}
}

// IsOnline reports live-connection presence for userId.
func (h *Hub) IsOnline(userId string) bool {
	return h.presence.IsOnline(userId)
}
