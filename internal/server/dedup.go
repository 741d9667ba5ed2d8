package server

import (
	"sync"
	"time"
)

const (
	// DefaultDedupTTL is the window within which a retried send with the
	// same client message id reuses the original result.
	DefaultDedupTTL = 10 * time.Second
	// DefaultDedupSweepInterval is how often expired entries are swept.
	DefaultDedupSweepInterval = 5 * time.Second
)

type dedupKey struct {
	userId          string
	roomId          string
	clientMessageId string
}

type dedupEntry struct {
	messageId  string
	insertedAt time.Time
}

// IdempotencyCache maps a client-supplied dedup key to the id of the
// message a previous send produced. It is pure cache, never a source
// of truth: entries expire after the TTL and a lookup past expiry
// reads as unseen, at which point a retry simply creates a new
// message.
type IdempotencyCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[dedupKey]dedupEntry
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
}

func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &IdempotencyCache{
		ttl:     ttl,
		entries: make(map[dedupKey]dedupEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (c *IdempotencyCache) Put(userId, roomId, clientMessageId, messageId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[dedupKey{userId, roomId, clientMessageId}] = dedupEntry{
		messageId:  messageId,
		insertedAt: c.now(),
	}
}

// Get returns the cached message id for the key. Expired entries are
// evicted on read and treated as unseen.
func (c *IdempotencyCache) Get(userId, roomId, clientMessageId string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dedupKey{userId, roomId, clientMessageId}
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}

	if c.now().Sub(entry.insertedAt) > c.ttl {
		delete(c.entries, key)
		return "", false
	}

	return entry.messageId, true
}

func (c *IdempotencyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Run sweeps expired entries until Stop is called.
func (c *IdempotencyCache) Run(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultDedupSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		close(c.done)
	}()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *IdempotencyCache) Stop() {
	close(c.stop)
	<-c.done
}

func (c *IdempotencyCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.insertedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}
