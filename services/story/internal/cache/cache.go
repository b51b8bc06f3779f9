// Package cache provides the short-lived feed response cache.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Cache is the minimal read/write interface for cached feed pages.
// Implementations must be safe for concurrent use. Values are the
// marshalled response bodies.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, v []byte)
}

type item struct {
	val       []byte
	expiresAt time.Time
}

// TTLCache is an in-memory Cache with per-entry expiry and optional NATS
// key-level invalidation.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
}

// NewTTLCache creates a TTLCache and wires up NATS invalidation when nc is
// non-nil. An empty invalidation payload (or "ALL") flushes everything.
func NewTTLCache(ttl time.Duration, nc *nats.Conn, subj string) *TTLCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &TTLCache{items: make(map[string]item), ttl: ttl}
	if nc != nil && subj != "" {
		_, _ = nc.Subscribe(subj, func(m *nats.Msg) {
			key := string(m.Data)
			c.mu.Lock()
			defer c.mu.Unlock()
			if key == "" || strings.EqualFold(key, "ALL") {
				c.items = make(map[string]item)
				return
			}
			delete(c.items, key)
		})
	}
	return c
}

func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return it.val, true
}

func (c *TTLCache) Set(key string, v []byte) {
	c.mu.Lock()
	c.items[key] = item{val: v, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Flush discards every cached entry.
func (c *TTLCache) Flush() {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}

// SubscribeInvalidation flushes c whenever a message arrives on subj.
// Used for cache backends that do not subscribe themselves.
func SubscribeInvalidation(nc *nats.Conn, subj string, c interface{ Flush() }) {
	if nc == nil || subj == "" || c == nil {
		return
	}
	_, _ = nc.Subscribe(subj, func(*nats.Msg) { c.Flush() })
}

// Invalidator flushes cached feed pages across service instances. With a
// NATS connection it publishes on the invalidation subject so every
// subscriber flushes; without one it falls back to flushing a local cache.
// A nil Invalidator is a no-op.
type Invalidator struct {
	nc    *nats.Conn
	subj  string
	local interface{ Flush() }
}

func NewInvalidator(nc *nats.Conn, subj string, local interface{ Flush() }) *Invalidator {
	return &Invalidator{nc: nc, subj: subj, local: local}
}

func (i *Invalidator) Invalidate() {
	if i == nil {
		return
	}
	if i.nc != nil && i.subj != "" {
		_ = i.nc.Publish(i.subj, []byte("ALL"))
		return
	}
	if i.local != nil {
		i.local.Flush()
	}
}
