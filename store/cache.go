package store

import (
	"io"
	"sync"
	"time"
)

// DefaultTTL is how long a cached document snapshot stays fresh.
const DefaultTTL = time.Hour

// Cached is a read-through cache in front of a Backend. It holds a single
// document snapshot; a read older than the TTL (or a forced Refresh)
// re-fetches from the backing store and overwrites the snapshot. Writes go
// straight through and drop the snapshot. No eviction beyond that.
type Cached struct {
	backing Backend
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	doc       map[string]any
	fetchedAt time.Time
}

func NewCached(backing Backend, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{backing: backing, ttl: ttl, now: time.Now}
}

func (c *Cached) Get(keys ...string) (any, error) {
	doc, err := c.snapshot(false)
	if err != nil {
		return nil, err
	}
	return traverse(doc, keys)
}

func (c *Cached) Put(value any, keys ...string) error {
	if err := c.backing.Put(value, keys...); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

func (c *Cached) Remove(keys ...string) error {
	if err := c.backing.Remove(keys...); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

func (c *Cached) Export(w io.Writer) error {
	return c.backing.Export(w)
}

// Refresh discards the snapshot and re-fetches regardless of age.
func (c *Cached) Refresh() error {
	_, err := c.snapshot(true)
	return err
}

func (c *Cached) invalidate() {
	c.mu.Lock()
	c.doc = nil
	c.mu.Unlock()
}

func (c *Cached) snapshot(force bool) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.doc != nil && c.now().Sub(c.fetchedAt) <= c.ttl {
		return c.doc, nil
	}

	doc, err := c.backing.Load()
	if err != nil {
		return nil, err
	}
	c.doc = doc
	c.fetchedAt = c.now()
	return doc, nil
}
