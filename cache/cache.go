package cache

import (
	"container/list"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is a thread-safe LRU cache whose entries also expire after a TTL.
// A zero ttl disables expiry.
type Cache[V any] struct {
	size      int
	ttl       time.Duration
	now       func() time.Time
	evictList *list.List
	items     map[string]*list.Element
	mu        sync.Mutex
}

// entry is stored in the cache
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Option configures a Cache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a cache holding at most size entries
func New[V any](size int, ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if size <= 0 {
		size = 1
	}

	return &Cache[V]{
		size:      size,
		ttl:       ttl,
		now:       o.now,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}
}

// Get retrieves a value from the cache. Expired entries are removed and
// reported as missing.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	node, exists := c.items[key]
	if !exists {
		return zero, false
	}

	ent := node.Value.(*entry[V])
	if c.expired(ent) {
		c.removeElement(node)
		return zero, false
	}

	// Move to front (most recently used)
	c.evictList.MoveToFront(node)
	return ent.value, true
}

// Put adds or updates a value in the cache
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if node, exists := c.items[key]; exists {
		c.evictList.MoveToFront(node)
		ent := node.Value.(*entry[V])
		ent.value = value
		ent.expiresAt = expiresAt
		return
	}

	node := c.evictList.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = node

	if c.evictList.Len() > c.size {
		c.removeOldest()
	}
}

// Remove deletes a key
func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		c.removeElement(node)
	}
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// Len returns the number of items in the cache, including expired entries
// that have not been accessed since they expired
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictList.Len()
}

func (c *Cache[V]) expired(ent *entry[V]) bool {
	return !ent.expiresAt.IsZero() && !c.now().Before(ent.expiresAt)
}

// removeOldest drops expired entries first, then the least recently used
func (c *Cache[V]) removeOldest() {
	for node := c.evictList.Back(); node != nil; {
		prev := node.Prev()
		if c.expired(node.Value.(*entry[V])) {
			c.removeElement(node)
			return
		}
		node = prev
	}

	if node := c.evictList.Back(); node != nil {
		c.removeElement(node)
	}
}

func (c *Cache[V]) removeElement(node *list.Element) {
	c.evictList.Remove(node)
	delete(c.items, node.Value.(*entry[V]).key)
}

// Key builds a deterministic cache key from the logical arguments of a call.
// Maps are encoded with sorted keys, so equal arguments give equal keys.
func Key(args ...any) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%q", v))
		default:
			b, err := json.Marshal(v)
			if err != nil {
				parts = append(parts, fmt.Sprintf("%#v", v))
				continue
			}
			parts = append(parts, string(b))
		}
	}
	return strings.Join(parts, "|")
}
