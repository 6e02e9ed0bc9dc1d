package cache

import (
	"context"
	"sync"
	"time"

	"cadastro/internal/address/models"
	"cadastro/pkg/platform/sentinel"
)

// Clock returns the current time. Injected so TTL expiry can be tested.
type Clock func() time.Time

type cachedAddress struct {
	address   models.PostalAddress
	expiresAt time.Time
}

// InMemoryCache keeps resolved addresses in process memory.
// Expired entries are not swept: they read as a miss and are overwritten by the next Set.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cachedAddress
	clock   Clock
}

type InMemoryOption func(*InMemoryCache)

// WithClock overrides time.Now.
func WithClock(clock Clock) InMemoryOption {
	return func(c *InMemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func NewInMemoryCache(opts ...InMemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]cachedAddress),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a live entry for key or sentinel.ErrNotFound.
func (c *InMemoryCache) Get(_ context.Context, key string) (*models.PostalAddress, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[key]
	if !ok || !c.clock().Before(cached.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	addr := cached.address
	return &addr, nil
}

// Set stores address under key until ttl elapses.
func (c *InMemoryCache) Set(_ context.Context, key string, address models.PostalAddress, ttl time.Duration) error {
	if ttl <= 0 {
		return sentinel.ErrInvalidState
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedAddress{address: address, expiresAt: c.clock().Add(ttl)}
	return nil
}

// Len reports how many entries are held, live or stale.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
