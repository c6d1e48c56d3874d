package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultRefreshSkew is how long before expiry a cached credential is replaced.
const DefaultRefreshSkew = time.Minute

// Cache serves a credential until shortly before its expiry. A single writer replaces
// the cached credential under a mutex.
type Cache struct {
	source Source
	store  Store
	key    TokenKey
	skew   time.Duration
	now    func() time.Time
	mux    sync.Mutex
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStore sets the credential store.
func WithStore(store Store) CacheOption {
	return func(c *Cache) {
		c.store = store
	}
}

// WithRefreshSkew sets how early a credential is refreshed.
func WithRefreshSkew(skew time.Duration) CacheOption {
	return func(c *Cache) {
		c.skew = skew
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache keyed by issuer and scopes.
func NewCache(source Source, key TokenKey, options ...CacheOption) *Cache {
	ret := &Cache{
		source: source,
		store:  NewMemoryStore(),
		key:    key,
		skew:   DefaultRefreshSkew,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Credential returns the cached credential, acquiring a new one when absent or expiring.
func (c *Cache) Credential(ctx context.Context) (*Credential, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if cached, ok := c.store.LookupCredential(c.key); ok && cached.Valid(c.now(), c.skew) {
		return cached, nil
	}
	credential, err := c.source.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if err = c.store.AddCredential(c.key, credential); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}
	return credential, nil
}

// Invalidate drops credential if it is still the cached one, forcing the next
// Credential call to re-acquire. Invalidating a credential already replaced is a no-op.
func (c *Cache) Invalidate(credential *Credential) {
	if credential == nil {
		return
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	if cached, ok := c.store.LookupCredential(c.key); ok && cached.AccessToken == credential.AccessToken {
		_ = c.store.DeleteCredential(c.key)
	}
}
