package providertoken

import (
	"context"
	"sync"
	"time"
)

// FetchFunc obtains a fresh token from the provider, returning the token and
// its expiry instant.
type FetchFunc func(ctx context.Context) (string, time.Time, error)

// Cache holds one provider auth token and refreshes it through the supplied
// fetcher once it nears expiry. The clock is injected so expiry is testable.
type Cache struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	skew   time.Duration
	now    func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSkew refreshes the token this long before its actual expiry.
func WithSkew(skew time.Duration) Option {
	return func(c *Cache) {
		if skew >= 0 {
			c.skew = skew
		}
	}
}

// New builds a token cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		skew: 30 * time.Second,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached token, fetching a new one when missing or expiring.
func (c *Cache) Get(ctx context.Context, fetch FetchFunc) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(c.skew).Before(c.expiry) {
		return c.token, nil
	}

	token, expiry, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.expiry = expiry
	return token, nil
}

// Invalidate drops the cached token, forcing the next Get to refetch. Called
// when a provider rejects the token before its advertised expiry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiry = time.Time{}
}
