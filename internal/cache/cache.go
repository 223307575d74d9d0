package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is one stored provider response.
type Entry struct {
	// Provider and Signature form the cache key.
	Provider  string
	Signature string

	// Payload is the raw provider response.
	Payload []byte

	// FetchedAt is when the payload was obtained.
	FetchedAt time.Time

	// TTL is the freshness window granted at store time.
	TTL time.Duration
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.FetchedAt) >= e.TTL
}

// Store is the persistence contract behind the cache.
//
// Design decision: We separate storage from caching policy so the policy
// layer (TTL checks, singleflight) is identical whether entries live in
// memory or in the SQLite database.
type Store interface {
	// Get returns the entry for the key, or nil if absent.
	// Expired entries are still returned; expiry is the cache's concern.
	Get(ctx context.Context, providerID, signature string) (*Entry, error)

	// Put stores or replaces the entry for its key.
	Put(ctx context.Context, entry *Entry) error

	// Delete removes the entry for the key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, providerID, signature string) error
}

// FetchFunc produces a payload on cache miss. It is the call into the
// excluded provider-client collaborator.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Cache is the TTL-scoped, fetch-deduplicating layer over a Store.
type Cache struct {
	store  Store
	group  singleflight.Group
	logger *slog.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a custom logger for the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock overrides the time source. Tests use this to cross TTL
// boundaries without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// GetOrFetch returns the cached payload for (providerID, signature) when a
// fresh entry exists, otherwise invokes fetch, stores the result with the
// given TTL, and returns it.
//
// Concurrent callers for the same key share a single in-flight fetch: the
// at-most-one-concurrent-fetch-per-key guarantee that keeps duplicate
// external calls from escaping during parallel unit execution.
//
// Fetch failures propagate unmodified; the cache never masks them. The
// caller decides whether a stale entry (GetStale) serves as fallback.
func (c *Cache) GetOrFetch(ctx context.Context, providerID, signature string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	if entry, err := c.lookup(ctx, providerID, signature); err == nil && entry != nil {
		c.logger.Debug("cache hit", "provider", providerID, "signature", signature)
		return entry.Payload, nil
	}

	key := providerID + "\x00" + signature
	payload, err, shared := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have stored the
		// payload between our miss and acquiring the flight.
		if entry, err := c.lookup(ctx, providerID, signature); err == nil && entry != nil {
			return entry.Payload, nil
		}

		c.logger.Debug("cache miss, fetching", "provider", providerID, "signature", signature)
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		entry := &Entry{
			Provider:  providerID,
			Signature: signature,
			Payload:   data,
			FetchedAt: c.now(),
			TTL:       ttl,
		}
		if putErr := c.store.Put(ctx, entry); putErr != nil {
			// A store failure degrades caching, not the run.
			c.logger.Warn("cache store failed",
				"provider", providerID,
				"signature", signature,
				"error", putErr,
			)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("fetch shared with concurrent caller",
			"provider", providerID,
			"signature", signature,
		)
	}
	return payload.([]byte), nil
}

// Refresh fetches the key unconditionally, bypassing the freshness check,
// and stores the result. On fetch failure the previous entry stays in place
// so GetStale can still serve it. Used by cache-bypassing runs, which skip
// reads but keep feeding the store.
func (c *Cache) Refresh(ctx context.Context, providerID, signature string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	key := providerID + "\x00" + signature
	payload, err, _ := c.group.Do(key, func() (any, error) {
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		entry := &Entry{
			Provider:  providerID,
			Signature: signature,
			Payload:   data,
			FetchedAt: c.now(),
			TTL:       ttl,
		}
		if putErr := c.store.Put(ctx, entry); putErr != nil {
			c.logger.Warn("cache store failed",
				"provider", providerID,
				"signature", signature,
				"error", putErr,
			)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return payload.([]byte), nil
}

// GetStale returns the stored payload for the key regardless of TTL, or nil
// if no entry exists. Unit executors use this as the degraded fallback after
// a fetch failure.
func (c *Cache) GetStale(ctx context.Context, providerID, signature string) ([]byte, error) {
	entry, err := c.store.Get(ctx, providerID, signature)
	if err != nil || entry == nil {
		return nil, err
	}
	return entry.Payload, nil
}

// Invalidate drops the entry for the key so the next request refetches.
func (c *Cache) Invalidate(ctx context.Context, providerID, signature string) error {
	return c.store.Delete(ctx, providerID, signature)
}

// lookup returns a fresh entry or nil. Expired entries are treated as
// misses but left in the store: a successful refetch overwrites them, and
// until then GetStale can still serve them as the degraded fallback.
func (c *Cache) lookup(ctx context.Context, providerID, signature string) (*Entry, error) {
	entry, err := c.store.Get(ctx, providerID, signature)
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.Expired(c.now()) {
		return nil, nil
	}
	return entry, nil
}
