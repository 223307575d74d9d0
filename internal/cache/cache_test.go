package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// TestGetOrFetchHitWithinTTL tests that the second request for a fixed key
// within the TTL window never invokes the fetch function.
func TestGetOrFetchHitWithinTTL(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fetch := func(_ context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(`{"clicks":42}`), nil
	}

	c := New(NewMemoryStore())
	ctx := context.Background()

	first, err := c.GetOrFetch(ctx, "search-performance", "kind-abc123", time.Hour, fetch)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.GetOrFetch(ctx, "search-performance", "kind-abc123", time.Hour, fetch)
	if err != nil {
		t.Fatal(err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls: got %d, want 1", got)
	}
	if string(first) != string(second) {
		t.Errorf("payload changed between hits: %q vs %q", first, second)
	}
}

// TestGetOrFetchExpiry tests that crossing the TTL boundary refetches.
func TestGetOrFetchExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	var calls atomic.Int32
	fetch := func(_ context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("payload"), nil
	}

	c := New(NewMemoryStore(), WithClock(clock))
	ctx := context.Background()

	if _, err := c.GetOrFetch(ctx, "web-search", "kind-sig", time.Minute, fetch); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()

	if _, err := c.GetOrFetch(ctx, "web-search", "kind-sig", time.Minute, fetch); err != nil {
		t.Fatal(err)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("fetch calls: got %d, want 2", got)
	}
}

// TestGetOrFetchConcurrentDedup tests that concurrent misses for the same
// key collapse to a single fetch.
func TestGetOrFetchConcurrentDedup(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(_ context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	}

	c := New(NewMemoryStore())
	ctx := context.Background()

	var eg errgroup.Group
	for range 8 {
		eg.Go(func() error {
			_, err := c.GetOrFetch(ctx, "link-authority", "kind-dedup", time.Hour, fetch)
			return err
		})
	}

	// Give the goroutines time to pile onto the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)

	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls: got %d, want 1", got)
	}
}

// TestGetOrFetchErrorNotCached tests that a fetch failure propagates and
// leaves nothing behind in the store.
func TestGetOrFetchErrorNotCached(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("upstream 503")
	store := NewMemoryStore()
	c := New(store)
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "web-search", "kind-err", time.Hour, func(_ context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
	if store.Len() != 0 {
		t.Errorf("failed fetch must not be stored, got %d entries", store.Len())
	}

	// The next call retries rather than replaying the failure.
	payload, err := c.GetOrFetch(ctx, "web-search", "kind-err", time.Hour, func(_ context.Context) ([]byte, error) {
		return []byte("recovered"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "recovered" {
		t.Errorf("got %q, want recovered", payload)
	}
}

// TestGetStale tests the degraded fallback path: an expired entry is a miss
// for the fresh path but still readable through GetStale.
func TestGetStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	c := New(NewMemoryStore(), WithClock(clock))
	ctx := context.Background()

	if _, err := c.GetOrFetch(ctx, "search-performance", "kind-stale", time.Minute, func(_ context.Context) ([]byte, error) {
		return []byte("old data"), nil
	}); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	_, err := c.GetOrFetch(ctx, "search-performance", "kind-stale", time.Minute, func(_ context.Context) ([]byte, error) {
		return nil, errors.New("provider timed out")
	})
	if err == nil {
		t.Fatal("expected fetch failure to propagate")
	}

	stale, err := c.GetStale(ctx, "search-performance", "kind-stale")
	if err != nil {
		t.Fatal(err)
	}
	if string(stale) != "old data" {
		t.Errorf("got %q, want old data", stale)
	}
}

// TestGetStaleAbsent tests that GetStale on an unknown key returns nil.
func TestGetStaleAbsent(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	payload, err := c.GetStale(context.Background(), "web-search", "kind-nope")
	if err != nil {
		t.Fatal(err)
	}
	if payload != nil {
		t.Errorf("got %q, want nil", payload)
	}
}

// TestInvalidate tests that invalidation forces a refetch.
func TestInvalidate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fetch := func(_ context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("v"), nil
	}

	c := New(NewMemoryStore())
	ctx := context.Background()

	if _, err := c.GetOrFetch(ctx, "web-search", "kind-inv", time.Hour, fetch); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(ctx, "web-search", "kind-inv"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrFetch(ctx, "web-search", "kind-inv", time.Hour, fetch); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("fetch calls: got %d, want 2", got)
	}
}

// TestKeyIsolation tests that distinct providers with the same signature do
// not share entries.
func TestKeyIsolation(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	ctx := context.Background()

	a, err := c.GetOrFetch(ctx, "web-search", "kind-same", time.Hour, func(_ context.Context) ([]byte, error) {
		return []byte("from web-search"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.GetOrFetch(ctx, "page-performance", "kind-same", time.Hour, func(_ context.Context) ([]byte, error) {
		return []byte("from page-performance"), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if string(a) == string(b) {
		t.Error("providers must not share cache entries")
	}
}

// TestRefresh tests that Refresh always fetches and that a failed refresh
// keeps the previous entry available as a stale fallback.
func TestRefresh(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	ctx := context.Background()

	if _, err := c.GetOrFetch(ctx, "web-search", "kind-ref", time.Hour, func(_ context.Context) ([]byte, error) {
		return []byte("first"), nil
	}); err != nil {
		t.Fatal(err)
	}

	// A fresh entry exists, but Refresh must fetch anyway.
	got, err := c.Refresh(ctx, "web-search", "kind-ref", time.Hour, func(_ context.Context) ([]byte, error) {
		return []byte("second"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("refresh payload: got %q, want %q", got, "second")
	}

	// A failed refresh leaves the stored entry in place.
	if _, err := c.Refresh(ctx, "web-search", "kind-ref", time.Hour, func(_ context.Context) ([]byte, error) {
		return nil, errors.New("provider down")
	}); err == nil {
		t.Fatal("expected refresh error")
	}
	stale, err := c.GetStale(ctx, "web-search", "kind-ref")
	if err != nil {
		t.Fatal(err)
	}
	if string(stale) != "second" {
		t.Errorf("stale after failed refresh: got %q, want %q", stale, "second")
	}
}
