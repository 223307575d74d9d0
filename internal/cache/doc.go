// Package cache provides the TTL-scoped provider response cache.
//
// The cache is keyed by (provider, query-signature) and is the mechanism
// that bounds external call volume per run: a hit within the entry's TTL is
// served without invoking the fetch function, and concurrent misses for the
// same key collapse to a single in-flight fetch via singleflight.
//
// TTLs are provider-specific configuration, not constants, so each provider
// family gets its own freshness policy. Expired entries are treated as
// misses but kept in place until a successful refetch overwrites them; a
// stale entry remains readable through GetStale so unit executors can elect
// it as a degraded fallback after a fetch failure.
//
// Storage is pluggable behind the Store interface: an in-memory store for
// tests and single runs, and a SQLite-backed store (internal/database) for
// persistence across runs.
package cache
