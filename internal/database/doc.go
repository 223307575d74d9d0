// Package database provides SQLite-backed storage for cached provider
// responses and run history.
//
// A single database file lives under the application data directory. The
// cache table implements the cache.Store contract so the TTL and dedup
// policy stays in internal/cache; this package only persists entries. Run
// history stores every completed run report as JSON with a score summary
// column, so listing history does not require loading full reports.
package database
