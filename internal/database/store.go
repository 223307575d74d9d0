package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/seo-intel/seointel/internal/cache"
	"github.com/seo-intel/seointel/internal/model"
)

// IntelDB provides SQLite-based storage for cached provider responses and
// run history. It manages connection pooling and provides methods for CRUD
// operations.
//
// Design decision: We use a single database file for all sites rather than
// one file per site. This keeps cross-site queries (history listing, cache
// pruning) simple and makes backup a single-file operation.
type IntelDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures IntelDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an IntelDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*IntelDB, error) {
	dbPath := filepath.Join(dbDir, "seointel.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idb := &IntelDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := idb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return idb, nil
}

// Close closes the database connection.
func (idb *IntelDB) Close() error {
	return idb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (idb *IntelDB) createTables() error {
	schema := `
	-- Cached provider responses keyed by provider and query signature
	CREATE TABLE IF NOT EXISTS cache_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		signature TEXT NOT NULL,
		payload BLOB NOT NULL,
		fetched_at DATETIME NOT NULL,
		ttl_seconds INTEGER NOT NULL,
		UNIQUE(provider, signature)
	);

	CREATE INDEX IF NOT EXISTS idx_cache_provider ON cache_entries(provider);
	CREATE INDEX IF NOT EXISTS idx_cache_fetched ON cache_entries(fetched_at);

	-- Run history stores complete run reports as JSON
	CREATE TABLE IF NOT EXISTS run_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		site TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		report_json TEXT NOT NULL,
		score_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON run_history(site);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON run_history(started_at);
	`

	_, err := idb.db.ExecContext(context.Background(), schema)
	return err
}

// Get implements cache.Store. It returns the entry for the key, or nil if
// absent. Expiry is the cache layer's concern.
func (idb *IntelDB) Get(ctx context.Context, providerID, signature string) (*cache.Entry, error) {
	query := `
	SELECT payload, fetched_at, ttl_seconds
	FROM cache_entries
	WHERE provider = ? AND signature = ?
	`

	var payload []byte
	var fetchedAt string
	var ttlSeconds int64

	err := idb.db.QueryRowContext(ctx, query, providerID, signature).Scan(&payload, &fetchedAt, &ttlSeconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	return &cache.Entry{
		Provider:  providerID,
		Signature: signature,
		Payload:   payload,
		FetchedAt: parseTimestamp(fetchedAt),
		TTL:       time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// Put implements cache.Store. It stores or replaces the entry for its key.
func (idb *IntelDB) Put(ctx context.Context, entry *cache.Entry) error {
	query := `
	INSERT INTO cache_entries (provider, signature, payload, fetched_at, ttl_seconds)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(provider, signature) DO UPDATE SET
		payload = excluded.payload,
		fetched_at = excluded.fetched_at,
		ttl_seconds = excluded.ttl_seconds
	`

	_, err := idb.db.ExecContext(ctx, query,
		entry.Provider,
		entry.Signature,
		entry.Payload,
		entry.FetchedAt.UTC().Format("2006-01-02 15:04:05"),
		int64(entry.TTL/time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// Delete implements cache.Store. Deleting an absent key is not an error.
func (idb *IntelDB) Delete(ctx context.Context, providerID, signature string) error {
	query := `DELETE FROM cache_entries WHERE provider = ? AND signature = ?`

	if _, err := idb.db.ExecContext(ctx, query, providerID, signature); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PruneCache removes cache entries fetched before the cutoff. It returns
// the number of removed entries.
func (idb *IntelDB) PruneCache(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM cache_entries WHERE fetched_at < ?`

	result, err := idb.db.ExecContext(ctx, query, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}

// SaveRun saves a complete run report as JSON.
func (idb *IntelDB) SaveRun(ctx context.Context, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}

	summary := make(map[string]int, len(report.DimensionScores))
	for dim, score := range report.DimensionScores {
		summary[string(dim)] = score
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // summary is a simple map; Marshal won't fail

	query := `
	INSERT INTO run_history (run_id, site, mode, started_at, report_json, score_summary)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = idb.db.ExecContext(ctx, query,
		report.RunID,
		report.Site,
		string(report.Mode),
		report.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}
	return nil
}

// GetLatestRun retrieves the most recent run report for a site.
func (idb *IntelDB) GetLatestRun(ctx context.Context, site string) (*model.RunReport, error) {
	query := `
	SELECT report_json FROM run_history
	WHERE site = ?
	ORDER BY started_at DESC
	LIMIT 1
	`

	var reportJSON string
	err := idb.db.QueryRowContext(ctx, query, site).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &report, nil
}

// GetRunByID retrieves a run report by its run ID.
func (idb *IntelDB) GetRunByID(ctx context.Context, runID string) (*model.RunReport, error) {
	query := `SELECT report_json FROM run_history WHERE run_id = ?`

	var reportJSON string
	err := idb.db.QueryRowContext(ctx, query, runID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &report, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading full reports.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// RunID is the run's UUID.
	RunID string

	// Site is the analyzed site.
	Site string

	// Mode is the execution mode of the run.
	Mode string

	// StartedAt is when the run started.
	StartedAt time.Time

	// ScoreSummary maps dimension names to their aggregated scores.
	ScoreSummary map[string]int
}

// ListRuns retrieves run metadata for a site, most recent first.
func (idb *IntelDB) ListRuns(ctx context.Context, site string) ([]RunMetadata, error) {
	query := `
	SELECT id, run_id, site, mode, started_at, score_summary
	FROM run_history
	WHERE site = ?
	ORDER BY started_at DESC
	`

	rows, err := idb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.RunID, &meta.Site, &meta.Mode, &startedAt, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)

		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.ScoreSummary); err != nil {
				meta.ScoreSummary = make(map[string]int)
			}
		} else {
			meta.ScoreSummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListSites returns all sites with at least one stored run, sorted.
func (idb *IntelDB) ListSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM run_history
	ORDER BY site
	`

	rows, err := idb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
