package baseline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/seo-intel/seointel/internal/model"
)

// SnapshotCorruptionError reports an unreadable baseline snapshot. The
// engine treats it as "no baseline": the run proceeds as a first run and
// the report carries a warning instead of deltas.
type SnapshotCorruptionError struct {
	// Path is the corrupted snapshot file.
	Path string

	// Err is the underlying parse error.
	Err error
}

// Error implements the error interface.
func (e *SnapshotCorruptionError) Error() string {
	return fmt.Sprintf("baseline snapshot %s is corrupted: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *SnapshotCorruptionError) Unwrap() error { return e.Err }

// Store manages baseline snapshots under a single directory, one file per
// site. A per-site mutex serializes the read-swap sequence so concurrent
// runs against the same site cannot interleave saves.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first save.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// siteLock returns the mutex for one site, creating it on first use.
func (s *Store) siteLock(siteID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[siteID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[siteID] = lock
	}
	return lock
}

// path returns the snapshot file for a site. Site IDs are domains; the
// separator swap keeps subdomain baselines in distinct flat files.
func (s *Store) path(siteID string) string {
	name := strings.ReplaceAll(siteID, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, "baseline-"+name+".json")
}

// Load returns the current snapshot for a site. A missing snapshot returns
// (nil, nil): first runs are normal, not errors. An unreadable snapshot
// returns a SnapshotCorruptionError.
func (s *Store) Load(siteID string) (*model.Snapshot, error) {
	lock := s.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	path := s.path(siteID)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the configured baseline dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &SnapshotCorruptionError{Path: path, Err: err}
	}
	if snap.SiteID == "" || snap.Timestamp.IsZero() {
		return nil, &SnapshotCorruptionError{Path: path, Err: fmt.Errorf("missing site or timestamp")}
	}
	return &snap, nil
}

// Save atomically replaces the site's snapshot. The write goes to a
// temporary file in the same directory followed by a rename, so a reader
// observes either the old or the new baseline, never a partial file.
func (s *Store) Save(snap *model.Snapshot) error {
	if snap == nil || snap.SiteID == "" {
		return fmt.Errorf("snapshot must carry a site")
	}

	lock := s.siteLock(snap.SiteID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create baseline directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "baseline-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(snap.SiteID)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to swap snapshot: %w", err)
	}

	s.logger.Debug("baseline saved", "site", snap.SiteID, "timestamp", snap.Timestamp)
	return nil
}
