package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/seo-intel/seointel/internal/model"
)

// Default configuration values.
// These values are chosen to keep a default run within typical provider
// rate limits while still covering a meaningful analysis window.
const (
	// DefaultDays is the default analysis window in days. 30 days smooths
	// out weekly traffic cycles while staying within the retention period
	// of most search analytics providers.
	DefaultDays = 30

	// DefaultUnitTimeout bounds each unit's provider fetching. A timed-out
	// unit completes in degraded form rather than blocking the run, so the
	// bound can be tight.
	DefaultUnitTimeout = 45 * time.Second

	// DefaultMaxConcurrent is the number of units executed in parallel
	// within a scheduling layer. Higher values increase throughput but may
	// trip provider rate limits.
	DefaultMaxConcurrent = 4

	// DefaultProbeWindow bounds the total time spent probing provider
	// credentials at run start.
	DefaultProbeWindow = 10 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "seointel"
)

// Config holds all runtime options for seointel.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Site is the domain to analyze. Every run targets exactly one site.
	Site string

	// Mode selects which analysis units run. Must parse as a known mode;
	// an unknown mode is a fatal configuration error.
	Mode string

	// Competitors are competitor domains for comparative units.
	Competitors []string

	// Niche is the declared business niche. Some units only run when the
	// niche marks the site as locally oriented.
	Niche string

	// Days is the analysis window in days, counted back from the run
	// timestamp.
	Days int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .seointel in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Analysis holds tuning loaded from the config file, falling back to
	// built-in defaults when no file exists.
	Analysis *Analysis

	// JSONReport emits the raw run report as JSON instead of Markdown.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport emits the assembled Markdown report. When neither
	// JSONReport nor MarkdownReport is set, Markdown is the default output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// NoCache bypasses the provider response cache for this run. Fetched
	// responses are still stored for future runs.
	NoCache bool

	// SaveBaseline persists this run's snapshot as the new baseline even
	// when the mode would not do so on its own.
	SaveBaseline bool

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// UnitTimeout bounds provider fetching per unit.
	UnitTimeout time.Duration

	// MaxConcurrent is the number of units executed in parallel within a
	// scheduling layer.
	MaxConcurrent int
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., the analysis
// window and timeouts). This also serves as documentation of the defaults.
func NewConfig() *Config {
	return &Config{
		Mode:          string(model.ModeFull),
		Days:          DefaultDays,
		UnitTimeout:   DefaultUnitTimeout,
		MaxConcurrent: DefaultMaxConcurrent,
		Analysis:      DefaultAnalysis(),
	}
}

// XDGDataDir returns the XDG data directory for seointel.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/seointel
// On macOS: ~/Library/Application Support/seointel
// On Windows: %LOCALAPPDATA%\seointel
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for seointel.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for seointel.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// BaselineDir returns the directory holding per-site baseline snapshots.
func BaselineDir() string {
	return filepath.Join(XDGDataDir(), "baselines")
}

// ReportsDir returns the directory where report files are written when no
// explicit output path is given.
func ReportsDir() string {
	return filepath.Join(XDGDataDir(), "reports")
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any analysis begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Site == "" {
		return ErrNoSite
	}

	// An unknown mode is fatal, never silently mapped to full.
	if _, err := model.ParseMode(c.Mode); err != nil {
		return err
	}

	if c.Days <= 0 {
		return ErrInvalidDays
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxConcurrent <= 0 {
		return ErrInvalidConcurrency
	}

	if c.UnitTimeout <= 0 {
		return ErrInvalidUnitTimeout
	}

	return nil
}

// ParsedMode returns the validated execution mode.
// Callers must run Validate first; an invalid mode here falls back to the
// zero value because Validate already rejected it.
func (c *Config) ParsedMode() model.Mode {
	m, err := model.ParseMode(c.Mode)
	if err != nil {
		return model.Mode("")
	}
	return m
}

// Period returns the analysis window ending at the given run timestamp.
func (c *Config) Period(now time.Time) (start, end time.Time) {
	end = now
	start = now.AddDate(0, 0, -c.Days)
	return start, end
}
