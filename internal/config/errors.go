package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSite is returned when no site is specified.
	// Every run analyzes exactly one site; it must come from the positional
	// argument.
	ErrNoSite = errors.New("no site specified: provide a domain to analyze")

	// ErrInvalidDays is returned when the analysis window is not positive.
	// A zero or negative window would make every period query empty.
	ErrInvalidDays = errors.New("invalid analysis window: --days must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidConcurrency is returned when the unit concurrency limit is
	// not positive. Zero concurrency would mean no unit ever executes.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidUnitTimeout is returned when the per-unit timeout is not
	// positive. A zero timeout would fail every provider fetch immediately.
	ErrInvalidUnitTimeout = errors.New("invalid unit timeout: must be positive")
)
