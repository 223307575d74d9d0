// Package log provides secure logging utilities built on log/slog.
//
// The SecureHandler wraps any slog.Handler and masks provider API keys and
// other credentials before records reach the underlying handler, so log
// output is safe to share when reporting issues.
package log
