package provider

import (
	"errors"
	"fmt"
)

// FetchError is a transient provider failure surfaced to unit executors.
// The fetch collaborator retries at most once before returning it; the
// executor then decides between the stale-cache fallback and the
// partial-result path. A FetchError never aborts the run.
type FetchError struct {
	// Provider is the provider that failed.
	Provider string

	// Signature is the query signature of the failed request.
	Signature string

	// Timeout marks failures caused by the per-run provider timeout.
	// A timeout converts the provider to degraded for the rest of the run.
	Timeout bool

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("fetch from %s timed out (query %s): %v", e.Provider, e.Signature, e.Err)
	}
	return fmt.Sprintf("fetch from %s failed (query %s): %v", e.Provider, e.Signature, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// CapabilityError marks a provider whose credentials are missing or invalid.
// It is handled by marking the provider unavailable; it is never fatal.
type CapabilityError struct {
	// Provider is the affected provider.
	Provider string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("provider %s not usable: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// SoftError marks a probe that succeeded against existing credentials but
// reported a degradation, e.g. a quota warning. The capability resolver maps
// it to the degraded state: the provider is still used, but flagged.
type SoftError struct {
	// Provider is the affected provider.
	Provider string

	// Warning is the provider's own description of the degradation.
	Warning string
}

// Error implements the error interface.
func (e *SoftError) Error() string {
	return fmt.Sprintf("provider %s degraded: %s", e.Provider, e.Warning)
}

// IsTimeout reports whether err is a FetchError caused by a timeout.
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Timeout
}
