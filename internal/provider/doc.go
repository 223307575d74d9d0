// Package provider defines the boundary to external data providers.
//
// The engine consumes every provider through the same narrow contract: a
// Fetcher that turns a Query into a raw JSON payload or a typed FetchError.
// The core never knows provider-specific request shapes beyond the declared
// provider identifiers; the actual API clients are thin I/O wrappers kept
// outside the analysis engine.
//
// Design decision: We use typed error structs (FetchError, CapabilityError)
// with Unwrap support rather than sentinel values because callers need the
// provider and query context to decide between the stale-cache fallback and
// the partial-result path.
package provider
