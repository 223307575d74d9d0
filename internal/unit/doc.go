// Package unit implements the analysis unit executors.
//
// Executors follow a uniform contract: they declare the provider requests
// they need, then turn already-resolved payloads into a normalized result.
// Executors never talk to the network; the engine resolves every request
// through the cache before Execute runs, so executors stay deterministic
// and testable with literal payloads.
//
// Scoring is table-driven: metric values are classified against the
// thresholds from the analysis config and each band contributes a fixed
// amount to the unit score. A unit that received only part of its required
// inputs completes as partial with its score computed over the metrics it
// has, so a missing provider lowers confidence, not the score.
package unit
