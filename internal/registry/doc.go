// Package registry holds the static analysis unit definitions and the
// scheduler that turns them into an executable plan.
//
// Units are registered in a fixed table; the registration index doubles as
// the report section order. The registry validates itself at construction
// (unique IDs, known providers and modes, resolvable dependencies, no
// cycles) so a bad definition fails at startup, never mid-run.
//
// Schedule partitions every registered unit for a given mode into ordered
// runnable layers plus skipped entries with machine-readable reasons. Units
// in the same layer have no dependencies on each other and may execute
// concurrently.
package registry
