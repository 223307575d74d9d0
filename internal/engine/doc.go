// Package engine orchestrates one analysis run end to end.
//
// A run resolves provider capabilities once, schedules the registered units
// into dependency layers, executes each layer concurrently with payloads
// resolved through the cache, aggregates scores, diffs against the site's
// baseline, and persists the snapshot and run history. Provider failures
// degrade individual units; only scheduling and document contract
// violations abort a run.
package engine
