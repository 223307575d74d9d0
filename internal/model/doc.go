// Package model defines the core data structures used throughout seointel.
//
// This package contains the following main types:
//   - UnitResult: The normalized output of one analysis unit
//   - Issue: A single remediation finding derived by a unit
//   - Snapshot: The persisted baseline for a site
//   - DeltaRecord: A change computed between a baseline and the current run
//   - RunReport: The accumulated state of one engine run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (capability, registry, unit, score,
// baseline, report) need to use these types, so centralizing them prevents
// import cycles.
//
// The models are designed to be serializable to JSON for report output,
// snapshot persistence, and database storage.
package model
