// Package capability resolves per-provider availability at run start.
//
// The resolver probes configured credentials exactly once per run and maps
// each probe outcome to a tri-state capability: available, degraded, or
// unavailable. The mapping is immutable for the rest of the run; runtime
// degradation caused by fetch timeouts is tracked separately by the engine.
//
// A probe must never abort the run: probe errors and even panics are caught
// and mapped to the unavailable state with a reason.
package capability
