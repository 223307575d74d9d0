// Package baseline persists the per-site reference snapshot and computes
// deltas between runs.
//
// Exactly one snapshot is current per site. Saving writes a temporary file
// in the same directory and renames it over the old snapshot, so a crash
// mid-write can never corrupt the previous baseline. A snapshot that fails
// to parse is reported as corrupted and the run proceeds as a first run
// rather than aborting.
package baseline
