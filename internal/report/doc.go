// Package report assembles run results into output documents.
//
// Assembly is a pure function of the accumulated run state: writers never
// query providers and never read the wall clock, so rendering the same run
// twice produces byte-identical documents. The markdown document follows a
// fixed stage order ending with a machine-readable metadata block, and every
// rendered data value carries a source annotation. Structural violations are
// AssemblyContractViolation errors and abort the run; emitting a malformed
// document is worse than emitting none.
package report
