package report

import "fmt"

// AssemblyContractViolation reports a broken structural invariant of the
// report document, e.g. a rendered value without a source annotation or a
// unit missing from both the executed and the skipped sets. It is always
// fatal for the run.
type AssemblyContractViolation struct {
	// Stage names the assembly stage that detected the violation.
	Stage string

	// Detail describes the violation.
	Detail string
}

// Error implements the error interface.
func (e *AssemblyContractViolation) Error() string {
	return fmt.Sprintf("report assembly contract violation in %s: %s", e.Stage, e.Detail)
}
