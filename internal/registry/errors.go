package registry

import "fmt"

// SchedulingConfigError reports a broken unit definition table: duplicate
// IDs, unknown providers, unresolvable dependencies, or a dependency cycle.
// It is fatal and can only occur at startup, never mid-run.
type SchedulingConfigError struct {
	// Unit is the offending unit ID, when attributable.
	Unit string

	// Detail describes what is wrong.
	Detail string
}

// Error implements the error interface.
func (e *SchedulingConfigError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("scheduling config error: unit %s: %s", e.Unit, e.Detail)
	}
	return fmt.Sprintf("scheduling config error: %s", e.Detail)
}
