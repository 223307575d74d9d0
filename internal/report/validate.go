package report

import (
	"fmt"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/registry"
)

// Validate checks the run state against the document contract before any
// writer renders it. The engine calls it once per run; the markdown writer
// repeats the check so it can never emit a malformed document.
//
// Checked invariants:
//   - every registered unit appears in exactly one of the executed results
//     or the skipped list (the scheduler's partition property),
//   - every rendered metric carries a source annotation,
//   - a score implies the unit actually executed,
//   - the action plan exists and holds all three sprints.
func Validate(reg *registry.Registry, report *model.RunReport) error {
	if report == nil {
		return &AssemblyContractViolation{Stage: "validate", Detail: "nil run report"}
	}

	seen := make(map[string]string, len(report.UnitResults)+len(report.Skipped))
	for _, res := range report.UnitResults {
		if res == nil {
			return &AssemblyContractViolation{Stage: "validate", Detail: "nil unit result"}
		}
		if reg.Lookup(res.UnitID) == nil {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("result for unregistered unit %q", res.UnitID)}
		}
		if _, dup := seen[res.UnitID]; dup {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("unit %s appears twice", res.UnitID)}
		}
		seen[res.UnitID] = "executed"

		if res.Score != nil && !res.Status.Executed() {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("unit %s carries a score but did not execute", res.UnitID)}
		}
		for name, metric := range res.RawMetrics {
			if metric.Annotation == "" {
				return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("metric %s/%s has no source annotation", res.UnitID, name)}
			}
		}
	}

	for _, sk := range report.Skipped {
		if reg.Lookup(sk.UnitID) == nil {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("skip entry for unregistered unit %q", sk.UnitID)}
		}
		if _, dup := seen[sk.UnitID]; dup {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("unit %s appears twice", sk.UnitID)}
		}
		if sk.Reason == "" {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("skip entry for %s has no reason", sk.UnitID)}
		}
		seen[sk.UnitID] = "skipped"
	}

	for _, u := range reg.Units() {
		if _, ok := seen[u.ID]; !ok {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("unit %s is in neither the executed nor the skipped set", u.ID)}
		}
	}

	if report.Plan == nil {
		return &AssemblyContractViolation{Stage: "validate", Detail: "run report has no action plan"}
	}
	for _, bucket := range model.SprintOrder {
		if _, ok := report.Plan.Sprints[bucket]; !ok {
			return &AssemblyContractViolation{Stage: "validate", Detail: fmt.Sprintf("action plan is missing the %s sprint", bucket)}
		}
	}

	return nil
}
