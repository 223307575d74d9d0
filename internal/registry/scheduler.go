package registry

import (
	"fmt"
	"strings"

	"github.com/seo-intel/seointel/internal/model"
)

// Plan is the scheduler's output: ordered layers of runnable units plus
// skip records. Every registered unit appears in exactly one of the two.
type Plan struct {
	// Layers are the execution layers. Units within a layer have no
	// dependencies on each other; layers must run in order.
	Layers [][]Unit

	// Skipped lists excluded units with machine-readable reasons.
	Skipped []model.SkippedUnit
}

// RunnableCount returns the number of units across all layers.
func (p *Plan) RunnableCount() int {
	n := 0
	for _, layer := range p.Layers {
		n += len(layer)
	}
	return n
}

// RunnableIDs returns the IDs of all runnable units in layer order.
func (p *Plan) RunnableIDs() []string {
	ids := make([]string, 0, p.RunnableCount())
	for _, layer := range p.Layers {
		for _, u := range layer {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// Schedule partitions the registered units for one run.
//
// A unit is runnable when the mode includes it, its precondition (if any)
// holds, and every required provider is usable. Everything else lands in
// Skipped with the applicable reason. Optional providers never gate a unit.
//
// Dependencies on skipped units are dropped rather than propagated: a unit
// whose dependency was skipped still runs and handles the missing input
// itself. The scheduler never returns an error for capability or mode
// conditions; those are data in the plan.
func (r *Registry) Schedule(mode model.Mode, caps map[string]model.ProviderCapability, preds map[string]bool) (*Plan, error) {
	plan := &Plan{}
	runnable := make(map[string]bool, len(r.units))

	for i := range r.units {
		u := &r.units[i]

		if !u.InMode(mode) {
			plan.Skipped = append(plan.Skipped, model.SkippedUnit{
				UnitID: u.ID,
				Reason: model.SkipModeExcludesUnit,
				Detail: fmt.Sprintf("not part of %s mode", mode),
			})
			continue
		}

		if u.Precondition != "" && !preds[u.Precondition] {
			plan.Skipped = append(plan.Skipped, model.SkippedUnit{
				UnitID: u.ID,
				Reason: model.SkipPreconditionFalse,
				Detail: fmt.Sprintf("precondition %s does not hold", u.Precondition),
			})
			continue
		}

		if missing := missingRequired(u, caps); len(missing) > 0 {
			plan.Skipped = append(plan.Skipped, model.SkippedUnit{
				UnitID: u.ID,
				Reason: model.SkipMissingRequiredProvider,
				Detail: fmt.Sprintf("requires %s", strings.Join(missing, ", ")),
			})
			continue
		}

		runnable[u.ID] = true
	}

	layerIDs, err := topoLayers(r.units, func(u *Unit) bool { return runnable[u.ID] })
	if err != nil {
		return nil, err
	}

	for _, ids := range layerIDs {
		layer := make([]Unit, 0, len(ids))
		for _, id := range ids {
			layer = append(layer, *r.byID[id])
		}
		plan.Layers = append(plan.Layers, layer)
	}

	return plan, nil
}

// missingRequired returns the required providers that are not usable.
// A provider absent from the mapping counts as missing; its zero state
// would otherwise read as available.
func missingRequired(u *Unit, caps map[string]model.ProviderCapability) []string {
	var missing []string
	for _, p := range u.RequiredProviders {
		c, ok := caps[p]
		if !ok || !c.State.Usable() {
			missing = append(missing, p)
		}
	}
	return missing
}
