package registry

import (
	"fmt"
	"sort"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
)

// Predicate names referenced by unit preconditions.
const (
	// PredicateLocalNiche is true when the declared niche marks the site
	// as locally oriented.
	PredicateLocalNiche = "local-niche"
)

// Well-known unit IDs. Executors and report assembly reference units by
// these IDs; the registry index determines report order.
const (
	UnitSearchVisibility  = "search-visibility"
	UnitPageExperience    = "page-experience"
	UnitKeywordMovement   = "keyword-movement"
	UnitTechnicalCrawl    = "technical-crawl"
	UnitContentHealth     = "content-health"
	UnitCompetitorStack   = "competitor-stack"
	UnitReputationWatch   = "reputation-watch"
	UnitPriceBenchmark    = "price-benchmark"
	UnitBacklinkAuthority = "backlink-authority"
	UnitLocalPresence     = "local-presence"
	UnitSERPRadar         = "serp-radar"
	UnitActionPlan        = "action-plan"
)

// Unit is one registered analysis unit.
type Unit struct {
	// ID is the unit's stable identifier.
	ID string

	// Index is the registration index. Report sections render in ascending
	// index order.
	Index int

	// Title is the human-readable section title.
	Title string

	// RequiredProviders must all be usable for the unit to run.
	RequiredProviders []string

	// OptionalProviders enrich the unit when usable but never gate it.
	OptionalProviders []string

	// Modes lists the execution modes that include this unit.
	Modes []model.Mode

	// Dimension is the score dimension the unit contributes to. Empty for
	// units that produce no score.
	Dimension model.Dimension

	// DependsOn lists unit IDs whose results this unit consumes.
	DependsOn []string

	// Precondition names a predicate that must hold for the unit to run.
	// Empty means unconditional.
	Precondition string
}

// InMode reports whether the unit runs in the given mode.
func (u *Unit) InMode(mode model.Mode) bool {
	for _, m := range u.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// allModes is shorthand for units included in every mode.
var allModes = model.AllModes

// definitions is the static unit table. Order here is report order.
//
// Mode membership: full includes everything; delta covers the monitoring
// subset; the narrow modes each select their namesake unit. The action plan
// is a member of every mode so reports always close with one.
var definitions = []Unit{
	{
		ID:                UnitSearchVisibility,
		Title:             "Search Visibility",
		RequiredProviders: []string{provider.SearchPerformance},
		OptionalProviders: []string{provider.WebSearch},
		Modes:             []model.Mode{model.ModeFull, model.ModeDelta},
		Dimension:         model.DimensionSEO,
	},
	{
		ID:                UnitPageExperience,
		Title:             "Page Experience",
		RequiredProviders: []string{provider.PagePerformance},
		OptionalProviders: []string{provider.WebSearch},
		Modes:             []model.Mode{model.ModeFull, model.ModeCompetitor, model.ModePerformance, model.ModeTechnical},
		Dimension:         model.DimensionTechnical,
	},
	{
		ID:                UnitKeywordMovement,
		Title:             "Keyword Movement",
		RequiredProviders: []string{provider.SearchPerformance},
		Modes:             []model.Mode{model.ModeFull, model.ModeDelta, model.ModeKeywords},
		Dimension:         model.DimensionSEO,
	},
	{
		ID:                UnitTechnicalCrawl,
		Title:             "Technical Crawl",
		RequiredProviders: []string{provider.WebSearch},
		Modes:             []model.Mode{model.ModeFull, model.ModeTechnical},
		Dimension:         model.DimensionTechnical,
	},
	{
		ID:                UnitContentHealth,
		Title:             "Content Health",
		RequiredProviders: []string{provider.SearchPerformance, provider.WebSearch},
		Modes:             []model.Mode{model.ModeFull, model.ModeCompetitor, model.ModeSentiment},
		Dimension:         model.DimensionContent,
	},
	{
		ID:                UnitCompetitorStack,
		Title:             "Competitor Stack",
		RequiredProviders: []string{provider.WebSearch},
		OptionalProviders: []string{provider.PagePerformance},
		Modes:             []model.Mode{model.ModeFull, model.ModeCompetitor},
		Dimension:         model.DimensionTechnical,
	},
	{
		ID:                UnitReputationWatch,
		Title:             "Reputation Watch",
		RequiredProviders: []string{provider.WebSearch},
		Modes:             []model.Mode{model.ModeFull, model.ModeCompetitor, model.ModeSentiment},
		Dimension:         model.DimensionReputation,
	},
	{
		ID:                UnitPriceBenchmark,
		Title:             "Price Benchmark",
		RequiredProviders: []string{provider.WebSearch},
		Modes:             []model.Mode{model.ModeFull, model.ModeCompetitor, model.ModePricing},
		Dimension:         model.DimensionReputation,
	},
	{
		ID:                UnitBacklinkAuthority,
		Title:             "Backlink Authority",
		RequiredProviders: []string{provider.LinkAuthority},
		Modes:             []model.Mode{model.ModeFull, model.ModeBacklinks},
		Dimension:         model.DimensionAuthority,
	},
	{
		ID:                UnitLocalPresence,
		Title:             "Local Presence",
		RequiredProviders: []string{provider.WebSearch},
		Modes:             []model.Mode{model.ModeFull, model.ModeLocal},
		Dimension:         model.DimensionSEO,
		Precondition:      PredicateLocalNiche,
	},
	{
		ID:                UnitSERPRadar,
		Title:             "SERP Radar",
		RequiredProviders: []string{provider.WebSearch},
		OptionalProviders: []string{provider.SearchPerformance},
		Modes:             []model.Mode{model.ModeFull, model.ModeDelta, model.ModeKeywords, model.ModeRadar},
		Dimension:         model.DimensionSEO,
		DependsOn:         []string{UnitKeywordMovement},
	},
	{
		ID:        UnitActionPlan,
		Title:     "Action Plan",
		Modes:     allModes,
		DependsOn: []string{
			UnitSearchVisibility, UnitPageExperience, UnitKeywordMovement,
			UnitTechnicalCrawl, UnitContentHealth, UnitCompetitorStack,
			UnitReputationWatch, UnitPriceBenchmark, UnitBacklinkAuthority,
			UnitLocalPresence, UnitSERPRadar,
		},
	},
}

// Registry is the validated unit table.
type Registry struct {
	units []Unit
	byID  map[string]*Unit
}

// New builds and validates the built-in registry.
// Validation failures are SchedulingConfigError: they indicate a broken
// definition table and must abort startup.
func New() (*Registry, error) {
	return newFrom(definitions)
}

// newFrom builds a registry from an explicit table. Split out for tests.
func newFrom(defs []Unit) (*Registry, error) {
	r := &Registry{
		units: make([]Unit, len(defs)),
		byID:  make(map[string]*Unit, len(defs)),
	}
	copy(r.units, defs)

	for i := range r.units {
		u := &r.units[i]
		u.Index = i + 1

		if u.ID == "" {
			return nil, &SchedulingConfigError{Detail: fmt.Sprintf("unit at index %d has empty ID", i)}
		}
		if _, dup := r.byID[u.ID]; dup {
			return nil, &SchedulingConfigError{Unit: u.ID, Detail: "duplicate unit ID"}
		}
		for _, p := range append(append([]string{}, u.RequiredProviders...), u.OptionalProviders...) {
			if !provider.Known(p) {
				return nil, &SchedulingConfigError{Unit: u.ID, Detail: fmt.Sprintf("unknown provider %q", p)}
			}
		}
		if len(u.Modes) == 0 {
			return nil, &SchedulingConfigError{Unit: u.ID, Detail: "unit belongs to no mode"}
		}
		r.byID[u.ID] = u
	}

	// Dependencies must reference registered units.
	for i := range r.units {
		u := &r.units[i]
		for _, dep := range u.DependsOn {
			if _, ok := r.byID[dep]; !ok {
				return nil, &SchedulingConfigError{Unit: u.ID, Detail: fmt.Sprintf("unknown dependency %q", dep)}
			}
		}
	}

	// Cycle detection over the full dependency graph.
	if _, err := topoLayers(r.units, func(_ *Unit) bool { return true }); err != nil {
		return nil, err
	}

	return r, nil
}

// RegistrationIndex returns the 1-based registration index of a unit ID in
// the built-in table, or 0 when the ID is not registered. Consumers use it
// to order per-unit output by registration rather than lexically.
func RegistrationIndex(id string) int {
	for i := range definitions {
		if definitions[i].ID == id {
			return i + 1
		}
	}
	return 0
}

// Units returns all registered units in report order.
func (r *Registry) Units() []Unit {
	out := make([]Unit, len(r.units))
	copy(out, r.units)
	return out
}

// Lookup returns the unit with the given ID, or nil.
func (r *Registry) Lookup(id string) *Unit {
	return r.byID[id]
}

// Title returns the section title for a unit ID, falling back to the ID.
func (r *Registry) Title(id string) string {
	if u := r.byID[id]; u != nil {
		return u.Title
	}
	return id
}

// topoLayers computes dependency layers over the units selected by keep.
// Edges to unselected units are dropped: a skipped dependency never blocks
// a runnable unit. Returns SchedulingConfigError on a cycle.
func topoLayers(units []Unit, keep func(*Unit) bool) ([][]string, error) {
	selected := make(map[string]*Unit)
	for i := range units {
		if keep(&units[i]) {
			selected[units[i].ID] = &units[i]
		}
	}

	indegree := make(map[string]int, len(selected))
	dependents := make(map[string][]string, len(selected))
	for id, u := range selected {
		if _, ok := indegree[id]; !ok {
			indegree[id] = 0
		}
		for _, dep := range u.DependsOn {
			if _, ok := selected[dep]; !ok {
				continue
			}
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var layers [][]string
	remaining := len(selected)
	frontier := make([]string, 0, len(selected))
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}

	for len(frontier) > 0 {
		// Deterministic layer ordering by registration index.
		sort.Slice(frontier, func(i, j int) bool {
			return selected[frontier[i]].Index < selected[frontier[j]].Index
		})
		layers = append(layers, frontier)
		remaining -= len(frontier)

		var next []string
		for _, id := range frontier {
			for _, dependent := range dependents[id] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		frontier = next
	}

	if remaining > 0 {
		return nil, &SchedulingConfigError{Detail: "dependency cycle among units"}
	}
	return layers, nil
}
