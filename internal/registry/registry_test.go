package registry

import (
	"errors"
	"testing"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
)

// allAvailable returns a capability map with every provider available.
func allAvailable() map[string]model.ProviderCapability {
	caps := make(map[string]model.ProviderCapability, len(provider.All))
	for _, id := range provider.All {
		caps[id] = model.ProviderCapability{ProviderID: id, State: model.CapabilityAvailable}
	}
	return caps
}

// TestNewValidatesBuiltinTable tests that the built-in definitions pass
// validation.
func TestNewValidatesBuiltinTable(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatalf("built-in table must validate: %v", err)
	}

	units := r.Units()
	if len(units) != 12 {
		t.Fatalf("units: got %d, want 12", len(units))
	}

	// Registration index is the report order and starts at 1.
	for i, u := range units {
		if u.Index != i+1 {
			t.Errorf("unit %s index: got %d, want %d", u.ID, u.Index, i+1)
		}
	}

	if r.Lookup(UnitActionPlan) == nil {
		t.Error("action-plan must be registered")
	}
	if got := r.Title(UnitSERPRadar); got != "SERP Radar" {
		t.Errorf("title: got %q", got)
	}
	if got := r.Title("unknown-unit"); got != "unknown-unit" {
		t.Errorf("unknown title falls back to ID, got %q", got)
	}
}

// TestNewRejectsBrokenTables tests the startup validation failures.
func TestNewRejectsBrokenTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		defs []Unit
	}{
		{
			name: "duplicate ID",
			defs: []Unit{
				{ID: "a", Modes: []model.Mode{model.ModeFull}},
				{ID: "a", Modes: []model.Mode{model.ModeFull}},
			},
		},
		{
			name: "unknown provider",
			defs: []Unit{
				{ID: "a", RequiredProviders: []string{"fax-machine"}, Modes: []model.Mode{model.ModeFull}},
			},
		},
		{
			name: "unknown dependency",
			defs: []Unit{
				{ID: "a", DependsOn: []string{"ghost"}, Modes: []model.Mode{model.ModeFull}},
			},
		},
		{
			name: "no modes",
			defs: []Unit{
				{ID: "a"},
			},
		},
		{
			name: "dependency cycle",
			defs: []Unit{
				{ID: "a", DependsOn: []string{"b"}, Modes: []model.Mode{model.ModeFull}},
				{ID: "b", DependsOn: []string{"a"}, Modes: []model.Mode{model.ModeFull}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newFrom(tt.defs)
			var sce *SchedulingConfigError
			if !errors.As(err, &sce) {
				t.Errorf("got %v, want SchedulingConfigError", err)
			}
		})
	}
}

// TestSchedulePartition tests that every registered unit lands in exactly
// one of runnable or skipped.
func TestSchedulePartition(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range model.AllModes {
		plan, err := r.Schedule(mode, allAvailable(), map[string]bool{PredicateLocalNiche: true})
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}

		seen := make(map[string]int)
		for _, id := range plan.RunnableIDs() {
			seen[id]++
		}
		for _, s := range plan.Skipped {
			seen[s.UnitID]++
		}

		if len(seen) != 12 {
			t.Errorf("mode %s: partition covers %d units, want 12", mode, len(seen))
		}
		for id, n := range seen {
			if n != 1 {
				t.Errorf("mode %s: unit %s appears %d times", mode, id, n)
			}
		}
	}
}

// TestScheduleFullMode tests the full-mode plan with all providers usable.
func TestScheduleFullMode(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	plan, err := r.Schedule(model.ModeFull, allAvailable(), map[string]bool{PredicateLocalNiche: true})
	if err != nil {
		t.Fatal(err)
	}

	if plan.RunnableCount() != 12 {
		t.Errorf("runnable: got %d, want 12", plan.RunnableCount())
	}
	if len(plan.Skipped) != 0 {
		t.Errorf("skipped: got %v, want none", plan.Skipped)
	}

	// Dependencies order layers: keyword-movement before serp-radar,
	// action-plan alone in the final layer.
	layerOf := make(map[string]int)
	for i, layer := range plan.Layers {
		for _, u := range layer {
			layerOf[u.ID] = i
		}
	}
	if layerOf[UnitKeywordMovement] >= layerOf[UnitSERPRadar] {
		t.Error("keyword-movement must run before serp-radar")
	}
	last := plan.Layers[len(plan.Layers)-1]
	if len(last) != 1 || last[0].ID != UnitActionPlan {
		t.Errorf("final layer must be action-plan alone, got %v", last)
	}
}

// TestScheduleMissingRequiredProvider tests capability gating.
func TestScheduleMissingRequiredProvider(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	caps := allAvailable()
	caps[provider.SearchPerformance] = model.ProviderCapability{
		ProviderID: provider.SearchPerformance,
		State:      model.CapabilityUnavailable,
	}

	plan, err := r.Schedule(model.ModeFull, caps, map[string]bool{PredicateLocalNiche: true})
	if err != nil {
		t.Fatal(err)
	}

	skippedReasons := make(map[string]model.SkipReason)
	for _, s := range plan.Skipped {
		skippedReasons[s.UnitID] = s.Reason
	}

	// Units requiring search-performance are skipped.
	for _, id := range []string{UnitSearchVisibility, UnitKeywordMovement, UnitContentHealth} {
		if skippedReasons[id] != model.SkipMissingRequiredProvider {
			t.Errorf("%s: got reason %q, want missing_required_provider", id, skippedReasons[id])
		}
	}

	// serp-radar only optionally uses search-performance and must still
	// run, even though its dependency keyword-movement was skipped.
	for _, id := range plan.RunnableIDs() {
		if id == UnitSERPRadar {
			return
		}
	}
	t.Error("serp-radar should remain runnable")
}

// TestScheduleDegradedProviderStillRuns tests that degraded capability does
// not gate units.
func TestScheduleDegradedProviderStillRuns(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	caps := allAvailable()
	caps[provider.WebSearch] = model.ProviderCapability{
		ProviderID: provider.WebSearch,
		State:      model.CapabilityDegraded,
	}

	plan, err := r.Schedule(model.ModeFull, caps, map[string]bool{PredicateLocalNiche: true})
	if err != nil {
		t.Fatal(err)
	}
	if plan.RunnableCount() != 12 {
		t.Errorf("degraded provider must not skip units: %d runnable", plan.RunnableCount())
	}
}

// TestSchedulePrecondition tests conditional unit gating.
func TestSchedulePrecondition(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	plan, err := r.Schedule(model.ModeFull, allAvailable(), map[string]bool{})
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, s := range plan.Skipped {
		if s.UnitID == UnitLocalPresence {
			found = true
			if s.Reason != model.SkipPreconditionFalse {
				t.Errorf("reason: got %q, want conditional_precondition_false", s.Reason)
			}
		}
	}
	if !found {
		t.Error("local-presence should be skipped without the local-niche predicate")
	}
}

// TestScheduleModeFiltering tests mode membership for the narrow modes.
func TestScheduleModeFiltering(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		mode model.Mode
		want []string
	}{
		{model.ModeDelta, []string{UnitSearchVisibility, UnitKeywordMovement, UnitSERPRadar, UnitActionPlan}},
		{model.ModeBacklinks, []string{UnitBacklinkAuthority, UnitActionPlan}},
		{model.ModePricing, []string{UnitPriceBenchmark, UnitActionPlan}},
		{model.ModeRadar, []string{UnitSERPRadar, UnitActionPlan}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()

			plan, err := r.Schedule(tt.mode, allAvailable(), map[string]bool{PredicateLocalNiche: true})
			if err != nil {
				t.Fatal(err)
			}

			got := plan.RunnableIDs()
			if len(got) != len(tt.want) {
				t.Fatalf("runnable: got %v, want %v", got, tt.want)
			}
			wantSet := make(map[string]bool, len(tt.want))
			for _, id := range tt.want {
				wantSet[id] = true
			}
			for _, id := range got {
				if !wantSet[id] {
					t.Errorf("unexpected runnable unit %s", id)
				}
			}

			// Every excluded unit carries the mode reason.
			for _, s := range plan.Skipped {
				if s.Reason != model.SkipModeExcludesUnit {
					t.Errorf("unit %s: got reason %q, want mode_excludes_unit", s.UnitID, s.Reason)
				}
			}
		})
	}
}
