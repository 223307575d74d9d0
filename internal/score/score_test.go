package score

import (
	"testing"

	"github.com/seo-intel/seointel/internal/config"
	"github.com/seo-intel/seointel/internal/model"
)

func scored(unitID string, status model.Status, score int) *model.UnitResult {
	res := model.NewUnitResult(unitID)
	res.SetStatus(status)
	res.SetScore(score)
	return res
}

// TestAggregate tests the weighted mean over executed units.
func TestAggregate(t *testing.T) {
	t.Parallel()

	dims := map[string]model.Dimension{
		"search-visibility": model.DimensionSEO,
		"keyword-movement":  model.DimensionSEO,
		"page-experience":   model.DimensionTechnical,
	}
	weights := map[string]int{"search-visibility": 3, "keyword-movement": 1}

	results := []*model.UnitResult{
		scored("search-visibility", model.StatusCompleted, 80),
		scored("keyword-movement", model.StatusPartial, 40),
		scored("page-experience", model.StatusCompleted, 25),
	}

	scores := Aggregate(results, dims, func(id string) int { return weights[id] })

	// seo: (80*3 + 40*1) / 4 = 70
	if got := scores[model.DimensionSEO]; got != 70 {
		t.Errorf("seo: got %d, want 70", got)
	}
	if got := scores[model.DimensionTechnical]; got != 25 {
		t.Errorf("technical: got %d, want 25", got)
	}
}

// TestAggregateSkipsNonExecuted tests that skipped, failed, and scoreless
// units contribute nothing: a dimension without data is absent, not zero.
func TestAggregateSkipsNonExecuted(t *testing.T) {
	t.Parallel()

	dims := map[string]model.Dimension{
		"backlink-authority": model.DimensionAuthority,
		"reputation-watch":   model.DimensionReputation,
		"content-health":     model.DimensionContent,
	}

	skipped := model.NewUnitResult("backlink-authority")
	skipped.SetStatus(model.StatusSkipped)

	failed := model.NewUnitResult("reputation-watch")
	failed.SetStatus(model.StatusFailed)

	scoreless := model.NewUnitResult("content-health")
	scoreless.SetStatus(model.StatusCompleted)

	scores := Aggregate([]*model.UnitResult{skipped, failed, scoreless, nil}, dims, func(string) int { return 1 })

	if len(scores) != 0 {
		t.Errorf("expected no dimension scores, got %v", scores)
	}
}

// TestOverall tests the mean of dimension scores.
func TestOverall(t *testing.T) {
	t.Parallel()

	got, ok := Overall(map[model.Dimension]int{
		model.DimensionSEO:       80,
		model.DimensionTechnical: 61,
	})
	if !ok || got != 71 {
		t.Errorf("overall: got %d/%v, want 71/true", got, ok)
	}

	if _, ok := Overall(nil); ok {
		t.Error("empty scores must report no overall")
	}
}

// TestBuildActionPlan tests sprint classification and ordering.
func TestBuildActionPlan(t *testing.T) {
	t.Parallel()

	rules := config.DefaultAnalysis().Sprints

	issues := []model.Issue{
		// high impact (critical) + low effort (page-experience) -> quick win
		{Severity: model.SeverityCritical, SeverityText: "critical", Title: "a", SuggestedAction: "fix a", OriginUnitID: "page-experience"},
		// high impact + high effort (technical-crawl) -> authority
		{Severity: model.SeverityHigh, SeverityText: "high", Title: "b", SuggestedAction: "fix b", OriginUnitID: "technical-crawl"},
		// medium impact + medium effort (content-health) -> growth
		{Severity: model.SeverityMedium, SeverityText: "medium", Title: "c", SuggestedAction: "fix c", OriginUnitID: "content-health"},
		// low impact -> authority regardless of effort
		{Severity: model.SeverityLow, SeverityText: "low", Title: "d", SuggestedAction: "fix d", OriginUnitID: "search-visibility"},
		// second quick win with lower severity orders after the critical one
		{Severity: model.SeverityHigh, SeverityText: "high", Title: "e", SuggestedAction: "fix e", OriginUnitID: "search-visibility"},
	}

	plan := BuildActionPlan(issues, rules)

	if got := len(plan.Sprints[model.SprintQuickWin]); got != 2 {
		t.Errorf("quick-win: got %d items, want 2", got)
	}
	if got := len(plan.Sprints[model.SprintGrowth]); got != 1 {
		t.Errorf("growth: got %d items, want 1", got)
	}
	if got := len(plan.Sprints[model.SprintAuthority]); got != 2 {
		t.Errorf("authority: got %d items, want 2", got)
	}

	qw := plan.Sprints[model.SprintQuickWin]
	if qw[0].Action != "fix a" || qw[1].Action != "fix e" {
		t.Errorf("quick-win order by severity: got %v", qw)
	}

	if plan.TotalItems() != len(issues) {
		t.Errorf("total: got %d, want %d", plan.TotalItems(), len(issues))
	}
}

// TestBuildActionPlanAlwaysThreeSprints tests that empty runs still render
// all three sprints.
func TestBuildActionPlanAlwaysThreeSprints(t *testing.T) {
	t.Parallel()

	plan := BuildActionPlan(nil, config.DefaultAnalysis().Sprints)

	for _, bucket := range model.SprintOrder {
		if _, ok := plan.Sprints[bucket]; !ok {
			t.Errorf("sprint %s missing from empty plan", bucket)
		}
	}
	if plan.TotalItems() != 0 {
		t.Errorf("total: got %d, want 0", plan.TotalItems())
	}
}
