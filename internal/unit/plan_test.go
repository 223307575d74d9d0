package unit

import (
	"testing"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/registry"
)

// issueResult builds a completed result carrying one issue for the unit.
func issueResult(unitID string, sev model.Severity) *model.UnitResult {
	res := model.NewUnitResult(unitID)
	res.SetStatus(model.StatusCompleted)
	res.Issues = append(res.Issues, newIssue(unitID, sev,
		"Finding from "+unitID,
		"Detail for "+unitID+".",
		"Act on "+unitID))
	return res
}

// TestCollectIssuesRegistrationOrder tests that issues from different units
// come back in unit registration order, not lexical unit ID order.
// local-presence sorts before page-experience lexically but registers later.
func TestCollectIssuesRegistrationOrder(t *testing.T) {
	t.Parallel()

	prior := map[string]*model.UnitResult{
		registry.UnitLocalPresence:  issueResult(registry.UnitLocalPresence, model.SeverityMedium),
		registry.UnitPageExperience: issueResult(registry.UnitPageExperience, model.SeverityMedium),
		registry.UnitSearchVisibility: {
			UnitID:     registry.UnitSearchVisibility,
			Status:     model.StatusSkipped,
			StatusText: model.StatusSkipped.String(),
		},
	}

	issues := CollectIssues(prior)
	if len(issues) != 2 {
		t.Fatalf("issues: got %d, want 2 (skipped unit contributes nothing)", len(issues))
	}

	want := []string{registry.UnitPageExperience, registry.UnitLocalPresence}
	for i, issue := range issues {
		if issue.OriginUnitID != want[i] {
			t.Errorf("issue %d: got origin %s, want %s", i, issue.OriginUnitID, want[i])
		}
	}
}

// TestCollectIssuesPreservesEmissionOrder tests that a unit's own issues
// keep the order the executor emitted them in.
func TestCollectIssuesPreservesEmissionOrder(t *testing.T) {
	t.Parallel()

	res := model.NewUnitResult(registry.UnitTechnicalCrawl)
	res.SetStatus(model.StatusCompleted)
	res.Issues = append(res.Issues,
		newIssue(registry.UnitTechnicalCrawl, model.SeverityHigh,
			"Broken links", "First emitted.", "Fix the broken links"),
		newIssue(registry.UnitTechnicalCrawl, model.SeverityHigh,
			"Missing titles", "Second emitted.", "Write the missing titles"),
	)

	issues := CollectIssues(map[string]*model.UnitResult{
		registry.UnitTechnicalCrawl: res,
	})
	if len(issues) != 2 {
		t.Fatalf("issues: got %d, want 2", len(issues))
	}
	if issues[0].Title != "Broken links" || issues[1].Title != "Missing titles" {
		t.Errorf("emission order not preserved: got %q then %q", issues[0].Title, issues[1].Title)
	}
}
