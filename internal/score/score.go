package score

import (
	"math"
	"sort"

	"github.com/seo-intel/seointel/internal/config"
	"github.com/seo-intel/seointel/internal/model"
)

// Aggregate computes per-dimension scores as the weighted mean of executed
// unit scores. dims maps unit IDs to their dimension; weigh returns the
// unit's aggregation weight. Dimensions with no contributing unit are
// absent from the result, never zero.
func Aggregate(results []*model.UnitResult, dims map[string]model.Dimension, weigh func(unitID string) int) map[model.Dimension]int {
	type acc struct {
		weighted int
		weight   int
	}
	accs := make(map[model.Dimension]*acc)

	for _, res := range results {
		if res == nil || !res.Status.Executed() || res.Score == nil {
			continue
		}
		dim, ok := dims[res.UnitID]
		if !ok || dim == "" {
			continue
		}
		w := weigh(res.UnitID)
		if w <= 0 {
			w = 1
		}
		a := accs[dim]
		if a == nil {
			a = &acc{}
			accs[dim] = a
		}
		a.weighted += *res.Score * w
		a.weight += w
	}

	scores := make(map[model.Dimension]int, len(accs))
	for dim, a := range accs {
		scores[dim] = int(math.Round(float64(a.weighted) / float64(a.weight)))
	}
	return scores
}

// Overall returns the rounded mean of the dimension scores, and false when
// no dimension scored.
func Overall(scores map[model.Dimension]int) (int, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	var sum int
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores)))), true
}

// BuildActionPlan consolidates issues into exactly three sprints.
//
// Classification: high impact with low effort is a quick win; high effort
// or low impact lands in the authority sprint; everything else is growth.
// Within a sprint, items order by severity descending, then by the order
// the issues were emitted. All three sprints are always present so the
// report renders every heading even when empty.
func BuildActionPlan(issues []model.Issue, rules config.SprintRules) *model.ActionPlan {
	plan := &model.ActionPlan{
		Sprints: map[model.SprintBucket][]model.ActionItem{
			model.SprintQuickWin:  {},
			model.SprintGrowth:    {},
			model.SprintAuthority: {},
		},
	}

	for _, issue := range issues {
		impact := rules.Impact(issue.Severity)
		effort := rules.Effort(issue.OriginUnitID)

		var bucket model.SprintBucket
		switch {
		case impact == config.ImpactHigh && effort == config.EffortLow:
			bucket = model.SprintQuickWin
		case effort == config.EffortHigh || impact == config.ImpactLow:
			bucket = model.SprintAuthority
		default:
			bucket = model.SprintGrowth
		}

		plan.Sprints[bucket] = append(plan.Sprints[bucket], model.ActionItem{
			Severity:     issue.Severity,
			SeverityText: issue.Severity.String(),
			Action:       issue.SuggestedAction,
			Impact:       string(impact),
			Effort:       string(effort),
			OriginUnitID: issue.OriginUnitID,
		})
	}

	for bucket, items := range plan.Sprints {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Severity > items[j].Severity
		})
		plan.Sprints[bucket] = items
	}

	return plan
}
