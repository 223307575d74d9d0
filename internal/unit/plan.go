package unit

import (
	"context"
	"math"
	"sort"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/registry"
)

// actionPlan closes every run. It declares no provider requests; its input
// is the prior results, which is why it depends on every other unit and
// runs in the final layer. The engine derives the three-sprint plan from
// the issues this unit gathers.
type actionPlan struct{}

func (u *actionPlan) UnitID() string { return registry.UnitActionPlan }

func (u *actionPlan) Requests(_ *Inputs) []Request { return nil }

func (u *actionPlan) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())

	issues := CollectIssues(in.Prior)
	for _, issue := range issues {
		if issue.SuggestedAction == "" {
			return nil, &ContractError{
				UnitID: u.UnitID(),
				Detail: "issue from " + issue.OriginUnitID + " reached the plan without a suggested action",
			}
		}
	}

	res.SetStatus(model.StatusCompleted)
	return res, nil
}

// CollectIssues gathers issues from all executed results in unit
// registration order, preserving each unit's emission order. Registration
// order is what breaks same-severity ties in the sprint buckets downstream.
func CollectIssues(prior map[string]*model.UnitResult) []model.Issue {
	ids := make([]string, 0, len(prior))
	for id, res := range prior {
		if res != nil && res.Status.Executed() {
			ids = append(ids, id)
		}
	}

	rank := func(id string) int {
		if i := registry.RegistrationIndex(id); i > 0 {
			return i
		}
		return math.MaxInt
	}
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := rank(ids[i]), rank(ids[j])
		if ri != rj {
			return ri < rj
		}
		return ids[i] < ids[j]
	})

	var issues []model.Issue
	for _, id := range ids {
		issues = append(issues, prior[id].Issues...)
	}
	return issues
}
