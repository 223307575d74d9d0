package unit

import (
	"context"
	"fmt"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// localPresence checks directory coverage and ratings for locally oriented
// sites. The scheduler only runs it when the niche predicate holds.
type localPresence struct{}

func (u *localPresence) UnitID() string { return registry.UnitLocalPresence }

func (u *localPresence) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.WebSearch,
			Query:    provider.Query{Kind: KindLocalPack, Args: map[string]string{"site": in.Site, "niche": in.Niche}},
		},
	}
}

func (u *localPresence) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())

	var pack LocalPackPayload
	if err := in.Decode(u.Requests(in)[0], &pack); err != nil {
		finish(res, 1, []string{provider.WebSearch})
		return res, nil
	}
	res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
	ann := in.Annotation(provider.WebSearch)

	recordInfo(res, "listings_found", float64(pack.ListingsFound), ann)

	values := map[string]float64{"avg_rating": pack.AvgRating}
	if pack.ListingsExpected > 0 {
		values["listing_coverage"] = float64(pack.ListingsFound) / float64(pack.ListingsExpected)
	}
	score, _ := scoreBanded(res, in, ann, values)

	if !pack.NAPConsistent {
		score -= 10
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Inconsistent business details",
			"Name, address, or phone differ across directories.",
			"Align the business name, address, and phone on every listing"))
	}
	if res.RawMetrics["listing_coverage"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Missing directory listings",
			fmt.Sprintf("Present on %d of %d expected directories.", pack.ListingsFound, pack.ListingsExpected),
			"Claim the missing directory listings for the niche"))
	}
	if res.RawMetrics["avg_rating"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Low average rating",
			fmt.Sprintf("Average rating across listings is %.1f.", pack.AvgRating),
			"Address the themes in recent negative reviews, then ask happy customers to review"))
	}

	res.SetScore(score)
	finish(res, 1, nil)
	return res, nil
}
