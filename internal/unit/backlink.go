package unit

import (
	"context"
	"fmt"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// backlinkAuthority scores the site's link profile.
type backlinkAuthority struct{}

func (u *backlinkAuthority) UnitID() string { return registry.UnitBacklinkAuthority }

func (u *backlinkAuthority) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.LinkAuthority,
			Query:    provider.Query{Kind: KindAuthorityMetrics, Args: map[string]string{"site": in.Site}},
		},
	}
}

func (u *backlinkAuthority) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())

	var profile AuthorityPayload
	if err := in.Decode(u.Requests(in)[0], &profile); err != nil {
		finish(res, 1, []string{provider.LinkAuthority})
		return res, nil
	}
	res.AddSource(provider.LinkAuthority, in.Degraded[provider.LinkAuthority])
	ann := in.Annotation(provider.LinkAuthority)

	score, _ := scoreBanded(res, in, ann, map[string]float64{
		"domain_rating": profile.DomainRating,
		"toxic_ratio":   profile.ToxicRatio,
	})
	recordInfo(res, "backlinks", float64(profile.Backlinks), ann)
	recordInfo(res, "referring_domains", float64(profile.ReferringDomains), ann)

	if res.RawMetrics["domain_rating"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Weak domain authority",
			fmt.Sprintf("Domain rating is %.0f.", profile.DomainRating),
			"Earn links from established sites in the niche: guest posts, original research, digital PR"))
	}
	if res.RawMetrics["toxic_ratio"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Toxic backlink share",
			fmt.Sprintf("%.0f%% of backlinks look toxic.", profile.ToxicRatio*100),
			"Disavow the toxic referring domains and audit for negative SEO"))
	}

	res.SetScore(score)
	finish(res, 1, nil)
	return res, nil
}
