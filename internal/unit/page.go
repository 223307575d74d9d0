package unit

import (
	"context"
	"fmt"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// pageExperience scores the site's field vitals. Mobile measurements drive
// the score; desktop is recorded for reference.
type pageExperience struct{}

func (u *pageExperience) UnitID() string { return registry.UnitPageExperience }

func (u *pageExperience) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.PagePerformance,
			Query:    provider.Query{Kind: KindPageVitals, Args: map[string]string{"site": in.Site, "strategy": "mobile"}},
		},
		{
			Provider: provider.PagePerformance,
			Query:    provider.Query{Kind: KindPageVitals, Args: map[string]string{"site": in.Site, "strategy": "desktop"}},
		},
	}
}

func (u *pageExperience) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())
	reqs := u.Requests(in)

	var mobile PageVitalsPayload
	if err := in.Decode(reqs[0], &mobile); err != nil {
		finish(res, 1, []string{provider.PagePerformance})
		return res, nil
	}
	res.AddSource(provider.PagePerformance, in.Degraded[provider.PagePerformance])
	ann := in.Annotation(provider.PagePerformance)

	score, _ := scoreBanded(res, in, ann, map[string]float64{
		"lcp_ms":  mobile.LCPMs,
		"inp_ms":  mobile.INPMs,
		"cls":     mobile.CLS,
		"ttfb_ms": mobile.TTFBMs,
	})
	recordInfo(res, "performance_score_mobile", mobile.PerformanceScore, ann)

	var desktop PageVitalsPayload
	if err := in.Decode(reqs[1], &desktop); err == nil {
		recordInfo(res, "performance_score_desktop", desktop.PerformanceScore, ann)
	}

	if res.RawMetrics["lcp_ms"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Slow largest contentful paint",
			fmt.Sprintf("Mobile LCP is %.0fms.", mobile.LCPMs),
			"Compress hero images, preload the LCP resource, and cut render-blocking scripts"))
	}
	if res.RawMetrics["inp_ms"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Sluggish interaction response",
			fmt.Sprintf("Interaction to next paint is %.0fms.", mobile.INPMs),
			"Break up long main-thread tasks and defer non-critical JavaScript"))
	}
	if res.RawMetrics["cls"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Layout shifts during load",
			fmt.Sprintf("Cumulative layout shift is %.2f.", mobile.CLS),
			"Reserve dimensions for images, embeds, and ads so content does not jump"))
	}
	if res.RawMetrics["ttfb_ms"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Slow server response",
			fmt.Sprintf("Time to first byte is %.0fms.", mobile.TTFBMs),
			"Add edge caching for HTML responses or reduce backend work on the critical path"))
	}

	res.SetScore(score)
	finish(res, 1, nil)
	return res, nil
}
