package unit

import (
	"context"
	"fmt"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// contentHealth combines engagement data with a content sample to judge
// depth and duplication. It is the one unit requiring two providers, so it
// exercises the partial path when either is missing.
type contentHealth struct{}

func (u *contentHealth) UnitID() string { return registry.UnitContentHealth }

func (u *contentHealth) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.SearchPerformance,
			Query:    provider.Query{Kind: KindSearchMetrics, Args: periodArgs(in)},
		},
		{
			Provider: provider.WebSearch,
			Query:    provider.Query{Kind: KindContentScan, Args: map[string]string{"site": in.Site}},
		},
	}
}

func (u *contentHealth) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())
	reqs := u.Requests(in)

	var missing []string
	var scoreSum, scoreParts int

	var metrics SearchMetricsPayload
	if err := in.Decode(reqs[0], &metrics); err != nil {
		missing = append(missing, provider.SearchPerformance)
	} else {
		res.AddSource(provider.SearchPerformance, in.Degraded[provider.SearchPerformance])
		ann := in.Annotation(provider.SearchPerformance)
		if s, ok := scoreBanded(res, in, ann, map[string]float64{"ctr": metrics.CTR}); ok {
			scoreSum += s
			scoreParts++
		}
	}

	var scan ContentScanPayload
	if err := in.Decode(reqs[1], &scan); err != nil {
		missing = append(missing, provider.WebSearch)
	} else {
		res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
		ann := in.Annotation(provider.WebSearch)

		values := map[string]float64{"content_depth": scan.AvgWordCount}
		if scan.PagesSampled > 0 {
			values["thin_ratio"] = float64(scan.ThinPages) / float64(scan.PagesSampled)
		}
		if s, ok := scoreBanded(res, in, ann, values); ok {
			scoreSum += s
			scoreParts++
		}
		recordInfo(res, "pages_sampled", float64(scan.PagesSampled), ann)
		recordInfo(res, "duplicate_titles", float64(scan.DuplicateTitles), ann)

		if res.RawMetrics["content_depth"].Label == "poor" {
			res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
				"Thin content across sampled pages",
				fmt.Sprintf("Average word count is %.0f.", scan.AvgWordCount),
				"Expand or consolidate the thinnest pages until each covers its topic in depth"))
		}
		if res.RawMetrics["thin_ratio"].Label == "poor" {
			res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
				"High share of thin pages",
				fmt.Sprintf("%d of %d sampled pages are thin.", scan.ThinPages, scan.PagesSampled),
				"Merge near-duplicate thin pages and redirect the removed URLs"))
		}
		if scan.DuplicateTitles > 0 {
			res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityLow,
				"Duplicate titles",
				fmt.Sprintf("%d sampled pages share a title with another page.", scan.DuplicateTitles),
				"Give every page a unique, descriptive title"))
		}
	}

	// The score rescales over whichever provider groups delivered.
	if scoreParts > 0 {
		res.SetScore(scoreSum / scoreParts)
	}
	finish(res, 2, missing)
	return res, nil
}
