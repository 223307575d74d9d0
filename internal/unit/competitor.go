package unit

import (
	"context"
	"fmt"
	"sort"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// maxCompetitors bounds per-run competitor fetches.
const maxCompetitors = 3

// competitorStack surveys the declared competitors' technology and speed
// and compares them to the site.
type competitorStack struct{}

func (u *competitorStack) UnitID() string { return registry.UnitCompetitorStack }

func (u *competitorStack) Requests(in *Inputs) []Request {
	reqs := make([]Request, 0, maxCompetitors+1)
	for _, comp := range in.Competitors {
		if len(reqs) == maxCompetitors {
			break
		}
		reqs = append(reqs, Request{
			Provider: provider.WebSearch,
			Query:    provider.Query{Kind: KindCompetitorScan, Args: map[string]string{"target": comp}},
		})
	}
	reqs = append(reqs, Request{
		Provider: provider.PagePerformance,
		Query:    provider.Query{Kind: KindPageVitals, Args: map[string]string{"site": in.Site, "strategy": "mobile"}},
	})
	return reqs
}

func (u *competitorStack) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())
	reqs := u.Requests(in)

	if len(in.Competitors) == 0 {
		res.FailureReason = "no competitors declared"
		res.SetStatus(model.StatusFailed)
		return res, nil
	}

	var scans []CompetitorScanPayload
	for _, r := range reqs[:len(reqs)-1] {
		var scan CompetitorScanPayload
		if err := in.Decode(r, &scan); err != nil {
			continue
		}
		if scan.Competitor == "" {
			scan.Competitor = r.Query.Args["target"]
		}
		scans = append(scans, scan)
	}
	if len(scans) == 0 {
		finish(res, 1, []string{provider.WebSearch})
		return res, nil
	}
	res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
	ann := in.Annotation(provider.WebSearch)
	recordInfo(res, "competitors_analyzed", float64(len(scans)), ann)

	// Speed comparison only works when our own vitals resolved too.
	var yours PageVitalsPayload
	if err := in.Decode(reqs[len(reqs)-1], &yours); err == nil && yours.LCPMs > 0 {
		res.AddSource(provider.PagePerformance, in.Degraded[provider.PagePerformance])

		fastest := ""
		fastestLCP := yours.LCPMs
		for _, scan := range scans {
			if scan.LCPMs > 0 && scan.LCPMs < fastestLCP {
				fastest, fastestLCP = scan.Competitor, scan.LCPMs
			}
		}

		gap := yours.LCPMs - fastestLCP
		score, _ := scoreBanded(res, in, ann, map[string]float64{"lcp_gap_ms": gap})
		res.SetScore(score)

		if fastest != "" && res.RawMetrics["lcp_gap_ms"].Label == "poor" {
			res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
				"Competitors load faster",
				fmt.Sprintf("%s renders %.0fms ahead of you on mobile.", fastest, gap),
				"Close the speed gap before investing in new content; slow pages lose contested rankings"))
		}
	}

	// Technologies every scanned competitor uses but the report can flag.
	counts := make(map[string]int)
	for _, scan := range scans {
		for _, tech := range scan.Technologies {
			counts[tech]++
		}
	}
	var common []string
	for tech, n := range counts {
		if n == len(scans) {
			common = append(common, tech)
		}
	}
	sort.Strings(common)
	recordInfo(res, "shared_technologies", float64(len(common)), ann)
	if len(common) > 0 {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityLow,
			"Stack conventions among competitors",
			fmt.Sprintf("All scanned competitors use: %v.", common),
			"Evaluate whether the shared tooling (e.g. structured data, CDNs) covers a gap on your site"))
	}

	finish(res, 1, nil)
	return res, nil
}
