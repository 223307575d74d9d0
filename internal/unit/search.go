package unit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// periodArgs returns the common query arguments for window-scoped fetches.
func periodArgs(in *Inputs) map[string]string {
	return map[string]string{
		"site": in.Site,
		"from": in.PeriodStart.Format("2006-01-02"),
		"to":   in.PeriodEnd.Format("2006-01-02"),
	}
}

// searchVisibility measures how the site performs in organic search:
// click-through, average position, and index coverage.
type searchVisibility struct{}

func (u *searchVisibility) UnitID() string { return registry.UnitSearchVisibility }

func (u *searchVisibility) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.SearchPerformance,
			Query:    provider.Query{Kind: KindSearchMetrics, Args: periodArgs(in)},
		},
		{
			Provider: provider.WebSearch,
			Query:    provider.Query{Kind: KindSERPScan, Args: map[string]string{"target": in.Site, "scope": "brand"}},
		},
	}
}

func (u *searchVisibility) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())
	reqs := u.Requests(in)

	var metrics SearchMetricsPayload
	if err := in.Decode(reqs[0], &metrics); err != nil {
		finish(res, 1, []string{provider.SearchPerformance})
		return res, nil
	}
	res.AddSource(provider.SearchPerformance, in.Degraded[provider.SearchPerformance])
	ann := in.Annotation(provider.SearchPerformance)

	score, _ := scoreBanded(res, in, ann, map[string]float64{
		"ctr":            metrics.CTR,
		"avg_position":   metrics.AvgPosition,
		"index_coverage": metrics.IndexCoverage,
	})
	recordInfo(res, "clicks", float64(metrics.Clicks), ann)
	recordInfo(res, "impressions", float64(metrics.Impressions), ann)

	if res.RawMetrics["ctr"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Search snippets underperform",
			fmt.Sprintf("Click-through rate is %.1f%% across the analysis window.", metrics.CTR*100),
			"Rewrite titles and meta descriptions for the highest-impression pages"))
	}
	if res.RawMetrics["avg_position"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Rankings sit beyond page one",
			fmt.Sprintf("Average position is %.1f.", metrics.AvgPosition),
			"Build dedicated content targeting the priority keywords and consolidate overlapping pages"))
	}
	if res.RawMetrics["index_coverage"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Index coverage gaps",
			fmt.Sprintf("Only %.0f%% of submitted pages are indexed.", metrics.IndexCoverage*100),
			"Review noindex directives, canonicals, and sitemap entries for the excluded pages"))
	}

	// Brand presence check through web search is optional enrichment.
	var brand SERPScanPayload
	if err := in.Decode(reqs[1], &brand); err == nil {
		res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
		recordInfo(res, "branded_top10", float64(brand.YourTop10), in.Annotation(provider.WebSearch))
	}

	res.SetScore(score)
	finish(res, 1, nil)
	return res, nil
}

// keywordMovement tracks per-keyword positions and finds keywords within
// striking distance of page one.
type keywordMovement struct{}

func (u *keywordMovement) UnitID() string { return registry.UnitKeywordMovement }

func (u *keywordMovement) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.SearchPerformance,
			Query:    provider.Query{Kind: KindKeywordTable, Args: periodArgs(in)},
		},
	}
}

func (u *keywordMovement) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())

	var table KeywordTablePayload
	if err := in.Decode(u.Requests(in)[0], &table); err != nil {
		finish(res, 1, []string{provider.SearchPerformance})
		return res, nil
	}
	res.AddSource(provider.SearchPerformance, in.Degraded[provider.SearchPerformance])
	ann := in.Annotation(provider.SearchPerformance)

	var top10, opportunity int
	var positionSum float64
	for _, kw := range table.Keywords {
		recordInfo(res, "position/"+kw.Keyword, kw.Position, ann)
		positionSum += kw.Position
		if kw.Position <= 10 {
			top10++
		}
		if kw.Position > 10 && kw.Position <= 20 {
			opportunity++
		}
	}

	recordInfo(res, "tracked_keywords", float64(len(table.Keywords)), ann)
	recordInfo(res, "top10_count", float64(top10), ann)
	recordInfo(res, "opportunity_count", float64(opportunity), ann)

	if len(table.Keywords) > 0 {
		avg := positionSum / float64(len(table.Keywords))
		score, _ := scoreBanded(res, in, ann, map[string]float64{"avg_position": avg})
		res.SetScore(score)
	}

	if opportunity > 0 {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Keywords within striking distance",
			fmt.Sprintf("%d keywords rank on page two.", opportunity),
			"Strengthen internal links and refresh content for the striking-distance keywords"))
	}
	if len(table.Keywords) > 0 && top10 == 0 {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"No page-one rankings",
			fmt.Sprintf("None of the %d tracked keywords rank in the top 10.", len(table.Keywords)),
			"Audit search intent match for the core keyword set and rework the weakest pages first"))
	}

	finish(res, 1, nil)
	return res, nil
}

// OpportunityKeywords extracts striking-distance keywords from a keyword
// movement result, sorted by position ascending.
func OpportunityKeywords(res *model.UnitResult, limit int) []string {
	if res == nil {
		return nil
	}
	type ranked struct {
		keyword  string
		position float64
	}
	var out []ranked
	for name, m := range res.RawMetrics {
		kw, ok := strings.CutPrefix(name, "position/")
		if !ok {
			continue
		}
		if m.Value > 10 && m.Value <= 20 {
			out = append(out, ranked{keyword: kw, position: m.Value})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].position != out[j].position {
			return out[i].position < out[j].position
		}
		return out[i].keyword < out[j].keyword
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	keywords := make([]string, len(out))
	for i, r := range out {
		keywords[i] = r.keyword
	}
	return keywords
}

// serpRadar scans result pages for the tracked keywords and reports
// feature presence and competitor density.
type serpRadar struct{}

func (u *serpRadar) UnitID() string { return registry.UnitSERPRadar }

func (u *serpRadar) Requests(in *Inputs) []Request {
	args := map[string]string{"target": in.Site}
	if kws := OpportunityKeywords(in.Prior[registry.UnitKeywordMovement], 5); len(kws) > 0 {
		args["keywords"] = strings.Join(kws, ",")
	}
	return []Request{
		{
			Provider: provider.WebSearch,
			Query:    provider.Query{Kind: KindSERPScan, Args: args},
		},
		{
			Provider: provider.SearchPerformance,
			Query:    provider.Query{Kind: KindSearchMetrics, Args: periodArgs(in)},
		},
	}
}

func (u *serpRadar) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())
	reqs := u.Requests(in)

	var scan SERPScanPayload
	if err := in.Decode(reqs[0], &scan); err != nil {
		finish(res, 1, []string{provider.WebSearch})
		return res, nil
	}
	res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
	ann := in.Annotation(provider.WebSearch)

	recordInfo(res, "keywords_scanned", float64(scan.KeywordsScanned), ann)
	recordInfo(res, "your_top10", float64(scan.YourTop10), ann)
	recordInfo(res, "serp_features", float64(len(scan.FeaturesSeen)), ann)

	if scan.KeywordsScanned > 0 {
		presence := float64(scan.YourTop10) / float64(scan.KeywordsScanned)
		score, _ := scoreBanded(res, in, ann, map[string]float64{"serp_presence": presence})
		res.SetScore(score)
	}

	// The strongest competitor on the scanned keywords.
	var rival string
	var rivalHits int
	for comp, hits := range scan.CompetitorsInTop10 {
		if hits > rivalHits || (hits == rivalHits && comp < rival) {
			rival, rivalHits = comp, hits
		}
	}
	if rivalHits > scan.YourTop10 {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Competitor dominates tracked results",
			fmt.Sprintf("%s appears in the top 10 for %d scanned keywords, against your %d.", rival, rivalHits, scan.YourTop10),
			"Compare the competitor's ranking pages for the contested keywords and differentiate titles and content depth"))
	}

	// Aggregate search metrics enrich the radar when available.
	var metrics SearchMetricsPayload
	if err := in.Decode(reqs[1], &metrics); err == nil {
		res.AddSource(provider.SearchPerformance, in.Degraded[provider.SearchPerformance])
		recordInfo(res, "impressions", float64(metrics.Impressions), in.Annotation(provider.SearchPerformance))
	}

	finish(res, 1, nil)
	return res, nil
}
