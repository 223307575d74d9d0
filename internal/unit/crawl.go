package unit

import (
	"context"
	"fmt"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// technicalCrawl evaluates crawlability: broken links, metadata gaps, and
// the presence of sitemap and robots files.
type technicalCrawl struct{}

func (u *technicalCrawl) UnitID() string { return registry.UnitTechnicalCrawl }

func (u *technicalCrawl) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.WebSearch,
			Query:    provider.Query{Kind: KindCrawlScan, Args: map[string]string{"site": in.Site}},
		},
	}
}

func (u *technicalCrawl) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())

	var scan CrawlScanPayload
	if err := in.Decode(u.Requests(in)[0], &scan); err != nil {
		finish(res, 1, []string{provider.WebSearch})
		return res, nil
	}
	res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
	ann := in.Annotation(provider.WebSearch)

	recordInfo(res, "pages_scanned", float64(scan.PagesScanned), ann)
	recordInfo(res, "broken_links", float64(scan.BrokenLinks), ann)

	if scan.PagesScanned == 0 {
		finish(res, 1, nil)
		return res, nil
	}

	brokenRatio := float64(scan.BrokenLinks) / float64(scan.PagesScanned)
	metaGapRatio := float64(scan.MissingTitles+scan.MissingDescriptions) / float64(scan.PagesScanned)

	score, _ := scoreBanded(res, in, ann, map[string]float64{
		"broken_ratio":   brokenRatio,
		"meta_gap_ratio": metaGapRatio,
	})

	// Missing sitemap or robots caps the score contribution directly.
	if !scan.SitemapFound {
		score -= 10
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"No sitemap found",
			"The crawl found no XML sitemap.",
			"Generate a sitemap.xml and submit it through the search console"))
	}
	if !scan.RobotsFound {
		score -= 5
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityLow,
			"No robots.txt found",
			"The crawl found no robots.txt.",
			"Publish a robots.txt that references the sitemap"))
	}

	if res.RawMetrics["broken_ratio"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
			"Broken links across the site",
			fmt.Sprintf("%d broken links over %d scanned pages.", scan.BrokenLinks, scan.PagesScanned),
			"Fix or redirect the broken destinations, starting with links from high-traffic pages"))
	}
	if res.RawMetrics["meta_gap_ratio"].Label == "poor" {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
			"Metadata gaps",
			fmt.Sprintf("%d pages lack titles and %d lack descriptions.", scan.MissingTitles, scan.MissingDescriptions),
			"Fill in unique titles and meta descriptions for the affected pages"))
	}

	res.SetScore(score)
	finish(res, 1, nil)
	return res, nil
}
