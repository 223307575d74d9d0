package unit

import (
	"context"
	"fmt"
	"strings"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
)

// reputationWatch gauges sentiment across recent mentions and reviews.
type reputationWatch struct{}

func (u *reputationWatch) UnitID() string { return registry.UnitReputationWatch }

func (u *reputationWatch) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.WebSearch,
			Query:    provider.Query{Kind: KindReviewScan, Args: map[string]string{"site": in.Site}},
		},
	}
}

func (u *reputationWatch) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())

	var scan ReviewScanPayload
	if err := in.Decode(u.Requests(in)[0], &scan); err != nil {
		finish(res, 1, []string{provider.WebSearch})
		return res, nil
	}
	res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
	ann := in.Annotation(provider.WebSearch)

	recordInfo(res, "mentions", float64(scan.Mentions), ann)
	recordInfo(res, "negative_mentions", float64(scan.Negative), ann)

	classified := scan.Positive + scan.Negative
	if classified > 0 {
		sentiment := float64(scan.Positive) / float64(classified)
		score, _ := scoreBanded(res, in, ann, map[string]float64{"sentiment_ratio": sentiment})
		res.SetScore(score)

		if res.RawMetrics["sentiment_ratio"].Label == "poor" {
			res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityHigh,
				"Negative sentiment dominates",
				fmt.Sprintf("%d of %d classified mentions are negative.", scan.Negative, classified),
				"Respond to the negative reviews publicly and fix the recurring complaints they name"))
		}
	}
	if scan.Mentions == 0 {
		res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityLow,
			"No recent mentions found",
			"The scan found no recent reviews or mentions.",
			"Ask satisfied customers for reviews on the platforms your niche uses"))
	}

	finish(res, 1, nil)
	return res, nil
}

// priceBenchmark compares the site's pricing against scanned competitors.
// Its monetary metrics carry a currency so the report renders them with a
// symbol.
type priceBenchmark struct{}

func (u *priceBenchmark) UnitID() string { return registry.UnitPriceBenchmark }

func (u *priceBenchmark) Requests(in *Inputs) []Request {
	return []Request{
		{
			Provider: provider.WebSearch,
			Query: provider.Query{Kind: KindPricingScan, Args: map[string]string{
				"site":        in.Site,
				"competitors": strings.Join(in.Competitors, ","),
			}},
		},
	}
}

func (u *priceBenchmark) Execute(_ context.Context, in *Inputs) (*model.UnitResult, error) {
	res := model.NewUnitResult(u.UnitID())

	var scan PricingScanPayload
	if err := in.Decode(u.Requests(in)[0], &scan); err != nil {
		finish(res, 1, []string{provider.WebSearch})
		return res, nil
	}
	res.AddSource(provider.WebSearch, in.Degraded[provider.WebSearch])
	ann := in.Annotation(provider.WebSearch)

	currency := scan.Currency
	if currency == "" {
		currency = in.Currency
	}

	res.RawMetrics["your_price"] = model.Metric{Value: scan.YourPrice, Currency: currency, Annotation: ann}

	if len(scan.CompetitorPrices) > 0 {
		var sum float64
		for _, p := range scan.CompetitorPrices {
			sum += p
		}
		marketAvg := sum / float64(len(scan.CompetitorPrices))
		res.RawMetrics["market_avg_price"] = model.Metric{Value: marketAvg, Currency: currency, Annotation: ann}

		if marketAvg > 0 && scan.YourPrice > 0 {
			// Relative premium over the market average; discounts count as zero.
			delta := (scan.YourPrice - marketAvg) / marketAvg
			if delta < 0 {
				delta = 0
			}
			score, _ := scoreBanded(res, in, ann, map[string]float64{"price_delta_ratio": delta})
			res.SetScore(score)

			if res.RawMetrics["price_delta_ratio"].Label == "poor" {
				res.Issues = append(res.Issues, newIssue(u.UnitID(), model.SeverityMedium,
					"Priced well above the market",
					fmt.Sprintf("Your price sits %.0f%% above the competitor average.", delta*100),
					"Justify the premium on the pricing page or introduce a tier at the market level"))
			}
		}
	}

	finish(res, 1, nil)
	return res, nil
}
