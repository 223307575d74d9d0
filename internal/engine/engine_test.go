package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/seo-intel/seointel/internal/baseline"
	"github.com/seo-intel/seointel/internal/cache"
	"github.com/seo-intel/seointel/internal/capability"
	"github.com/seo-intel/seointel/internal/config"
	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
	"github.com/seo-intel/seointel/internal/unit"
)

// fixedNow keeps the analysis window identical across runs so cache
// signatures and baseline diffs stay deterministic.
var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Site = "example.com"
	cfg.Competitors = []string{"rival.com"}
	cfg.Niche = "dental"
	return cfg
}

// samplePayload returns a healthy provider response for the query kind.
func samplePayload(kind string) (any, bool) {
	switch kind {
	case unit.KindSearchMetrics:
		return unit.SearchMetricsPayload{
			Clicks:        1200,
			Impressions:   40000,
			CTR:           0.03,
			AvgPosition:   12.4,
			IndexCoverage: 0.92,
			BrandedClicks: 300,
		}, true
	case unit.KindKeywordTable:
		return unit.KeywordTablePayload{
			Keywords: []unit.KeywordStat{
				{Keyword: "teeth whitening", Clicks: 140, Impressions: 5200, Position: 8.2},
				{Keyword: "dental implants", Clicks: 60, Impressions: 4100, Position: 14.5},
			},
		}, true
	case unit.KindPageVitals:
		return unit.PageVitalsPayload{
			LCPMs:            2300,
			INPMs:            180,
			CLS:              0.08,
			TTFBMs:           600,
			PerformanceScore: 0.88,
		}, true
	case unit.KindCrawlScan:
		return unit.CrawlScanPayload{
			PagesScanned:        120,
			BrokenLinks:         1,
			MissingTitles:       2,
			MissingDescriptions: 4,
			SitemapFound:        true,
			RobotsFound:         true,
		}, true
	case unit.KindContentScan:
		return unit.ContentScanPayload{
			PagesSampled:    40,
			AvgWordCount:    950,
			ThinPages:       3,
			DuplicateTitles: 1,
		}, true
	case unit.KindCompetitorScan:
		return unit.CompetitorScanPayload{
			Competitor:   "rival.com",
			Technologies: []string{"nextjs", "cloudflare"},
			LCPMs:        2500,
		}, true
	case unit.KindReviewScan:
		return unit.ReviewScanPayload{
			Mentions:  20,
			Positive:  15,
			Negative:  2,
			Neutral:   3,
			AvgRating: 4.4,
		}, true
	case unit.KindPricingScan:
		return unit.PricingScanPayload{
			YourPrice:        99,
			CompetitorPrices: map[string]float64{"rival.com": 109},
			Currency:         "USD",
		}, true
	case unit.KindAuthorityMetrics:
		return unit.AuthorityPayload{
			DomainRating:     55,
			Backlinks:        4200,
			ReferringDomains: 310,
			ToxicRatio:       0.01,
		}, true
	case unit.KindLocalPack:
		return unit.LocalPackPayload{
			ListingsFound:    5,
			ListingsExpected: 6,
			AvgRating:        4.5,
			NAPConsistent:    true,
		}, true
	case unit.KindSERPScan:
		return unit.SERPScanPayload{
			KeywordsScanned:    10,
			FeaturesSeen:       []string{"featured-snippet"},
			CompetitorsInTop10: map[string]int{"rival.com": 4},
			YourTop10:          3,
		}, true
	}
	return nil, false
}

// workingFetchers answers every query kind with the sample payloads.
func workingFetchers() map[string]provider.Fetcher {
	fetchers := make(map[string]provider.Fetcher, len(provider.All))
	for _, id := range provider.All {
		fetchers[id] = provider.FetcherFunc{
			ID: id,
			Fn: func(_ context.Context, query provider.Query) (json.RawMessage, error) {
				payload, ok := samplePayload(query.Kind)
				if !ok {
					return nil, errors.New("unknown query kind " + query.Kind)
				}
				return json.Marshal(payload)
			},
		}
	}
	return fetchers
}

// failingFetchers time out on every query.
func failingFetchers() map[string]provider.Fetcher {
	fetchers := make(map[string]provider.Fetcher, len(provider.All))
	for _, id := range provider.All {
		fetchers[id] = provider.FetcherFunc{
			ID: id,
			Fn: func(_ context.Context, query provider.Query) (json.RawMessage, error) {
				return nil, &provider.FetchError{
					Provider:  id,
					Signature: query.Signature(),
					Timeout:   true,
					Err:       errors.New("deadline exceeded"),
				}
			},
		}
	}
	return fetchers
}

func availableResolver(t *testing.T, unavailable ...string) *capability.Resolver {
	t.Helper()
	probes := make(map[string]capability.ProbeFunc, len(provider.All))
	for _, id := range provider.All {
		probes[id] = func(_ context.Context) error { return nil }
	}
	for _, id := range unavailable {
		probes[id] = func(_ context.Context) error {
			return &provider.CapabilityError{Provider: id, Err: errors.New("credential missing")}
		}
	}
	return capability.NewResolver(probes, capability.WithLogger(slog.New(slog.DiscardHandler)))
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New()
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return reg
}

func newTestEngine(t *testing.T, cfg *config.Config, c *cache.Cache, fetchers map[string]provider.Fetcher, baselines *baseline.Store, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithLogger(slog.New(slog.DiscardHandler)),
		WithResolver(availableResolver(t)),
		WithBaselineStore(baselines),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(cfg, testRegistry(t), c, fetchers, append(base, opts...)...)
}

// TestEngineFullRun tests that a full-mode run with every provider available
// executes the entire unit set and assembles a complete report.
func TestEngineFullRun(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	baselines := baseline.NewStore(t.TempDir(), slog.New(slog.DiscardHandler))
	eng := newTestEngine(t, cfg, cache.New(cache.NewMemoryStore()), workingFetchers(), baselines,
		WithRunID(func() string { return "run-0001" }),
	)

	rep, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.RunID != "run-0001" {
		t.Errorf("run ID: got %q, want %q", rep.RunID, "run-0001")
	}
	if len(rep.Skipped) != 0 {
		t.Errorf("expected no skipped units, got %v", rep.Skipped)
	}
	if got := len(rep.UnitResults); got != 12 {
		t.Errorf("executed units: got %d, want 12", got)
	}

	// Results come back in registry order regardless of layer completion.
	units := testRegistry(t).Units()
	for i, res := range rep.UnitResults {
		if res.UnitID != units[i].ID {
			t.Errorf("result %d: got unit %s, want %s", i, res.UnitID, units[i].ID)
		}
	}

	for _, dim := range model.DimensionOrder {
		score, ok := rep.DimensionScores[dim]
		if !ok {
			t.Errorf("dimension %s missing from scores", dim)
			continue
		}
		if score < 0 || score > 100 {
			t.Errorf("dimension %s score out of range: %d", dim, score)
		}
	}

	if _, ok := rep.KeywordPositions["teeth whitening"]; !ok {
		t.Errorf("keyword positions missing tracked keyword: %v", rep.KeywordPositions)
	}

	// First run has no baseline: every delta is new.
	if !rep.BaselineDate.IsZero() {
		t.Errorf("first run should have no baseline date, got %v", rep.BaselineDate)
	}
	for _, d := range rep.Deltas {
		if d.Direction != model.DirectionNew {
			t.Errorf("delta %s: got direction %s, want %s", d.EntityKey, d.Direction, model.DirectionNew)
		}
	}

	if rep.Plan == nil || len(rep.Plan.Sprints) != len(model.SprintOrder) {
		t.Fatalf("expected a complete action plan, got %+v", rep.Plan)
	}
}

// TestEngineSecondRunDiffsBaseline tests that a full run persists its
// snapshot and that the next run diffs against it.
func TestEngineSecondRunDiffsBaseline(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	store := cache.NewMemoryStore()
	baselines := baseline.NewStore(t.TempDir(), slog.New(slog.DiscardHandler))

	first := newTestEngine(t, cfg, cache.New(store), workingFetchers(), baselines)
	rep1, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second := newTestEngine(t, cfg, cache.New(store), workingFetchers(), baselines)
	rep2, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if rep2.BaselineDate.IsZero() {
		t.Fatal("second run should carry the first run's baseline date")
	}
	if !rep2.BaselineDate.Equal(rep1.StartedAt) {
		t.Errorf("baseline date: got %v, want %v", rep2.BaselineDate, rep1.StartedAt)
	}
	if len(rep2.PreviousScores) == 0 {
		t.Fatal("second run should carry previous dimension scores")
	}

	// Identical provider data means every dimension delta is flat.
	for _, d := range rep2.Deltas {
		if d.Direction != model.DirectionFlat {
			t.Errorf("delta %s: got direction %s, want %s", d.EntityKey, d.Direction, model.DirectionFlat)
		}
		if d.Magnitude != 0 {
			t.Errorf("delta %s: got magnitude %v, want 0", d.EntityKey, d.Magnitude)
		}
	}
	for _, d := range rep2.KeywordDeltas {
		if d.Direction != model.DirectionFlat {
			t.Errorf("keyword delta %s: got direction %s, want %s", d.EntityKey, d.Direction, model.DirectionFlat)
		}
	}
}

// TestEngineSkipsUnrunnableUnits tests that a missing required provider and
// a false precondition exclude their units without failing the run.
func TestEngineSkipsUnrunnableUnits(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Niche = "saas" // not a local niche

	baselines := baseline.NewStore(t.TempDir(), slog.New(slog.DiscardHandler))
	eng := newTestEngine(t, cfg, cache.New(cache.NewMemoryStore()), workingFetchers(), baselines,
		WithResolver(availableResolver(t, provider.PagePerformance)),
	)

	rep, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	skips := make(map[string]model.SkipReason, len(rep.Skipped))
	for _, s := range rep.Skipped {
		skips[s.UnitID] = s.Reason
	}
	if got := skips[registry.UnitPageExperience]; got != model.SkipMissingRequiredProvider {
		t.Errorf("page-experience skip reason: got %q, want %q", got, model.SkipMissingRequiredProvider)
	}
	if got := skips[registry.UnitLocalPresence]; got != model.SkipPreconditionFalse {
		t.Errorf("local-presence skip reason: got %q, want %q", got, model.SkipPreconditionFalse)
	}

	if res := rep.ResultFor(registry.UnitPageExperience); res != nil {
		t.Errorf("skipped unit must not produce a result, got %+v", res)
	}
	if len(rep.UnitResults)+len(rep.Skipped) != 12 {
		t.Errorf("results+skips: got %d+%d, want 12 total", len(rep.UnitResults), len(rep.Skipped))
	}
}

// TestEngineServesStaleAfterTimeout tests that a cache-bypassing run whose
// providers time out falls back to the previous run's cached payloads and
// records the degradation as warnings.
func TestEngineServesStaleAfterTimeout(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	store := cache.NewMemoryStore()
	baselines := baseline.NewStore(t.TempDir(), slog.New(slog.DiscardHandler))

	warm := newTestEngine(t, cfg, cache.New(store), workingFetchers(), baselines)
	rep1, err := warm.Run(context.Background())
	if err != nil {
		t.Fatalf("warm Run: %v", err)
	}

	cfg.NoCache = true
	cold := newTestEngine(t, cfg, cache.New(store), failingFetchers(), baselines)
	rep2, err := cold.Run(context.Background())
	if err != nil {
		t.Fatalf("degraded Run: %v", err)
	}

	if got, want := len(rep2.UnitResults), len(rep1.UnitResults); got != want {
		t.Errorf("degraded run executed %d units, want %d from stale cache", got, want)
	}

	var degraded bool
	for _, w := range rep2.Warnings {
		if strings.Contains(w, "degraded") {
			degraded = true
		}
	}
	if !degraded {
		t.Errorf("expected a provider degradation warning, got %v", rep2.Warnings)
	}
}

// TestEngineMissingExecutorFails tests that a scheduled unit without a
// registered executor aborts the run.
func TestEngineMissingExecutorFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	baselines := baseline.NewStore(t.TempDir(), slog.New(slog.DiscardHandler))
	eng := newTestEngine(t, cfg, cache.New(cache.NewMemoryStore()), workingFetchers(), baselines,
		WithExecutors([]unit.Executor{}),
	)

	if _, err := eng.Run(context.Background()); err == nil {
		t.Fatal("expected an error when no executors are registered")
	}
}
