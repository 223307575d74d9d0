package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seo-intel/seointel/internal/baseline"
	"github.com/seo-intel/seointel/internal/cache"
	"github.com/seo-intel/seointel/internal/capability"
	"github.com/seo-intel/seointel/internal/config"
	"github.com/seo-intel/seointel/internal/database"
	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
	"github.com/seo-intel/seointel/internal/report"
	"github.com/seo-intel/seointel/internal/score"
	"github.com/seo-intel/seointel/internal/unit"
)

// Engine runs one analysis end to end. It is safe to reuse across runs;
// per-run state lives in the RunReport.
type Engine struct {
	cfg       *config.Config
	registry  *registry.Registry
	cache     *cache.Cache
	fetchers  map[string]provider.Fetcher
	executors map[string]unit.Executor
	resolver  *capability.Resolver
	baselines *baseline.Store
	history   *database.IntelDB
	logger    *slog.Logger

	// now and newRunID are injectable for deterministic tests.
	now      func() time.Time
	newRunID func() string

	// degraded tracks providers that timed out during this run and stay
	// degraded for its remainder. Guarded by mu together with warnings.
	mu       sync.Mutex
	degraded map[string]bool
	warnings []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithResolver overrides the capability resolver. The default probes the
// credential environment variables declared in the analysis config.
func WithResolver(r *capability.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithBaselineStore overrides the baseline snapshot store.
func WithBaselineStore(s *baseline.Store) Option {
	return func(e *Engine) {
		e.baselines = s
	}
}

// WithHistory enables run history persistence into the given database.
func WithHistory(db *database.IntelDB) Option {
	return func(e *Engine) {
		e.history = db
	}
}

// WithExecutors overrides the executor set. Tests use this to substitute
// small fakes.
func WithExecutors(executors []unit.Executor) Option {
	return func(e *Engine) {
		e.executors = make(map[string]unit.Executor, len(executors))
		for _, ex := range executors {
			e.executors[ex.UnitID()] = ex
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunID overrides run ID generation. The default is a random UUID.
func WithRunID(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// New creates an Engine over the given configuration, registry, cache, and
// provider fetchers.
func New(cfg *config.Config, reg *registry.Registry, c *cache.Cache, fetchers map[string]provider.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: reg,
		cache:    c,
		fetchers: fetchers,
		now:      time.Now,
		newRunID: uuid.NewString,
		degraded: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.executors == nil {
		e.executors = make(map[string]unit.Executor)
		for _, ex := range unit.All() {
			e.executors[ex.UnitID()] = ex
		}
	}
	if e.resolver == nil {
		probes := make(map[string]capability.ProbeFunc)
		for id, pc := range cfg.Analysis.Providers {
			if pc.CredentialEnv != "" {
				probes[id] = capability.EnvProbe(id, pc.CredentialEnv)
			}
		}
		e.resolver = capability.NewResolver(probes, capability.WithLogger(e.logger))
	}
	if e.baselines == nil {
		e.baselines = baseline.NewStore(config.BaselineDir(), e.logger)
	}

	return e
}

// Run executes one analysis run and returns the assembled run report.
// Provider and fetch failures degrade individual units; Run itself fails
// only on scheduling errors, contract violations, or cancellation before
// any unit produced output.
func (e *Engine) Run(ctx context.Context) (*model.RunReport, error) {
	started := e.now()
	mode := e.cfg.ParsedMode()
	periodStart, periodEnd := e.cfg.Period(started)

	// Per-run state.
	e.mu.Lock()
	e.degraded = make(map[string]bool)
	e.warnings = nil
	e.mu.Unlock()

	caps := e.resolver.Resolve(ctx)
	for id, c := range caps {
		if c.State == model.CapabilityDegraded {
			e.markDegraded(id, c.Reason)
		}
	}

	preds := map[string]bool{
		registry.PredicateLocalNiche: e.cfg.Analysis.IsLocalNiche(e.cfg.Niche),
	}

	plan, err := e.registry.Schedule(mode, caps, preds)
	if err != nil {
		return nil, err
	}

	e.logger.Info("run scheduled",
		"run_mode", mode,
		"site", e.cfg.Site,
		"runnable", plan.RunnableCount(),
		"skipped", len(plan.Skipped),
	)

	rep := &model.RunReport{
		RunID:        e.newRunID(),
		Site:         e.cfg.Site,
		Mode:         mode,
		StartedAt:    started,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Competitors:  e.cfg.Competitors,
		Niche:        e.cfg.Niche,
		Capabilities: caps,
		Skipped:      plan.Skipped,
	}

	results, err := e.executeLayers(ctx, plan, rep)
	if err != nil {
		return nil, err
	}

	// Results render in ascending registry order regardless of which layer
	// finished first.
	for _, u := range e.registry.Units() {
		if res, ok := results[u.ID]; ok {
			rep.UnitResults = append(rep.UnitResults, res)
		}
	}

	e.aggregate(rep, results)
	e.applyBaseline(rep)

	rep.Duration = e.now().Sub(started)
	rep.DurationSeconds = int(rep.Duration / time.Second)

	e.mu.Lock()
	rep.Warnings = append(rep.Warnings, e.warnings...)
	e.mu.Unlock()

	if err := report.Validate(e.registry, rep); err != nil {
		return nil, err
	}

	e.persist(ctx, rep)
	return rep, nil
}

// executeLayers runs the plan's layers in order, units within a layer
// concurrently up to the configured limit.
func (e *Engine) executeLayers(ctx context.Context, plan *registry.Plan, rep *model.RunReport) (map[string]*model.UnitResult, error) {
	results := make(map[string]*model.UnitResult, plan.RunnableCount())

	for _, layer := range plan.Layers {
		g, layerCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.MaxConcurrent)

		layerResults := make([]*model.UnitResult, len(layer))
		for i, u := range layer {
			g.Go(func() error {
				res, err := e.runUnit(layerCtx, u, results, rep)
				if err != nil {
					return err
				}
				layerResults[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, res := range layerResults {
			results[res.UnitID] = res
		}
	}

	return results, nil
}

// runUnit resolves one unit's provider requests through the cache and
// executes it. Returned errors are contract violations; data problems end
// up in the result's status instead.
func (e *Engine) runUnit(ctx context.Context, u registry.Unit, prior map[string]*model.UnitResult, rep *model.RunReport) (*model.UnitResult, error) {
	in := e.buildInputs(prior, rep)

	executor, ok := e.executors[u.ID]
	if !ok {
		return nil, fmt.Errorf("no executor registered for unit %s", u.ID)
	}

	// Provider fetching for the whole unit shares one timeout; execution
	// itself runs under the run context so a slow provider cannot also eat
	// the normalization step.
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.UnitTimeout)
	defer cancel()

	for _, req := range executor.Requests(in) {
		payload, degraded, err := e.resolvePayload(fetchCtx, req)
		if err != nil {
			e.logger.Warn("request unresolved",
				"unit", u.ID,
				"provider", req.Provider,
				"error", err,
			)
			continue
		}
		in.Payloads[req.Key()] = payload
		if degraded {
			in.Degraded[req.Provider] = true
		}
	}

	res, err := executor.Execute(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := unit.Validate(res); err != nil {
		return nil, err
	}

	e.logger.Debug("unit finished", "unit", u.ID, "status", res.StatusText)
	return res, nil
}

// buildInputs assembles a unit's view of the run. Each unit gets its own
// payload map and a point-in-time copy of the degraded set; the analysis
// window is the run's declared period, never the wall clock.
func (e *Engine) buildInputs(prior map[string]*model.UnitResult, rep *model.RunReport) *unit.Inputs {
	e.mu.Lock()
	degraded := make(map[string]bool, len(e.degraded))
	for id, d := range e.degraded {
		degraded[id] = d
	}
	e.mu.Unlock()

	return &unit.Inputs{
		Site:          e.cfg.Site,
		Competitors:   e.cfg.Competitors,
		Niche:         e.cfg.Niche,
		Mode:          rep.Mode,
		PeriodStart:   rep.PeriodStart,
		PeriodEnd:     rep.PeriodEnd,
		Currency:      e.cfg.Analysis.Currency,
		Thresholds:    e.cfg.Analysis.Thresholds,
		Contributions: e.cfg.Analysis.Contributions,
		Payloads:      make(map[string]json.RawMessage),
		Degraded:      degraded,
		Prior:         prior,
	}
}

// resolvePayload fetches one request through the cache. On fetch failure it
// falls back to a stale cache entry when one exists; the second return
// reports whether the payload must be annotated as estimated.
func (e *Engine) resolvePayload(ctx context.Context, req unit.Request) ([]byte, bool, error) {
	fetcher, ok := e.fetchers[req.Provider]
	if !ok {
		return nil, false, fmt.Errorf("no fetcher wired for provider %s", req.Provider)
	}

	signature := req.Query.Signature()
	ttl := e.cfg.Analysis.ProviderTTL(req.Provider)

	fetch := func(ctx context.Context) ([]byte, error) {
		return fetcher.Fetch(ctx, req.Query)
	}

	// --no-cache forces a refetch but keeps storing responses, and the old
	// entry survives as the stale fallback until the refetch succeeds.
	var payload []byte
	var err error
	if e.cfg.NoCache {
		payload, err = e.cache.Refresh(ctx, req.Provider, signature, ttl, fetch)
	} else {
		payload, err = e.cache.GetOrFetch(ctx, req.Provider, signature, ttl, fetch)
	}
	if err != nil {
		if provider.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
			e.markDegraded(req.Provider, "fetch timed out")
		}

		stale, staleErr := e.cache.GetStale(ctx, req.Provider, signature)
		if staleErr == nil && stale != nil {
			e.logger.Warn("serving stale cache entry after fetch failure",
				"provider", req.Provider,
				"signature", signature,
			)
			return stale, true, nil
		}
		return nil, false, err
	}

	return payload, e.isDegraded(req.Provider), nil
}

// markDegraded flags a provider as degraded for the rest of the run and
// records the first flip as a run warning.
func (e *Engine) markDegraded(providerID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.degraded[providerID] {
		return
	}
	e.degraded[providerID] = true
	e.warnings = append(e.warnings, fmt.Sprintf("provider %s degraded: %s", providerID, reason))
}

// isDegraded reports the provider's current runtime degradation state.
func (e *Engine) isDegraded(providerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded[providerID]
}

// aggregate computes dimension scores, keyword positions, and the action
// plan from the unit results.
func (e *Engine) aggregate(rep *model.RunReport, results map[string]*model.UnitResult) {
	dims := make(map[string]model.Dimension)
	for _, u := range e.registry.Units() {
		if u.Dimension != "" {
			dims[u.ID] = u.Dimension
		}
	}
	rep.DimensionScores = score.Aggregate(rep.UnitResults, dims, e.cfg.Analysis.UnitWeight)

	rep.KeywordPositions = keywordPositions(results[registry.UnitKeywordMovement])
	rep.Plan = score.BuildActionPlan(unit.CollectIssues(results), e.cfg.Analysis.Sprints)
}

// keywordPositions extracts tracked keyword positions from the keyword
// movement unit's metrics.
func keywordPositions(res *model.UnitResult) map[string]float64 {
	if res == nil || !res.Status.Executed() {
		return nil
	}

	positions := make(map[string]float64)
	for name, metric := range res.RawMetrics {
		if kw, ok := strings.CutPrefix(name, "position/"); ok {
			positions[kw] = metric.Value
		}
	}
	if len(positions) == 0 {
		return nil
	}
	return positions
}

// applyBaseline loads the site's baseline, computes deltas, and persists a
// new snapshot when the mode calls for it. Baseline problems are warnings;
// the run proceeds as a first run.
func (e *Engine) applyBaseline(rep *model.RunReport) {
	snap, err := e.baselines.Load(rep.Site)
	if err != nil {
		var corrupt *baseline.SnapshotCorruptionError
		if errors.As(err, &corrupt) {
			rep.BaselineWarning = corrupt.Error()
			e.logger.Warn("baseline snapshot corrupted, proceeding as first run", "site", rep.Site, "error", corrupt)
		} else {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("baseline unavailable: %v", err))
			e.logger.Warn("baseline load failed", "site", rep.Site, "error", err)
		}
		snap = nil
	}

	var prevScores map[model.Dimension]int
	var prevKeywords map[string]float64
	if snap != nil {
		prevScores = snap.DimensionScores
		prevKeywords = snap.RawKeywordPositions
		rep.PreviousScores = prevScores
		rep.BaselineDate = snap.Timestamp
	}

	rep.Deltas = baseline.DiffDimensions(prevScores, rep.DimensionScores)
	rep.KeywordDeltas = baseline.DiffKeywords(prevKeywords, rep.KeywordPositions)

	if rep.Mode == model.ModeFull || e.cfg.SaveBaseline {
		if err := e.baselines.Save(rep.ToSnapshot()); err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("baseline not persisted: %v", err))
			e.logger.Warn("baseline save failed", "site", rep.Site, "error", err)
		}
	}
}

// persist writes the run into the history store when one is configured.
func (e *Engine) persist(ctx context.Context, rep *model.RunReport) {
	if e.history == nil {
		return
	}
	if err := e.history.SaveRun(ctx, rep); err != nil {
		e.logger.Warn("run history not persisted", "run_id", rep.RunID, "error", err)
	}
}
