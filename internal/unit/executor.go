package unit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/seo-intel/seointel/internal/config"
	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
)

// Request is one provider query an executor needs resolved before it runs.
type Request struct {
	// Provider is the provider that serves the query.
	Provider string

	// Query describes what to fetch.
	Query provider.Query
}

// Key returns the payload map key for this request.
func (r Request) Key() string {
	return r.Provider + "/" + r.Query.Signature()
}

// Inputs carries everything an executor may read. The engine builds one
// Inputs per run and refreshes Payloads and Prior between layers.
type Inputs struct {
	// Site is the analyzed domain.
	Site string

	// Competitors are the competitor domains of the run.
	Competitors []string

	// Niche is the declared business niche.
	Niche string

	// Mode is the execution mode.
	Mode model.Mode

	// PeriodStart and PeriodEnd bound the analysis window.
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Currency is the ISO 4217 code for monetary metrics.
	Currency string

	// Thresholds maps metric names to their classification bands.
	Thresholds map[string]config.Band

	// Contributions maps bands to score contributions.
	Contributions config.Contributions

	// Payloads holds resolved provider responses keyed by Request.Key().
	Payloads map[string]json.RawMessage

	// Degraded marks providers whose data came from a degraded capability
	// or a stale cache fallback. Their values are annotated as estimated.
	Degraded map[string]bool

	// Prior maps unit IDs to results of units from earlier layers.
	Prior map[string]*model.UnitResult
}

// Payload returns the resolved payload for a request.
func (in *Inputs) Payload(r Request) (json.RawMessage, bool) {
	p, ok := in.Payloads[r.Key()]
	return p, ok
}

// Decode unmarshals the payload for a request into v.
func (in *Inputs) Decode(r Request, v any) error {
	p, ok := in.Payload(r)
	if !ok {
		return fmt.Errorf("no payload for %s", r.Key())
	}
	return json.Unmarshal(p, v)
}

// Annotation returns the provenance annotation for values sourced from the
// given provider in this run.
func (in *Inputs) Annotation(providerID string) model.Annotation {
	if in.Degraded[providerID] {
		return model.AnnotationEstimated
	}
	return model.AnnotationRealtime(providerID)
}

// Executor is the uniform analysis unit contract.
type Executor interface {
	// UnitID returns the registry ID of the unit this executor implements.
	UnitID() string

	// Requests declares the provider queries the unit needs. The engine
	// resolves them through the cache before calling Execute. Requests is
	// called after all dependency layers completed, so it may read Prior.
	Requests(in *Inputs) []Request

	// Execute turns resolved payloads into a normalized result. It returns
	// an error only for programming faults; data problems (missing or
	// malformed payloads) degrade the result's status instead.
	Execute(ctx context.Context, in *Inputs) (*model.UnitResult, error)
}

// All returns one executor instance per registered scoring unit, in
// registry order.
func All() []Executor {
	return []Executor{
		&searchVisibility{},
		&pageExperience{},
		&keywordMovement{},
		&technicalCrawl{},
		&contentHealth{},
		&competitorStack{},
		&reputationWatch{},
		&priceBenchmark{},
		&backlinkAuthority{},
		&localPresence{},
		&serpRadar{},
		&actionPlan{},
	}
}

// ContractError reports an executor result that violates the unit contract,
// e.g. an issue without a suggested action. It indicates a programming
// fault in the executor, not bad input data.
type ContractError struct {
	// UnitID is the offending unit.
	UnitID string

	// Detail describes the violation.
	Detail string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("unit contract violation in %s: %s", e.UnitID, e.Detail)
}

// Validate checks a result against the unit contract. The engine runs it
// after every Execute.
func Validate(res *model.UnitResult) error {
	for i, issue := range res.Issues {
		if issue.SuggestedAction == "" {
			return &ContractError{UnitID: res.UnitID, Detail: fmt.Sprintf("issue %d (%s) has no suggested action", i, issue.Title)}
		}
		if issue.OriginUnitID != res.UnitID {
			return &ContractError{UnitID: res.UnitID, Detail: fmt.Sprintf("issue %d (%s) attributed to %s", i, issue.Title, issue.OriginUnitID)}
		}
	}
	if res.Score != nil && !res.Status.Executed() {
		return &ContractError{UnitID: res.UnitID, Detail: "score on a unit that did not execute"}
	}
	return nil
}

// newIssue builds a finding attributed to the unit.
func newIssue(unitID string, sev model.Severity, title, description, action string) model.Issue {
	return model.Issue{
		Severity:        sev,
		SeverityText:    sev.String(),
		Title:           title,
		Description:     description,
		SuggestedAction: action,
		OriginUnitID:    unitID,
	}
}

// scoreBanded classifies the given metrics against the threshold table,
// records them on the result, and returns the averaged contribution score.
// Metrics without a threshold entry are recorded unclassified and do not
// affect the score. The boolean reports whether any metric was scored.
func scoreBanded(res *model.UnitResult, in *Inputs, ann model.Annotation, metrics map[string]float64) (int, bool) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var total, scored int
	for _, name := range names {
		value := metrics[name]
		band, ok := in.Thresholds[name]
		if !ok {
			res.RawMetrics[name] = model.Metric{Value: value, Annotation: ann}
			continue
		}
		class := band.Classify(value)
		res.RawMetrics[name] = model.Metric{
			Value:      value,
			Label:      string(class),
			Annotation: ann,
		}
		total += in.Contributions.For(class)
		scored++
	}

	if scored == 0 {
		return 0, false
	}
	return int(math.Round(float64(total) / float64(scored))), true
}

// recordInfo stores an informational, unclassified metric.
func recordInfo(res *model.UnitResult, name string, value float64, ann model.Annotation) {
	res.RawMetrics[name] = model.Metric{Value: value, Annotation: ann}
}

// finish assigns the final status from how many required inputs resolved.
// missing lists the required providers whose payloads never arrived.
func finish(res *model.UnitResult, required int, missing []string) {
	switch {
	case required == 0 || len(missing) == 0:
		res.SetStatus(model.StatusCompleted)
	case len(missing) < required:
		res.SetStatus(model.StatusPartial)
		res.FailureReason = "missing input from " + joinSorted(missing)
	default:
		res.SetStatus(model.StatusFailed)
		res.FailureReason = "no usable input: " + joinSorted(missing)
	}
}

func joinSorted(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	out := ""
	for i, id := range sorted {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}
