package model

import "sort"

// Annotation marks the provenance of a rendered data value. Every value in
// the report document carries exactly one annotation; a value without one is
// an assembly contract violation.
type Annotation string

const (
	// AnnotationEstimated marks values derived indirectly, typically from a
	// degraded provider or a web-search approximation of a missing source.
	AnnotationEstimated Annotation = "estimated"

	// AnnotationNotAvailable marks values that could not be obtained at all.
	AnnotationNotAvailable Annotation = "not-available"
)

// AnnotationRealtime returns the annotation for a value sourced live from
// the given provider, e.g. "realtime-search-performance".
func AnnotationRealtime(providerID string) Annotation {
	return Annotation("realtime-" + providerID)
}

// Metric is one normalized measurement produced by an analysis unit.
type Metric struct {
	// Value is the numeric measurement.
	Value float64 `json:"value"`

	// Label is the qualitative classification assigned by the unit's
	// threshold table (good / needs-improvement / poor). Empty for metrics
	// that are informational and not classified.
	Label string `json:"label,omitempty"`

	// Currency is the ISO 4217 code when the value is monetary, e.g. "USD".
	// Monetary values are always rendered with a currency symbol.
	Currency string `json:"currency,omitempty"`

	// Annotation is the provenance of the value. Never empty.
	Annotation Annotation `json:"source"`
}

// UnitResult is the normalized output of one analysis unit for one run.
// It is created once per unit per run and owned exclusively by that run.
type UnitResult struct {
	// UnitID identifies the unit in the registry.
	UnitID string `json:"unit_id"`

	// Status is the execution outcome.
	Status Status `json:"-"`

	// StatusText is the serialized form of Status.
	StatusText string `json:"status"`

	// Score is the unit score in [0,100]. Nil when the unit produced no
	// score (skipped or failed); absence of data never renders as 0.
	Score *int `json:"score,omitempty"`

	// Issues are the remediation findings derived by the unit, in the
	// order the unit emitted them.
	Issues []Issue `json:"issues,omitempty"`

	// RawMetrics maps metric names to their normalized values.
	RawMetrics map[string]Metric `json:"raw_metrics,omitempty"`

	// SourcesUsed lists the providers whose payloads contributed, sorted.
	// For a completed unit this is a subset of required ∪ optional and a
	// superset of required.
	SourcesUsed []string `json:"sources_used,omitempty"`

	// DegradedSources lists contributing providers that were degraded;
	// their values are annotated as estimated.
	DegradedSources []string `json:"degraded_sources,omitempty"`

	// FailureReason explains StatusFailed or StatusPartial outcomes.
	FailureReason string `json:"failure_reason,omitempty"`
}

// NewUnitResult creates a result for the given unit with no score and an
// initial status of StatusFailed; executors upgrade the status as inputs
// resolve.
func NewUnitResult(unitID string) *UnitResult {
	return &UnitResult{
		UnitID:     unitID,
		Status:     StatusFailed,
		StatusText: StatusFailed.String(),
		RawMetrics: make(map[string]Metric),
	}
}

// SetStatus updates both the status and its serialized text.
func (r *UnitResult) SetStatus(s Status) {
	r.Status = s
	r.StatusText = s.String()
}

// SetScore assigns a clamped integer score in [0,100].
func (r *UnitResult) SetScore(score int) {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.Score = &score
}

// AddSource records a contributing provider, keeping SourcesUsed sorted and
// free of duplicates. Degraded providers are additionally tracked so their
// values render as estimated.
func (r *UnitResult) AddSource(providerID string, degraded bool) {
	for _, s := range r.SourcesUsed {
		if s == providerID {
			return
		}
	}
	r.SourcesUsed = append(r.SourcesUsed, providerID)
	sort.Strings(r.SourcesUsed)
	if degraded {
		r.DegradedSources = append(r.DegradedSources, providerID)
		sort.Strings(r.DegradedSources)
	}
}

// UsedSource reports whether the given provider contributed to this result.
func (r *UnitResult) UsedSource(providerID string) bool {
	for _, s := range r.SourcesUsed {
		if s == providerID {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of issues at the given severity.
func (r *UnitResult) CountBySeverity(sev Severity) int {
	var n int
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}
