package model

import "time"

// Snapshot is the persisted result set of the most recent full run for one
// site. Exactly one snapshot is the current baseline per site at any time;
// the baseline engine replaces it only via an atomic swap.
type Snapshot struct {
	// SiteID is the site the snapshot belongs to.
	SiteID string `json:"site_id"`

	// Timestamp is when the producing run started.
	Timestamp time.Time `json:"timestamp"`

	// DimensionScores maps each dimension to its aggregated score.
	DimensionScores map[Dimension]int `json:"dimension_scores"`

	// UnitResults maps unit IDs to their results from the producing run.
	UnitResults map[string]*UnitResult `json:"unit_results"`

	// RawKeywordPositions maps keyword strings to their average position.
	RawKeywordPositions map[string]float64 `json:"raw_keyword_positions,omitempty"`
}

// Direction classifies the sign of a metric change between runs.
type Direction string

const (
	// DirectionUp means the current value is greater than the baseline's.
	DirectionUp Direction = "up"

	// DirectionDown means the current value is less than the baseline's.
	DirectionDown Direction = "down"

	// DirectionFlat means the value is unchanged.
	DirectionFlat Direction = "flat"

	// DirectionNew marks metrics present only in the current run.
	DirectionNew Direction = "new"

	// DirectionDiscontinued marks metrics present only in the baseline.
	// Discontinued metrics are reported, never silently dropped.
	DirectionDiscontinued Direction = "discontinued"
)

// DeltaRecord is one computed change between the baseline and the current
// run. Delta records are derived values embedded in reports, never persisted
// on their own.
type DeltaRecord struct {
	// EntityKey identifies the compared metric, e.g. "dimension/seo" or
	// "keyword/best running shoes".
	EntityKey string `json:"entity_key"`

	// Previous is the baseline value. Nil for DirectionNew.
	Previous *float64 `json:"previous_value,omitempty"`

	// Current is the value from this run. Nil for DirectionDiscontinued.
	Current *float64 `json:"current_value,omitempty"`

	// Direction classifies the change.
	Direction Direction `json:"direction"`

	// Magnitude is the absolute difference. Zero for new, discontinued,
	// and flat records.
	Magnitude float64 `json:"magnitude"`
}

// RunReport is the accumulated state of one engine run. It is the single
// input of the report assembler, which never re-queries providers.
type RunReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Site is the analyzed site.
	Site string `json:"site"`

	// Mode is the execution mode of the run.
	Mode Mode `json:"mode"`

	// StartedAt is the declared run timestamp. All date rendering in the
	// report derives from this field, never from the wall clock.
	StartedAt time.Time `json:"started_at"`

	// PeriodStart and PeriodEnd bound the analysis window.
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	// Competitors are the competitor domains included in the run.
	Competitors []string `json:"competitors,omitempty"`

	// Niche is the declared business niche, used by preconditions.
	Niche string `json:"niche,omitempty"`

	// Capabilities is the resolved provider capability mapping, keyed by
	// provider ID. Immutable after run start.
	Capabilities map[string]ProviderCapability `json:"capabilities"`

	// UnitResults holds the results of executed units in ascending
	// registry index order.
	UnitResults []*UnitResult `json:"unit_results"`

	// Skipped lists scheduler exclusions with reasons.
	Skipped []SkippedUnit `json:"skipped_units"`

	// DimensionScores are the aggregated top-level scores.
	DimensionScores map[Dimension]int `json:"dimension_scores"`

	// PreviousScores are the baseline's dimension scores, when a baseline
	// existed.
	PreviousScores map[Dimension]int `json:"previous_scores,omitempty"`

	// Deltas are the changes against the baseline.
	Deltas []DeltaRecord `json:"deltas,omitempty"`

	// KeywordPositions maps keywords to their current average position.
	KeywordPositions map[string]float64 `json:"keyword_positions,omitempty"`

	// KeywordDeltas are position changes against the baseline.
	KeywordDeltas []DeltaRecord `json:"keyword_deltas,omitempty"`

	// Plan is the consolidated three-sprint action plan. Always present.
	Plan *ActionPlan `json:"action_plan"`

	// BaselineDate is the timestamp of the baseline used for deltas,
	// zero when no baseline existed.
	BaselineDate time.Time `json:"baseline_date,omitzero"`

	// BaselineWarning records a snapshot corruption recovery, if any.
	BaselineWarning string `json:"baseline_warning,omitempty"`

	// Warnings collects non-fatal run warnings (timeouts, degradations).
	Warnings []string `json:"warnings,omitempty"`

	// Duration is the wall time of the run, set once at completion.
	Duration time.Duration `json:"-"`

	// DurationSeconds is the serialized form of Duration.
	DurationSeconds int `json:"duration_seconds"`
}

// ExecutedUnitIDs returns the IDs of units that actually ran, in order.
func (r *RunReport) ExecutedUnitIDs() []string {
	ids := make([]string, 0, len(r.UnitResults))
	for _, ur := range r.UnitResults {
		if ur.Status.Executed() {
			ids = append(ids, ur.UnitID)
		}
	}
	return ids
}

// ResultFor returns the result of the given unit, or nil if it did not run.
func (r *RunReport) ResultFor(unitID string) *UnitResult {
	for _, ur := range r.UnitResults {
		if ur.UnitID == unitID {
			return ur
		}
	}
	return nil
}

// ToSnapshot converts the run's results into a persistable snapshot.
func (r *RunReport) ToSnapshot() *Snapshot {
	units := make(map[string]*UnitResult, len(r.UnitResults))
	for _, ur := range r.UnitResults {
		units[ur.UnitID] = ur
	}
	return &Snapshot{
		SiteID:              r.Site,
		Timestamp:           r.StartedAt,
		DimensionScores:     r.DimensionScores,
		UnitResults:         units,
		RawKeywordPositions: r.KeywordPositions,
	}
}
