package model

// Severity represents the urgency of a remediation issue.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityLow indicates minor issues with limited traffic impact.
	SeverityLow Severity = iota

	// SeverityMedium indicates issues that warrant attention within the
	// current planning cycle.
	SeverityMedium

	// SeverityHigh indicates issues that measurably cost visibility or
	// conversions.
	SeverityHigh

	// SeverityCritical indicates issues that block indexing, ranking, or
	// rendering and should be fixed before anything else.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single remediation finding produced by an analysis unit.
// Issues are immutable once created, and every issue carries a non-empty
// suggested action; the unit framework rejects issues without one.
type Issue struct {
	// Severity is the urgency of the issue.
	Severity Severity `json:"-"`

	// SeverityText is the serialized form of Severity.
	SeverityText string `json:"severity"`

	// Title is a short description of the issue.
	Title string `json:"title"`

	// Description provides more detail about what was observed.
	Description string `json:"description,omitempty"`

	// SuggestedAction is the concrete remediation step. Never empty.
	SuggestedAction string `json:"suggested_action"`

	// OriginUnitID is the analysis unit that derived the issue.
	OriginUnitID string `json:"origin_unit_id"`
}

// SprintBucket is one of exactly three priority groupings used to order
// remediation issues in the action plan.
type SprintBucket string

const (
	// SprintQuickWin groups high-impact, low-effort fixes (weeks 1-2).
	SprintQuickWin SprintBucket = "quick-win"

	// SprintGrowth groups structural improvements (weeks 3-6).
	SprintGrowth SprintBucket = "growth"

	// SprintAuthority groups long-horizon authority building (weeks 7-12).
	SprintAuthority SprintBucket = "authority"
)

// SprintOrder is the fixed rendering order of the three sprints.
var SprintOrder = []SprintBucket{SprintQuickWin, SprintGrowth, SprintAuthority}

// ActionItem is one entry of the consolidated action plan.
type ActionItem struct {
	// Severity of the originating issue.
	Severity Severity `json:"-"`

	// SeverityText is the serialized form of Severity.
	SeverityText string `json:"severity"`

	// Action is the remediation step, taken from the issue's suggested action.
	Action string `json:"action"`

	// Impact is the declared impact class of the origin unit (high/medium/low).
	Impact string `json:"impact"`

	// Effort is the declared effort class of the origin unit (high/medium/low).
	Effort string `json:"effort"`

	// OriginUnitID is the unit whose issue produced this item.
	OriginUnitID string `json:"origin_unit_id"`
}

// ActionPlan consolidates all issues of a run into exactly three sprints.
// Empty sprints are kept so the report always renders all three headings.
type ActionPlan struct {
	// Sprints maps each bucket to its ordered items.
	Sprints map[SprintBucket][]ActionItem `json:"sprints"`
}

// TotalItems returns the number of items across all sprints.
func (p *ActionPlan) TotalItems() int {
	var n int
	for _, items := range p.Sprints {
		n += len(items)
	}
	return n
}
