package model

// Status represents the execution outcome of an analysis unit.
//
// Design decision: We use an explicit tagged variant threaded through every
// result type rather than nil checks or sentinel scores. The aggregator and
// the report assembler switch exhaustively on this type, so "no data" can
// never be confused with a legitimate score of 0.
type Status int

const (
	// StatusCompleted indicates the unit ran with all required providers.
	StatusCompleted Status = iota

	// StatusPartial indicates the unit ran with only a subset of its
	// required providers. The score is rescaled over available inputs.
	StatusPartial

	// StatusSkipped indicates the scheduler excluded the unit before
	// execution. A skipped unit never carries a score.
	StatusSkipped

	// StatusFailed indicates the unit started but could not produce a
	// result. Failed units contribute nothing to dimension scores.
	StatusFailed
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusPartial:
		return "partial"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Executed reports whether the unit actually ran and produced data.
func (s Status) Executed() bool {
	return s == StatusCompleted || s == StatusPartial
}

// CapabilityState is the tri-state availability of a data provider.
type CapabilityState int

const (
	// CapabilityAvailable means the provider's credential probe succeeded
	// within the run's startup window.
	CapabilityAvailable CapabilityState = iota

	// CapabilityDegraded means credentials exist but the last probe failed
	// softly (quota warning, timeout). Degraded providers are still used,
	// but every value they source is annotated as estimated.
	CapabilityDegraded

	// CapabilityUnavailable means the probe failed or no credentials are
	// configured. Units requiring this provider are skipped.
	CapabilityUnavailable
)

// String returns a human-readable representation of the capability state.
func (c CapabilityState) String() string {
	switch c {
	case CapabilityAvailable:
		return "available"
	case CapabilityDegraded:
		return "degraded"
	case CapabilityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Usable reports whether a provider in this state may serve unit requests.
// Degraded providers are usable; only unavailable ones exclude units.
func (c CapabilityState) Usable() bool {
	return c == CapabilityAvailable || c == CapabilityDegraded
}

// ProviderCapability is the per-provider result of the capability resolver.
// It is computed once at run start and immutable thereafter; runtime
// degradation (fetch timeouts) is tracked separately by the engine.
type ProviderCapability struct {
	// ProviderID identifies the provider (see the provider package).
	ProviderID string `json:"provider_id"`

	// State is the resolved tri-state capability.
	State CapabilityState `json:"-"`

	// StateText is the serialized form of State.
	StateText string `json:"state"`

	// Reason explains degraded or unavailable states. Empty when available.
	Reason string `json:"reason,omitempty"`
}

// SkipReason explains why the scheduler excluded a unit from a run.
type SkipReason string

const (
	// SkipMissingRequiredProvider means a required provider is unavailable.
	SkipMissingRequiredProvider SkipReason = "missing_required_provider"

	// SkipModeExcludesUnit means the requested mode does not include the unit.
	SkipModeExcludesUnit SkipReason = "mode_excludes_unit"

	// SkipPreconditionFalse means the unit's declared precondition predicate
	// evaluated to false (e.g. no local niche detected).
	SkipPreconditionFalse SkipReason = "conditional_precondition_false"
)

// SkippedUnit records one scheduler exclusion together with its reason.
type SkippedUnit struct {
	// UnitID is the excluded unit.
	UnitID string `json:"unit_id"`

	// Reason is the machine-readable skip reason.
	Reason SkipReason `json:"reason"`

	// Detail optionally names the provider or predicate behind the reason.
	Detail string `json:"detail,omitempty"`
}
