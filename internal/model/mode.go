package model

import "fmt"

// Mode is a named execution mode selecting which analysis units run.
// The set of modes is closed: an unrecognized mode value is a configuration
// error, never a silent fallback to ModeFull.
type Mode string

const (
	// ModeFull runs every applicable unit and persists a new baseline.
	ModeFull Mode = "full"

	// ModeDelta runs the monitoring subset and compares against the
	// baseline without replacing it.
	ModeDelta Mode = "delta"

	// ModeCompetitor builds a competitor dossier.
	ModeCompetitor Mode = "competitor"

	// ModeKeywords runs only keyword-position units.
	ModeKeywords Mode = "keywords"

	// ModePerformance runs only page-experience units.
	ModePerformance Mode = "performance"

	// ModeTechnical runs only technical crawl units.
	ModeTechnical Mode = "technical"

	// ModeLocal runs the local-presence unit.
	ModeLocal Mode = "local"

	// ModeBacklinks runs the link-authority unit.
	ModeBacklinks Mode = "backlinks"

	// ModeSentiment runs the reputation unit.
	ModeSentiment Mode = "sentiment"

	// ModePricing runs the price-benchmark unit.
	ModePricing Mode = "pricing"

	// ModeRadar runs the new-entrant radar unit.
	ModeRadar Mode = "radar"
)

// AllModes lists every recognized execution mode.
var AllModes = []Mode{
	ModeFull, ModeDelta, ModeCompetitor, ModeKeywords, ModePerformance,
	ModeTechnical, ModeLocal, ModeBacklinks, ModeSentiment, ModePricing,
	ModeRadar,
}

// ParseMode validates a mode string against the closed set.
// Unknown values return an error rather than falling back to ModeFull.
func ParseMode(s string) (Mode, error) {
	for _, m := range AllModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unrecognized execution mode %q (valid: %v)", s, AllModes)
}

// Dimension is a top-level score dimension aggregating unit scores.
type Dimension string

const (
	// DimensionSEO covers search visibility and keyword health.
	DimensionSEO Dimension = "seo"

	// DimensionTechnical covers crawlability and page experience.
	DimensionTechnical Dimension = "technical"

	// DimensionContent covers content freshness and coverage.
	DimensionContent Dimension = "content"

	// DimensionReputation covers brand sentiment and pricing position.
	DimensionReputation Dimension = "reputation"

	// DimensionAuthority covers the backlink profile.
	DimensionAuthority Dimension = "authority"
)

// DimensionOrder is the fixed rendering order of dimensions in reports.
// The comparative score table always follows this index regardless of which
// units ran.
var DimensionOrder = []Dimension{
	DimensionSEO,
	DimensionTechnical,
	DimensionContent,
	DimensionReputation,
	DimensionAuthority,
}
