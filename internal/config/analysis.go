package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
)

// Duration wraps time.Duration so YAML values like "6h" decode naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler using time.ParseDuration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// ProviderConfig holds per-provider tuning from the config file.
type ProviderConfig struct {
	// CredentialEnv names the environment variable holding the provider's
	// API credential. The capability resolver probes this variable.
	CredentialEnv string `yaml:"credentialEnv,omitempty"`

	// CacheTTL is the freshness window for cached responses from this
	// provider. Zero means the built-in default.
	CacheTTL Duration `yaml:"cacheTTL,omitempty"`
}

// BandClass is the classification of a metric value against its thresholds.
type BandClass string

const (
	// BandGood marks values at or better than the good threshold.
	BandGood BandClass = "good"

	// BandNeedsImprovement marks values between the thresholds.
	BandNeedsImprovement BandClass = "needs-improvement"

	// BandPoor marks values at or worse than the poor threshold.
	BandPoor BandClass = "poor"
)

// Band defines the classification thresholds for one metric.
type Band struct {
	// Good is the threshold for the good band.
	Good float64 `yaml:"good"`

	// Poor is the threshold for the poor band.
	Poor float64 `yaml:"poor"`

	// LowerBetter inverts the comparison, for metrics like load time
	// where smaller values are better.
	LowerBetter bool `yaml:"lowerBetter,omitempty"`
}

// Classify places a value into its band.
func (b Band) Classify(value float64) BandClass {
	if b.LowerBetter {
		switch {
		case value <= b.Good:
			return BandGood
		case value >= b.Poor:
			return BandPoor
		default:
			return BandNeedsImprovement
		}
	}
	switch {
	case value >= b.Good:
		return BandGood
	case value <= b.Poor:
		return BandPoor
	default:
		return BandNeedsImprovement
	}
}

// Contributions maps each band to its score contribution.
type Contributions struct {
	// Good is the contribution of a good-band metric.
	Good int `yaml:"good"`

	// NeedsImprovement is the contribution of a mid-band metric.
	NeedsImprovement int `yaml:"needsImprovement"`

	// Poor is the contribution of a poor-band metric.
	Poor int `yaml:"poor"`
}

// For returns the contribution of the given band.
func (c Contributions) For(class BandClass) int {
	switch class {
	case BandGood:
		return c.Good
	case BandPoor:
		return c.Poor
	default:
		return c.NeedsImprovement
	}
}

// EffortLevel grades how much work an action item takes.
type EffortLevel string

// ImpactLevel grades how much an action item moves scores.
type ImpactLevel string

// Effort and impact levels used by sprint classification.
const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"

	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// SprintRules control how issues become sprint-bucketed action items.
type SprintRules struct {
	// ImpactBySeverity maps severity names (critical, high, medium, low)
	// to impact levels. Severities absent from the map grade as low impact.
	ImpactBySeverity map[string]ImpactLevel `yaml:"impactBySeverity,omitempty"`

	// EffortByUnit maps unit IDs to effort levels. Units absent from the
	// map grade as low effort.
	EffortByUnit map[string]EffortLevel `yaml:"effortByUnit,omitempty"`
}

// Impact returns the impact level for a severity.
func (r SprintRules) Impact(sev model.Severity) ImpactLevel {
	if lvl, ok := r.ImpactBySeverity[sev.String()]; ok {
		return lvl
	}
	return ImpactLow
}

// Effort returns the effort level for a unit.
func (r SprintRules) Effort(unitID string) EffortLevel {
	if lvl, ok := r.EffortByUnit[unitID]; ok {
		return lvl
	}
	return EffortLow
}

// Analysis represents the structure of the .seointel configuration file.
// Missing sections fall back to the built-in defaults, so a partial file
// only overrides what it names.
type Analysis struct {
	// Providers maps provider IDs to their tuning.
	Providers map[string]ProviderConfig `yaml:"providers,omitempty"`

	// Thresholds maps metric names to their classification bands.
	Thresholds map[string]Band `yaml:"thresholds,omitempty"`

	// Contributions maps bands to score contributions.
	Contributions Contributions `yaml:"contributions,omitempty"`

	// UnitWeights maps unit IDs to their weight in dimension aggregation.
	// Units absent from the map weigh 1.
	UnitWeights map[string]int `yaml:"unitWeights,omitempty"`

	// Sprints holds the sprint classification rules.
	Sprints SprintRules `yaml:"sprints,omitempty"`

	// Currency is the ISO 4217 code used when rendering monetary metrics.
	Currency string `yaml:"currency,omitempty"`

	// LocalNiches lists niche names that mark a site as locally oriented.
	LocalNiches []string `yaml:"localNiches,omitempty"`
}

// DefaultAnalysis returns the built-in analysis tuning.
//
// Threshold values for page experience follow the published Core Web
// Vitals boundaries; search metric thresholds are pragmatic defaults that
// users adjust per niche via the config file.
func DefaultAnalysis() *Analysis {
	return &Analysis{
		Providers: map[string]ProviderConfig{
			provider.SearchPerformance: {
				CredentialEnv: "SEARCH_CONSOLE_KEY",
				CacheTTL:      Duration(6 * time.Hour),
			},
			provider.PagePerformance: {
				CredentialEnv: "PAGESPEED_API_KEY",
				CacheTTL:      Duration(12 * time.Hour),
			},
			provider.WebSearch: {
				CredentialEnv: "TAVILY_API_KEY",
				CacheTTL:      Duration(24 * time.Hour),
			},
			provider.LinkAuthority: {
				CredentialEnv: "LINK_AUTHORITY_KEY",
				CacheTTL:      Duration(48 * time.Hour),
			},
		},
		Thresholds: map[string]Band{
			"lcp_ms":            {Good: 2500, Poor: 4000, LowerBetter: true},
			"inp_ms":            {Good: 200, Poor: 500, LowerBetter: true},
			"cls":               {Good: 0.1, Poor: 0.25, LowerBetter: true},
			"ttfb_ms":           {Good: 800, Poor: 1800, LowerBetter: true},
			"ctr":               {Good: 0.05, Poor: 0.01},
			"avg_position":      {Good: 10, Poor: 30, LowerBetter: true},
			"index_coverage":    {Good: 0.95, Poor: 0.75},
			"broken_ratio":      {Good: 0.01, Poor: 0.05, LowerBetter: true},
			"meta_gap_ratio":    {Good: 0.05, Poor: 0.25, LowerBetter: true},
			"content_depth":     {Good: 900, Poor: 300},
			"thin_ratio":        {Good: 0.1, Poor: 0.3, LowerBetter: true},
			"sentiment_ratio":   {Good: 0.7, Poor: 0.4},
			"price_delta_ratio": {Good: 0.05, Poor: 0.25, LowerBetter: true},
			"domain_rating":     {Good: 50, Poor: 20},
			"toxic_ratio":       {Good: 0.02, Poor: 0.1, LowerBetter: true},
			"serp_presence":     {Good: 0.4, Poor: 0.1},
			"listing_coverage":  {Good: 0.8, Poor: 0.4},
			"avg_rating":        {Good: 4.2, Poor: 3.5},
			"lcp_gap_ms":        {Good: 0, Poor: 800, LowerBetter: true},
		},
		Contributions: Contributions{
			Good:             100,
			NeedsImprovement: 60,
			Poor:             25,
		},
		UnitWeights: map[string]int{
			"search-visibility":  3,
			"page-experience":    2,
			"keyword-movement":   2,
			"technical-crawl":    2,
			"content-health":     2,
			"backlink-authority": 2,
		},
		Sprints: SprintRules{
			ImpactBySeverity: map[string]ImpactLevel{
				model.SeverityCritical.String(): ImpactHigh,
				model.SeverityHigh.String():     ImpactHigh,
				model.SeverityMedium.String():   ImpactMedium,
				model.SeverityLow.String():      ImpactLow,
			},
			EffortByUnit: map[string]EffortLevel{
				"technical-crawl":    EffortHigh,
				"content-health":     EffortMedium,
				"backlink-authority": EffortHigh,
				"competitor-stack":   EffortMedium,
			},
		},
		Currency:    "USD",
		LocalNiches: []string{"restaurant", "dental", "legal", "retail", "realestate", "medical", "fitness", "salon"},
	}
}

// ProviderTTL returns the cache TTL for a provider, falling back to one
// hour for providers without tuning.
func (a *Analysis) ProviderTTL(providerID string) time.Duration {
	if pc, ok := a.Providers[providerID]; ok && pc.CacheTTL > 0 {
		return time.Duration(pc.CacheTTL)
	}
	return time.Hour
}

// UnitWeight returns the aggregation weight for a unit. Units without an
// entry weigh 1.
func (a *Analysis) UnitWeight(unitID string) int {
	if w, ok := a.UnitWeights[unitID]; ok && w > 0 {
		return w
	}
	return 1
}

// IsLocalNiche reports whether the niche marks a site as locally oriented.
func (a *Analysis) IsLocalNiche(niche string) bool {
	for _, n := range a.LocalNiches {
		if n == niche {
			return true
		}
	}
	return false
}
