package unit

// Query kinds understood by the provider fetchers. The kind plus its
// arguments form the cache signature, so two units asking for the same
// kind with the same arguments share one fetch per run.
const (
	KindSearchMetrics    = "search-metrics"
	KindKeywordTable     = "keyword-table"
	KindPageVitals       = "page-vitals"
	KindCrawlScan        = "crawl-scan"
	KindContentScan      = "content-scan"
	KindCompetitorScan   = "competitor-scan"
	KindReviewScan       = "review-scan"
	KindPricingScan      = "pricing-scan"
	KindAuthorityMetrics = "authority-metrics"
	KindLocalPack        = "local-pack"
	KindSERPScan         = "serp-scan"
)

// SearchMetricsPayload is the aggregate search performance of the site
// over the analysis window.
type SearchMetricsPayload struct {
	Clicks        int     `json:"clicks"`
	Impressions   int     `json:"impressions"`
	CTR           float64 `json:"ctr"`
	AvgPosition   float64 `json:"avg_position"`
	IndexCoverage float64 `json:"index_coverage"`
	BrandedClicks int     `json:"branded_clicks,omitempty"`
}

// KeywordStat is one tracked keyword's performance.
type KeywordStat struct {
	Keyword     string  `json:"keyword"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Position    float64 `json:"position"`
}

// KeywordTablePayload is the per-keyword breakdown from the search
// performance provider.
type KeywordTablePayload struct {
	Keywords []KeywordStat `json:"keywords"`
}

// PageVitalsPayload carries the field metrics of one page performance
// measurement.
type PageVitalsPayload struct {
	LCPMs            float64 `json:"lcp_ms"`
	INPMs            float64 `json:"inp_ms"`
	CLS              float64 `json:"cls"`
	TTFBMs           float64 `json:"ttfb_ms"`
	PerformanceScore float64 `json:"performance_score"`
	Strategy         string  `json:"strategy,omitempty"`
}

// SearchResultItem is one organic result from the web search provider.
type SearchResultItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// WebSearchPayload is a generic web search response.
type WebSearchPayload struct {
	Answer  string             `json:"answer,omitempty"`
	Results []SearchResultItem `json:"results"`
}

// CrawlScanPayload summarizes a site crawl.
type CrawlScanPayload struct {
	PagesScanned        int  `json:"pages_scanned"`
	BrokenLinks         int  `json:"broken_links"`
	MissingTitles       int  `json:"missing_titles"`
	MissingDescriptions int  `json:"missing_descriptions"`
	SitemapFound        bool `json:"sitemap_found"`
	RobotsFound         bool `json:"robots_found"`
}

// ContentScanPayload summarizes sampled page content.
type ContentScanPayload struct {
	PagesSampled    int     `json:"pages_sampled"`
	AvgWordCount    float64 `json:"avg_word_count"`
	ThinPages       int     `json:"thin_pages"`
	DuplicateTitles int     `json:"duplicate_titles"`
}

// CompetitorScanPayload describes one competitor's observed stack.
type CompetitorScanPayload struct {
	Competitor   string   `json:"competitor"`
	Technologies []string `json:"technologies,omitempty"`
	LCPMs        float64  `json:"lcp_ms,omitempty"`
}

// ReviewScanPayload summarizes reputation mentions.
type ReviewScanPayload struct {
	Mentions  int     `json:"mentions"`
	Positive  int     `json:"positive"`
	Negative  int     `json:"negative"`
	Neutral   int     `json:"neutral"`
	AvgRating float64 `json:"avg_rating,omitempty"`
}

// PricingScanPayload carries observed market prices.
type PricingScanPayload struct {
	YourPrice        float64            `json:"your_price"`
	CompetitorPrices map[string]float64 `json:"competitor_prices"`
	Currency         string             `json:"currency,omitempty"`
}

// AuthorityPayload carries link profile metrics.
type AuthorityPayload struct {
	DomainRating     float64 `json:"domain_rating"`
	Backlinks        int     `json:"backlinks"`
	ReferringDomains int     `json:"referring_domains"`
	ToxicRatio       float64 `json:"toxic_ratio"`
}

// LocalPackPayload summarizes local directory presence.
type LocalPackPayload struct {
	ListingsFound    int     `json:"listings_found"`
	ListingsExpected int     `json:"listings_expected"`
	AvgRating        float64 `json:"avg_rating"`
	NAPConsistent    bool    `json:"nap_consistent"`
}

// SERPScanPayload summarizes result-page features for tracked keywords.
type SERPScanPayload struct {
	KeywordsScanned    int            `json:"keywords_scanned"`
	FeaturesSeen       []string       `json:"features_seen,omitempty"`
	CompetitorsInTop10 map[string]int `json:"competitors_in_top10,omitempty"`
	YourTop10          int            `json:"your_top10"`
}
