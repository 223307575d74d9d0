package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Registered provider identifiers. Providers are external data sources
// consumed through the Fetcher contract; these IDs are the only
// provider-specific knowledge the engine carries.
const (
	// SearchPerformance is query/click/position data for the analyzed site
	// (a Search Console class source).
	SearchPerformance = "search-performance"

	// PagePerformance is lab/field page speed data (a PageSpeed class
	// source).
	PagePerformance = "page-performance"

	// WebSearch is general web search and crawl extraction (a Tavily class
	// source).
	WebSearch = "web-search"

	// LinkAuthority is backlink profile data (an Ahrefs/Semrush class
	// source).
	LinkAuthority = "link-authority"
)

// All lists every registered provider in stable order.
var All = []string{SearchPerformance, PagePerformance, WebSearch, LinkAuthority}

// Known reports whether the given ID names a registered provider.
func Known(id string) bool {
	for _, p := range All {
		if p == id {
			return true
		}
	}
	return false
}

// Query describes one provider request. The engine treats it opaquely; only
// its signature participates in cache keys.
type Query struct {
	// Kind names the request type within the provider, e.g. "top-queries".
	Kind string

	// Args are the request parameters. Signature ordering is stable
	// regardless of map iteration order.
	Args map[string]string
}

// Signature returns a short stable digest of the query, used as the second
// half of the cache key (provider, signature).
func (q Query) Signature() string {
	keys := make([]string, 0, len(q.Args))
	for k := range q.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(q.Kind)
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(q.Args[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return q.Kind + "-" + hex.EncodeToString(sum[:])[:12]
}

// Fetcher is the uniform contract every provider collaborator exposes.
// Implementations perform the actual API call and return the raw payload;
// they retry transient failures at most once before surfacing a FetchError.
type Fetcher interface {
	// Fetch executes the query and returns the raw JSON payload.
	Fetch(ctx context.Context, query Query) (json.RawMessage, error)

	// ProviderID returns the provider this fetcher serves.
	ProviderID() string
}

// FetcherFunc adapts a function to the Fetcher interface for tests and
// simple wiring.
type FetcherFunc struct {
	// ID is the provider the function serves.
	ID string

	// Fn executes the query.
	Fn func(ctx context.Context, query Query) (json.RawMessage, error)
}

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, query Query) (json.RawMessage, error) {
	return f.Fn(ctx, query)
}

// ProviderID implements Fetcher.
func (f FetcherFunc) ProviderID() string {
	return f.ID
}
