package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seo-intel/seointel/internal/provider"
)

// TestEndpointEnvVar tests gateway variable naming.
func TestEndpointEnvVar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		providerID string
		want       string
	}{
		{provider.SearchPerformance, "SEOINTEL_SEARCH_PERFORMANCE_URL"},
		{provider.WebSearch, "SEOINTEL_WEB_SEARCH_URL"},
		{provider.LinkAuthority, "SEOINTEL_LINK_AUTHORITY_URL"},
	}

	for _, tt := range tests {
		if got := endpointEnvVar(tt.providerID); got != tt.want {
			t.Errorf("endpointEnvVar(%q) = %q, want %q", tt.providerID, got, tt.want)
		}
	}
}

// TestHTTPFetcherFetch tests the gateway round trip.
func TestHTTPFetcherFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: got %q", ct)
		}
		w.Write([]byte(`{"clicks": 12}`))
	}))
	defer srv.Close()

	f := newHTTPFetcher(provider.SearchPerformance, srv.URL, time.Second)
	payload, err := f.Fetch(context.Background(), provider.Query{Kind: "search-metrics"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(payload) != `{"clicks": 12}` {
		t.Errorf("payload: got %q", payload)
	}
}

// TestHTTPFetcherRetriesOnce tests that a transient failure is retried at
// most once before surfacing a FetchError.
func TestHTTPFetcherRetriesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := newHTTPFetcher(provider.WebSearch, srv.URL, time.Second)
	if _, err := f.Fetch(context.Background(), provider.Query{Kind: "crawl-scan"}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("gateway calls: got %d, want 2", got)
	}
}

// TestHTTPFetcherSurfacesFetchError tests the failure taxonomy after the
// retry is exhausted.
func TestHTTPFetcherSurfacesFetchError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newHTTPFetcher(provider.WebSearch, srv.URL, time.Second)
	_, err := f.Fetch(context.Background(), provider.Query{Kind: "crawl-scan"})

	var fetchErr *provider.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Provider != provider.WebSearch {
		t.Errorf("provider: got %q", fetchErr.Provider)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("gateway calls: got %d, want 2", got)
	}
}

// TestBuildFetchersWithoutGateway tests that unconfigured providers get a
// fail-fast fetcher rather than a missing map entry.
func TestBuildFetchersWithoutGateway(t *testing.T) {
	for _, id := range provider.All {
		t.Setenv(endpointEnvVar(id), "")
	}

	fetchers := buildFetchers(time.Second)
	if len(fetchers) != len(provider.All) {
		t.Fatalf("fetchers: got %d, want %d", len(fetchers), len(provider.All))
	}

	_, err := fetchers[provider.SearchPerformance].Fetch(context.Background(), provider.Query{Kind: "search-metrics"})
	var fetchErr *provider.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

// TestBuildFetchersWithGateway tests that a configured gateway produces a
// live fetcher.
func TestBuildFetchersWithGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	for _, id := range provider.All {
		t.Setenv(endpointEnvVar(id), "")
	}
	t.Setenv(endpointEnvVar(provider.WebSearch), srv.URL)

	fetchers := buildFetchers(time.Second)
	payload, err := fetchers[provider.WebSearch].Fetch(context.Background(), provider.Query{Kind: "crawl-scan"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(payload) != `{"ok":true}` {
		t.Errorf("payload: got %q", payload)
	}
}
