package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/seo-intel/seointel/internal/provider"
)

// maxResponseBytes bounds a single provider response read.
const maxResponseBytes = 4 << 20

// httpFetcher is the thin wrapper around one provider's HTTP gateway. The
// gateway address comes from SEOINTEL_<PROVIDER>_URL; the query travels as
// a JSON body and the response body is the raw payload handed to the unit
// executors.
type httpFetcher struct {
	providerID string
	endpoint   string
	client     *http.Client
}

// newHTTPFetcher creates a fetcher for one provider gateway.
func newHTTPFetcher(providerID, endpoint string, timeout time.Duration) *httpFetcher {
	return &httpFetcher{
		providerID: providerID,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
	}
}

// ProviderID implements provider.Fetcher.
func (f *httpFetcher) ProviderID() string {
	return f.providerID
}

// Fetch implements provider.Fetcher. Transient failures are retried at most
// once before surfacing a FetchError.
func (f *httpFetcher) Fetch(ctx context.Context, query provider.Query) (json.RawMessage, error) {
	payload, err := f.fetchOnce(ctx, query)
	if err == nil {
		return payload, nil
	}
	if ctx.Err() == nil {
		payload, err = f.fetchOnce(ctx, query)
		if err == nil {
			return payload, nil
		}
	}

	return nil, &provider.FetchError{
		Provider:  f.providerID,
		Signature: query.Signature(),
		Timeout:   errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err),
		Err:       err,
	}
}

// fetchOnce performs a single request against the gateway.
func (f *httpFetcher) fetchOnce(ctx context.Context, query provider.Query) (json.RawMessage, error) {
	body, err := json.Marshal(struct {
		Kind string            `json:"kind"`
		Args map[string]string `json:"args,omitempty"`
	}{Kind: query.Kind, Args: query.Args})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// isClientTimeout reports whether the error is an http.Client deadline.
func isClientTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// endpointEnvVar returns the environment variable naming a provider's
// gateway address, e.g. SEOINTEL_SEARCH_PERFORMANCE_URL.
func endpointEnvVar(providerID string) string {
	return "SEOINTEL_" + strings.ToUpper(strings.ReplaceAll(providerID, "-", "_")) + "_URL"
}

// buildFetchers wires one HTTP fetcher per registered provider. Providers
// without a configured gateway get a fetcher that fails fast; capability
// resolution normally skips their units before any fetch happens.
func buildFetchers(timeout time.Duration) map[string]provider.Fetcher {
	fetchers := make(map[string]provider.Fetcher, len(provider.All))
	for _, id := range provider.All {
		endpoint := os.Getenv(endpointEnvVar(id))
		if endpoint == "" {
			fetchers[id] = provider.FetcherFunc{
				ID: id,
				Fn: func(_ context.Context, query provider.Query) (json.RawMessage, error) {
					return nil, &provider.FetchError{
						Provider:  id,
						Signature: query.Signature(),
						Err:       fmt.Errorf("no gateway configured (set %s)", endpointEnvVar(id)),
					}
				},
			}
			continue
		}
		fetchers[id] = newHTTPFetcher(id, endpoint, timeout)
	}
	return fetchers
}
