package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
)

// TestResolve tests the tri-state mapping of probe outcomes.
func TestResolve(t *testing.T) {
	t.Parallel()

	probes := map[string]ProbeFunc{
		provider.SearchPerformance: func(_ context.Context) error { return nil },
		provider.WebSearch: func(_ context.Context) error {
			return &provider.SoftError{Provider: provider.WebSearch, Warning: "quota at 92%"}
		},
		provider.PagePerformance: func(_ context.Context) error {
			return &provider.CapabilityError{Provider: provider.PagePerformance, Err: errors.New("PAGESPEED_API_KEY is not set")}
		},
		// link-authority has no probe at all.
	}

	caps := NewResolver(probes).Resolve(context.Background())

	if len(caps) != len(provider.All) {
		t.Fatalf("expected an entry for every provider, got %d", len(caps))
	}

	if got := caps[provider.SearchPerformance].State; got != model.CapabilityAvailable {
		t.Errorf("search-performance: got %v, want available", got)
	}

	ws := caps[provider.WebSearch]
	if ws.State != model.CapabilityDegraded {
		t.Errorf("web-search: got %v, want degraded", ws.State)
	}
	if ws.Reason != "quota at 92%" {
		t.Errorf("web-search reason: got %q", ws.Reason)
	}

	if got := caps[provider.PagePerformance].State; got != model.CapabilityUnavailable {
		t.Errorf("page-performance: got %v, want unavailable", got)
	}

	la := caps[provider.LinkAuthority]
	if la.State != model.CapabilityUnavailable {
		t.Errorf("link-authority: got %v, want unavailable", la.State)
	}
	if la.Reason != "no credential probe configured" {
		t.Errorf("link-authority reason: got %q", la.Reason)
	}
}

// TestResolveContainsPanic tests that a panicking probe never aborts the run.
func TestResolveContainsPanic(t *testing.T) {
	t.Parallel()

	probes := map[string]ProbeFunc{
		provider.WebSearch: func(_ context.Context) error { panic("credential file unreadable") },
	}

	caps := NewResolver(probes).Resolve(context.Background())

	ws := caps[provider.WebSearch]
	if ws.State != model.CapabilityUnavailable {
		t.Errorf("panicking probe should resolve unavailable, got %v", ws.State)
	}
	if ws.Reason == "" {
		t.Error("expected a reason summarizing the panic")
	}
}

// TestEnvProbe tests the environment variable credential probe.
func TestEnvProbe(t *testing.T) {
	t.Setenv("SEOINTEL_TEST_KEY", "abc123")

	if err := EnvProbe(provider.WebSearch, "SEOINTEL_TEST_KEY")(context.Background()); err != nil {
		t.Errorf("probe with set env should pass: %v", err)
	}

	err := EnvProbe(provider.WebSearch, "SEOINTEL_TEST_KEY_MISSING")(context.Background())
	var ce *provider.CapabilityError
	if !errors.As(err, &ce) {
		t.Errorf("expected CapabilityError, got %v", err)
	}
}

// TestUsableProviders tests filtering to usable states.
func TestUsableProviders(t *testing.T) {
	t.Parallel()

	caps := map[string]model.ProviderCapability{
		"a": {ProviderID: "a", State: model.CapabilityAvailable},
		"b": {ProviderID: "b", State: model.CapabilityDegraded},
		"c": {ProviderID: "c", State: model.CapabilityUnavailable},
	}

	usable := UsableProviders(caps)
	if len(usable) != 2 || usable[0] != "a" || usable[1] != "b" {
		t.Errorf("unexpected usable set: %v", usable)
	}
}
