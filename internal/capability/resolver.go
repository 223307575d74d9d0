package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
)

// ProbeFunc checks whether a provider's credentials are present and valid.
// A nil return means available. Returning a *provider.SoftError means
// degraded (credentials exist but the probe failed softly). Any other error
// means unavailable. Probes must not mutate persisted credential state.
type ProbeFunc func(ctx context.Context) error

// DefaultProbeWindow bounds the total time spent probing at run start.
// Probes past the window resolve as unavailable rather than delaying the
// run; providers are expected to answer credential checks quickly.
const DefaultProbeWindow = 10 * time.Second

// Resolver computes the provider capability mapping once per run.
type Resolver struct {
	// probes maps provider IDs to their credential probes.
	probes map[string]ProbeFunc

	// window bounds the total probing time.
	window time.Duration

	// logger is used for structured logging during resolution.
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProbeWindow overrides the startup probe window.
func WithProbeWindow(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.window = d
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver over the given probe set.
// Providers without a probe resolve as unavailable with a fixed reason, so
// a partially wired deployment still produces a complete mapping.
func NewResolver(probes map[string]ProbeFunc, opts ...Option) *Resolver {
	r := &Resolver{
		probes: probes,
		window: DefaultProbeWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve probes every registered provider and returns the capability
// mapping. The mapping always contains an entry for each registered
// provider. Resolve never returns an error: probe failures are data, not
// control flow.
func (r *Resolver) Resolve(ctx context.Context) map[string]model.ProviderCapability {
	ctx, cancel := context.WithTimeout(ctx, r.window)
	defer cancel()

	caps := make(map[string]model.ProviderCapability, len(provider.All))
	for _, id := range provider.All {
		caps[id] = r.resolveOne(ctx, id)
		r.logger.Debug("capability resolved",
			"provider", id,
			"state", caps[id].StateText,
			"reason", caps[id].Reason,
		)
	}
	return caps
}

// resolveOne probes a single provider, containing panics and errors.
func (r *Resolver) resolveOne(ctx context.Context, id string) (cap model.ProviderCapability) {
	cap = model.ProviderCapability{ProviderID: id}

	// A panicking probe must not abort the run.
	defer func() {
		if rec := recover(); rec != nil {
			cap.State = model.CapabilityUnavailable
			cap.StateText = cap.State.String()
			cap.Reason = fmt.Sprintf("probe panicked: %v", rec)
			r.logger.Warn("capability probe panicked", "provider", id, "panic", rec)
		}
	}()

	probe, ok := r.probes[id]
	if !ok {
		cap.State = model.CapabilityUnavailable
		cap.StateText = cap.State.String()
		cap.Reason = "no credential probe configured"
		return cap
	}

	err := probe(ctx)
	switch {
	case err == nil:
		cap.State = model.CapabilityAvailable
	default:
		var soft *provider.SoftError
		if errors.As(err, &soft) {
			cap.State = model.CapabilityDegraded
			cap.Reason = soft.Warning
		} else {
			cap.State = model.CapabilityUnavailable
			cap.Reason = err.Error()
		}
	}
	cap.StateText = cap.State.String()
	return cap
}

// EnvProbe returns a probe that checks credential presence through an
// environment variable, the way the analysis config declares provider
// credentials. An empty variable resolves to a CapabilityError.
func EnvProbe(providerID, envVar string) ProbeFunc {
	return func(_ context.Context) error {
		if os.Getenv(envVar) == "" {
			return &provider.CapabilityError{
				Provider: providerID,
				Err:      fmt.Errorf("%s is not set", envVar),
			}
		}
		return nil
	}
}

// UsableProviders returns the sorted IDs of providers whose state permits
// serving unit requests (available or degraded).
func UsableProviders(caps map[string]model.ProviderCapability) []string {
	var usable []string
	for id, c := range caps {
		if c.State.Usable() {
			usable = append(usable, id)
		}
	}
	sort.Strings(usable)
	return usable
}
