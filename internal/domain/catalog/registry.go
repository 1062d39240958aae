package catalog

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/metrics"
)

// DefaultMaxAge is how old a snapshot may get before EnsureFresh re-probes.
const DefaultMaxAge = 5 * time.Minute

// Trigger labels why a refresh ran. Used for logging and metrics only.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerStale     Trigger = "stale"
)

// ProbeResult is what a capability probe learned about one backend.
// An unreachable backend is a result, not an error.
type ProbeResult struct {
	Reachable bool
	Models    []string
	Features  []string
}

// Prober checks a backend for liveness and exposed capabilities.
//
// Implementations must never return a Go error or panic: unreachable
// backends and malformed discovery responses both degrade to a zero-valued
// ProbeResult. The context carries the per-probe timeout.
type Prober interface {
	Probe(ctx context.Context, backend config.Backend) ProbeResult
}

// Registry tracks which generation models are currently usable across all
// configured backends. It publishes immutable snapshots and coalesces
// concurrent refreshes into a single probe round.
type Registry struct {
	backends         []config.Backend
	prober           Prober
	policy           RankingPolicy
	probeTimeout     time.Duration
	probeConcurrency int
	maxAge           time.Duration
	log              zerolog.Logger

	snapshot atomic.Pointer[Snapshot]
	stale    atomic.Bool
	group    singleflight.Group
}

// NewRegistry creates a registry for the configured backends. No probes run
// until the first Refresh or EnsureFresh call; until then Snapshot returns
// an empty snapshot with a zero LastRefresh.
func NewRegistry(cfg *config.Config, prober Prober, log zerolog.Logger) (*Registry, error) {
	policy, err := ParseRankingPolicy(cfg.RankingPolicy)
	if err != nil {
		return nil, err
	}

	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	probeConcurrency := cfg.ProbeConcurrency
	if probeConcurrency < 1 {
		probeConcurrency = 1
	}
	maxAge := cfg.SnapshotMaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	r := &Registry{
		backends:         cfg.Backends,
		prober:           prober,
		policy:           policy,
		probeTimeout:     probeTimeout,
		probeConcurrency: probeConcurrency,
		maxAge:           maxAge,
		log:              log.With().Str("component", "capability-registry").Logger(),
	}
	r.snapshot.Store(emptySnapshot())
	return r, nil
}

// Snapshot returns the current capability snapshot. It never blocks and
// never triggers a refresh.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// ModelsForTask returns the available models for a task kind from the
// current snapshot, ranked by priority with stable ties.
func (r *Registry) ModelsForTask(kind task.Kind) []ModelInfo {
	return r.Snapshot().ModelsForTask(kind)
}

// Invalidate marks the snapshot stale so the next EnsureFresh refreshes
// unconditionally. It does not probe by itself.
func (r *Registry) Invalidate() {
	r.stale.Store(true)
	r.log.Debug().Msg("snapshot invalidated")
}

// Refresh probes every backend concurrently and publishes a new snapshot.
// Concurrent callers coalesce into one probe round and all receive its
// result. Probe failures degrade the affected backend to offline; Refresh
// only errors when the context is cancelled before publication.
func (r *Registry) Refresh(ctx context.Context, trigger Trigger) (*Snapshot, error) {
	result, err, _ := r.group.Do("refresh", func() (any, error) {
		return r.probeAndPublish(ctx, trigger)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

// EnsureFresh returns the current snapshot if it is younger than maxAge and
// not invalidated, refreshing otherwise. maxAge <= 0 falls back to the
// configured default. Callers joining an in-flight refresh block until it
// completes.
func (r *Registry) EnsureFresh(ctx context.Context, maxAge time.Duration) (*Snapshot, error) {
	if maxAge <= 0 {
		maxAge = r.maxAge
	}

	snap := r.snapshot.Load()
	if !r.stale.Load() && !snap.lastRefresh.IsZero() && time.Since(snap.lastRefresh) <= maxAge {
		return snap, nil
	}
	return r.Refresh(ctx, TriggerStale)
}

func (r *Registry) probeAndPublish(ctx context.Context, trigger Trigger) (*Snapshot, error) {
	start := time.Now()

	results := make([]ProbeResult, len(r.backends))
	g, probeCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.probeConcurrency)
	for i, backend := range r.backends {
		g.Go(func() error {
			probeStart := time.Now()
			pctx, cancel := context.WithTimeout(probeCtx, r.probeTimeout)
			defer cancel()

			results[i] = r.prober.Probe(pctx, backend)

			r.log.Debug().
				Str("backend", backend.ID).
				Bool("reachable", results[i].Reachable).
				Int("models", len(results[i].Models)).
				Dur("took", time.Since(probeStart)).
				Msg("backend probed")
			return nil
		})
	}
	// Probers never return errors; Wait only joins the round.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.RecordRefresh(string(trigger), "cancelled", time.Since(start))
		r.log.Warn().Err(err).Str("trigger", string(trigger)).Msg("refresh cancelled before publication")
		return nil, err
	}

	snap := r.buildSnapshot(results, time.Now())
	r.snapshot.Store(snap)
	r.stale.Store(false)

	r.recordSnapshotMetrics(snap)
	metrics.RecordRefresh(string(trigger), "ok", time.Since(start))

	online := 0
	for _, up := range snap.backendsOnline {
		if up {
			online++
		}
	}
	available := 0
	for _, m := range snap.models {
		if m.Available {
			available++
		}
	}
	r.log.Info().
		Str("trigger", string(trigger)).
		Int("backends_online", online).
		Int("backends_total", len(r.backends)).
		Int("models_available", available).
		Int("models_total", len(snap.models)).
		Dur("took", time.Since(start)).
		Msg("capability snapshot published")

	return snap, nil
}

func (r *Registry) buildSnapshot(results []ProbeResult, now time.Time) *Snapshot {
	models := make([]ModelInfo, 0)
	online := make(map[string]bool, len(r.backends))

	for i, backend := range r.backends {
		res := results[i]
		online[backend.ID] = res.Reachable

		exposed := make(map[string]bool, len(res.Models))
		for _, id := range res.Models {
			exposed[strings.TrimSpace(id)] = true
		}
		features := make(map[string]bool, len(res.Features))
		for _, f := range res.Features {
			features[strings.ToLower(strings.TrimSpace(f))] = true
		}

		for _, mc := range backend.Models {
			probeID := mc.ProbeID
			if probeID == "" {
				probeID = mc.ID
			}
			available := res.Reachable && exposed[probeID]
			for _, f := range mc.Features {
				if !features[strings.ToLower(f)] {
					available = false
					break
				}
			}

			tasks := make([]task.Kind, 0, len(mc.Tasks))
			for _, t := range mc.Tasks {
				kind, err := task.Parse(t)
				if err != nil {
					r.log.Warn().
						Str("backend", backend.ID).
						Str("model", mc.ID).
						Str("task", t).
						Msg("skipping unknown task kind in backend config")
					continue
				}
				tasks = append(tasks, kind)
			}

			models = append(models, ModelInfo{
				ID:          mc.ID,
				DisplayName: mc.DisplayName,
				BackendID:   backend.ID,
				Backend:     BackendKind(backend.Kind),
				Tasks:       tasks,
				Available:   available,
				Priority:    mc.Priority,
				CreditCost:  mc.CreditCost,
				Config:      mergeConfig(backend, mc),
			})
		}
	}

	return NewSnapshot(models, online, now, r.policy)
}

// recordSnapshotMetrics publishes per-backend and per-task gauges.
func (r *Registry) recordSnapshotMetrics(snap *Snapshot) {
	for id, up := range snap.backendsOnline {
		metrics.RecordBackendOnline(id, up)
	}
	for _, kind := range task.Kinds() {
		count := 0
		for _, m := range snap.models {
			if m.Available && m.SupportsTask(kind) {
				count++
			}
		}
		metrics.RecordModelsAvailable(kind.String(), count)
	}
}

// mergeConfig flattens backend-level settings under the model's own config.
// Model keys win; the backend's base URL and API key travel under reserved
// keys so adapters need nothing but the ModelInfo.
func mergeConfig(backend config.Backend, mc config.BackendModel) map[string]string {
	out := make(map[string]string, len(backend.Config)+len(mc.Config)+3)
	for k, v := range backend.Config {
		out[k] = v
	}
	for k, v := range mc.Config {
		out[k] = v
	}
	out[ConfigKeyBaseURL] = backend.BaseURL
	out[ConfigKeyFlavor] = backend.Flavor
	if backend.APIKey != "" {
		out[ConfigKeyAPIKey] = backend.APIKey
	}
	return out
}

// Reserved keys the registry writes into ModelInfo.Config for adapters.
const (
	ConfigKeyBaseURL = "_base_url"
	ConfigKeyFlavor  = "_flavor"
	ConfigKeyAPIKey  = "_api_key"
)
