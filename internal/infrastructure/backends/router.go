// Package backends contains the probes and generation adapters speaking each
// backend flavor's wire format: local GPU workers, the OpenAI image API and
// Replicate predictions. The router dispatches by flavor so the capability
// registry and the chain executor stay wire-agnostic.
package backends

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
)

// Router owns one adapter per backend flavor. It implements catalog.Prober,
// and its Resolve method satisfies chain.AdapterResolver.
type Router struct {
	worker    *WorkerAdapter
	openai    *OpenAIAdapter
	replicate *ReplicateAdapter
	log       zerolog.Logger
}

// NewRouter builds the adapter set shared by the registry and the executor.
func NewRouter(log zerolog.Logger) *Router {
	return &Router{
		worker:    NewWorkerAdapter(log),
		openai:    NewOpenAIAdapter(log),
		replicate: NewReplicateAdapter(log),
		log:       log.With().Str("component", "backend-router").Logger(),
	}
}

// Probe dispatches to the prober for the backend's flavor. A flavor without
// a prober degrades to an unreachable result so the registry keeps working.
func (r *Router) Probe(ctx context.Context, backend config.Backend) catalog.ProbeResult {
	switch backend.Flavor {
	case config.FlavorWorker:
		return r.worker.Probe(ctx, backend)
	case config.FlavorOpenAI:
		return r.openai.Probe(ctx, backend)
	case config.FlavorReplicate:
		return r.replicate.Probe(ctx, backend)
	default:
		r.log.Warn().Str("backend", backend.ID).Str("flavor", backend.Flavor).Msg("no prober for backend flavor")
		return catalog.ProbeResult{}
	}
}

// Resolve returns the adapter for a candidate, keyed on the flavor the
// registry recorded into the model's config at snapshot build time.
func (r *Router) Resolve(model catalog.ModelInfo) (chain.Adapter, error) {
	switch flavor := model.Config[catalog.ConfigKeyFlavor]; flavor {
	case config.FlavorWorker:
		return r.worker, nil
	case config.FlavorOpenAI:
		return r.openai, nil
	case config.FlavorReplicate:
		return r.replicate, nil
	default:
		return nil, fmt.Errorf("model %q has no adapter for backend flavor %q", model.ID, flavor)
	}
}

// joinEndpoint appends a path to a backend base URL.
func joinEndpoint(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + path
}

// modelName returns the provider-facing model identifier, which can differ
// from the catalog id.
func modelName(model catalog.ModelInfo) string {
	if name := model.Config["model"]; name != "" {
		return name
	}
	return model.ID
}
