package generation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/utils/genid"
	"github.com/pixelforge-ai/generation-api/internal/utils/platformerrors"
)

// Service glues the capability registry and the chain executor into the
// surface request handlers call.
type Service struct {
	registry   Catalog
	executor   *chain.Executor
	resolver   chain.AdapterResolver
	history    History
	timeout    time.Duration
	timeoutCap time.Duration
	log        zerolog.Logger
}

// NewService creates a generation service.
func NewService(cfg *config.Config, registry Catalog, executor *chain.Executor, resolver chain.AdapterResolver, history History, log zerolog.Logger) *Service {
	timeout := cfg.ExecuteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	timeoutCap := cfg.ExecuteTimeoutCap
	if timeoutCap < timeout {
		timeoutCap = timeout
	}

	return &Service{
		registry:   registry,
		executor:   executor,
		resolver:   resolver,
		history:    history,
		timeout:    timeout,
		timeoutCap: timeoutCap,
		log:        log.With().Str("component", "generation-service").Logger(),
	}
}

// Generate resolves candidates for the requested task and runs the fallback
// chain. Unknown task kinds and invalid payloads fail before any network
// attempt; chain failures are data in the returned record, not errors.
func (s *Service) Generate(ctx context.Context, req Request) (*Record, error) {
	kind, err := task.Parse(req.Kind)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, err.Error(), err, "")
	}
	if err := req.Payload.Validate(kind); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, err.Error(), err, "")
	}

	snap, err := s.registry.EnsureFresh(ctx, 0)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeProbe, "capability refresh failed", err, "")
	}

	candidates := snap.ModelsForTask(kind)
	if len(req.Models) > 0 {
		candidates = filterCandidates(candidates, req.Models)
	}

	timeout := s.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
		if timeout > s.timeoutCap {
			timeout = s.timeoutCap
		}
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := s.executor.Execute(execCtx, kind, req.Payload, candidates, s.resolver)

	rec := &Record{
		ID:        genid.New(),
		Kind:      kind,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	if s.history != nil {
		s.history.Put(rec)
	}

	s.log.Info().
		Str("generation_id", rec.ID).
		Str("task", kind.String()).
		Bool("success", result.Success).
		Int("attempts", len(result.Attempts)).
		Str("provider", result.ProviderID).
		Msg("generation finished")
	return rec, nil
}

// Recent looks up a finished generation by id from the history buffer.
func (s *Service) Recent(id string) (*Record, bool) {
	if s.history == nil || !genid.IsValid(id) {
		return nil, false
	}
	return s.history.Get(id)
}

// filterCandidates keeps only the requested ids, in request order.
func filterCandidates(candidates []catalog.ModelInfo, requested []string) []catalog.ModelInfo {
	byID := make(map[string]catalog.ModelInfo, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	out := make([]catalog.ModelInfo, 0, len(requested))
	for _, id := range requested {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
