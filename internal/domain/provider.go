package domain

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
)

// ProvideRegistry provides the capability registry over the configured
// backends.
func ProvideRegistry(cfg *config.Config, prober catalog.Prober, log zerolog.Logger) (*catalog.Registry, error) {
	return catalog.NewRegistry(cfg, prober, log)
}

// ProvideExecutor provides the chain executor with the configured retry
// policy.
func ProvideExecutor(cfg *config.Config, log zerolog.Logger) *chain.Executor {
	return chain.NewExecutor(chain.Policy{
		MaxRetriesPerProvider: cfg.MaxRetriesPerProvider,
		BaseDelay:             cfg.RetryBaseDelay,
		MaxDelay:              cfg.RetryMaxDelay,
		JitterFactor:          cfg.RetryJitter,
	}, log)
}

// ProvideGenerationService provides the generation orchestration service.
func ProvideGenerationService(
	cfg *config.Config,
	registry *catalog.Registry,
	executor *chain.Executor,
	resolver chain.AdapterResolver,
	history generation.History,
	log zerolog.Logger,
) *generation.Service {
	return generation.NewService(cfg, registry, executor, resolver, history, log)
}

// ServiceProvider provides all domain services.
var ServiceProvider = wire.NewSet(
	ProvideRegistry,
	ProvideExecutor,
	ProvideGenerationService,
)
