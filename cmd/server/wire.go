//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/auth"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/backends"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/crontab"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/history"
	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideRouter,
	ProvideProber,
	ProvideAdapterResolver,
	ProvideHistory,
	ProvideAuthValidator,
	crontab.NewCrontab,

	// Domain providers
	domain.ServiceProvider,

	// Interface providers
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideRouter provides the backend adapter router.
func ProvideRouter(log zerolog.Logger) *backends.Router {
	return backends.NewRouter(log)
}

// ProvideProber exposes the router as the registry's capability prober.
func ProvideProber(router *backends.Router) catalog.Prober {
	return router
}

// ProvideAdapterResolver exposes the router's adapter lookup to the
// chain executor.
func ProvideAdapterResolver(router *backends.Router) chain.AdapterResolver {
	return router.Resolve
}

// ProvideHistory provides the bounded generation history buffer.
func ProvideHistory(cfg *config.Config, log zerolog.Logger) (generation.History, error) {
	return history.NewStore(cfg.HistorySize, log)
}

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
