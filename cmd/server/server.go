package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/joho/godotenv"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/auth"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/backends"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/crontab"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/history"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/logger"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/observability"
	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	scheduler  *crontab.Crontab
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, scheduler *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		scheduler:  scheduler,
		log:        log,
	}
}

// Start runs the HTTP server and the refresh scheduler until the context
// is cancelled or either of them fails.
func (a *Application) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return a.httpServer.Run(gctx)
	})

	return g.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize auth validator
	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth validator")
	}

	// One router speaks every backend flavor: it probes for the registry
	// and resolves adapters for the executor.
	router := backends.NewRouter(log)

	registry, err := domain.ProvideRegistry(cfg, router, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize capability registry")
	}

	executor := domain.ProvideExecutor(cfg, log)

	historyStore, err := history.NewStore(cfg.HistorySize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize generation history")
	}

	service := domain.ProvideGenerationService(cfg, registry, executor, router.Resolve, historyStore, log)

	scheduler := crontab.NewCrontab(cfg, registry)

	httpServer := httpserver.New(cfg, log, service, registry, authValidator)

	app := NewApplication(httpServer, scheduler, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Int("backends", len(cfg.Backends)).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
