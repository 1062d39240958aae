// Package crontab keeps the capability snapshot warm with scheduled
// probe rounds. Lazy EnsureFresh on the request path stays the
// correctness mechanism; the cron only hides probe latency from the
// dashboard.
package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"

	"github.com/pixelforge-ai/generation-api/internal/config"
	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/logger"
	"github.com/pixelforge-ai/generation-api/internal/utils/platformerrors"
)

const (
	DefaultRefreshIntervalMinutes = 5
	CronJobTimeout                = time.Minute
)

// Crontab schedules registry refreshes.
type Crontab struct {
	ctab     *crontab.Crontab
	cfg      *config.Config
	registry *catalog.Registry
}

// NewCrontab creates the scheduler. Jobs start on Run.
func NewCrontab(cfg *config.Config, registry *catalog.Registry) *Crontab {
	return &Crontab{
		ctab:     crontab.New(),
		cfg:      cfg,
		registry: registry,
	}
}

// Run probes once immediately, then refreshes on the configured interval
// until the context is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()

	// First round on start so the dashboard has capabilities before the
	// first request arrives.
	c.refresh(ctx)

	if c.cfg.RefreshEnabled {
		minutes := int(c.cfg.RefreshInterval.Minutes())
		if minutes < 1 {
			minutes = DefaultRefreshIntervalMinutes
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", minutes)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.refresh(jobCtx)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add capability refresh job")
		}
		log.Info().Msgf("capability refresh scheduled: every %d minute(s)", minutes)
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) refresh(ctx context.Context) {
	if _, err := c.registry.Refresh(ctx, catalog.TriggerScheduled); err != nil {
		logger.GetLogger().Error().Err(err).Msg("scheduled capability refresh failed")
	}
}
