package di

import (
	"context"
	"fmt"

	"github.com/aristath/mcpricer/internal/config"
	"github.com/aristath/mcpricer/internal/modules/marketdata"
	"github.com/aristath/mcpricer/internal/modules/pricing"
	"github.com/aristath/mcpricer/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services. The backup service is only built
// when a backup schedule is configured.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.VolatilityEstimator = marketdata.NewVolatilityEstimator(container.HistoryRepo, log)

	container.PricingService = pricing.NewService(
		container.UniverseRepo,
		container.VolatilityEstimator,
		container.ProductRepo,
		pricing.ServiceConfig{
			MaxPaths:           cfg.MaxPaths,
			DefaultTradingDays: cfg.DefaultTradingDays,
			VolatilityWindow:   marketdata.DefaultVolatilityWindow,
		},
		log,
	)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Client(ctx, cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(store, container.Databases(), cfg.DataDir, log)
	}

	log.Debug().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}
