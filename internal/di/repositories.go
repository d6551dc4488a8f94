package di

import (
	"fmt"

	"github.com/aristath/mcpricer/internal/modules/marketdata"
	"github.com/aristath/mcpricer/internal/modules/pricing"
	"github.com/aristath/mcpricer/internal/modules/universe"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories on top of the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.UniverseRepo = universe.NewRepository(container.UniverseDB.Conn(), log)
	container.HistoryRepo = marketdata.NewHistoryRepository(container.HistoryDB.Conn(), log)
	container.ProductRepo = pricing.NewProductRepository(container.PricingDB.Conn(), log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
