// Package di provides dependency injection for database connections.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/mcpricer/internal/config"
	"github.com/aristath/mcpricer/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the three databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	specs := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// universe.db - tradable underlyings
		{"universe", database.ProfileStandard, &container.UniverseDB},
		// history.db - daily closes, re-importable
		{"history", database.ProfileStandard, &container.HistoryDB},
		// pricing.db - product book and valuation history
		{"pricing", database.ProfileLedger, &container.PricingDB},
	}

	for _, spec := range specs {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, spec.name+".db"),
			Profile: spec.profile,
			Name:    spec.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", spec.name, err)
		}
		*spec.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", spec.name, err)
		}
	}

	log.Info().Int("databases", len(specs)).Msg("Databases initialized")
	return container, nil
}
