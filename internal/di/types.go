/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived dependency of the pricer and is
 * passed to the server so handlers share one set of services.
 */
package di

import (
	"errors"

	"github.com/aristath/mcpricer/internal/database"
	"github.com/aristath/mcpricer/internal/modules/marketdata"
	"github.com/aristath/mcpricer/internal/modules/pricing"
	"github.com/aristath/mcpricer/internal/modules/universe"
	"github.com/aristath/mcpricer/internal/reliability"
	"github.com/aristath/mcpricer/internal/scheduler"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases
	UniverseDB *database.DB // underlyings
	HistoryDB  *database.DB // daily closes
	PricingDB  *database.DB // saved products and valuations (ledger profile)

	// Repositories
	UniverseRepo *universe.Repository
	HistoryRepo  *marketdata.HistoryRepository
	ProductRepo  *pricing.ProductRepository

	// Services
	VolatilityEstimator *marketdata.VolatilityEstimator
	PricingService      *pricing.Service
	BackupService       *reliability.BackupService // nil when backups are disabled
}

// JobInstances holds the background jobs built by RegisterJobs
type JobInstances struct {
	Revaluation   scheduler.Job
	WALCheckpoint scheduler.Job
	Backup        scheduler.Job // nil when backups are disabled
}

// Databases returns the open databases keyed by name
func (c *Container) Databases() map[string]*database.DB {
	dbs := make(map[string]*database.DB)
	for _, db := range []*database.DB{c.UniverseDB, c.HistoryDB, c.PricingDB} {
		if db != nil {
			dbs[db.Name()] = db
		}
	}
	return dbs
}

// Close closes every open database
func (c *Container) Close() error {
	var errs []error
	for _, db := range []*database.DB{c.UniverseDB, c.HistoryDB, c.PricingDB} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}
	return errors.Join(errs...)
}
