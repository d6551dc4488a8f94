package simulation

import (
	"fmt"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/calendar"
)

// Config is everything the diffusion engine needs for one run.
// The calendar is shared by reference and must outlive the run.
type Config struct {
	Calendar   *calendar.Calendar
	Paths      int
	Seed       *int64
	Antithetic bool
	Portfolio  *Portfolio
}

// Validate runs the simulation checks, then the portfolio checks.
func (c Config) Validate() error {
	if c.Calendar == nil {
		return fmt.Errorf("%w: calendar is required", domain.ErrInvalidConfig)
	}
	if c.Paths <= 0 {
		return fmt.Errorf("%w: number of paths must be a positive integer, got %d", domain.ErrInvalidConfig, c.Paths)
	}
	if c.Portfolio == nil || c.Portfolio.Len() == 0 {
		return fmt.Errorf("%w: portfolio must contain at least one underlying", domain.ErrInvalidConfig)
	}
	for _, u := range c.Portfolio.Underlyings() {
		if err := u.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SeedPtr is a helper for optional seeds in literals
func SeedPtr(seed int64) *int64 { return &seed }
