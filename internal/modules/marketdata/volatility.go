package marketdata

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/mcpricer/pkg/formulas"
)

// ErrInsufficientHistory is returned when there are not enough closes for the window
var ErrInsufficientHistory = errors.New("insufficient price history")

// DefaultVolatilityWindow is the number of daily returns used when none is given
const DefaultVolatilityWindow = 252

// CloseSource supplies chronological closes
type CloseSource interface {
	GetCloses(isin string, limit int) ([]DailyClose, error)
}

// VolatilityEstimator computes annualized realized volatility from daily closes
type VolatilityEstimator struct {
	history CloseSource
	log     zerolog.Logger
}

// NewVolatilityEstimator creates a new estimator
func NewVolatilityEstimator(history CloseSource, log zerolog.Logger) *VolatilityEstimator {
	return &VolatilityEstimator{
		history: history,
		log:     log.With().Str("component", "volatility_estimator").Logger(),
	}
}

// Estimate returns the annualized standard deviation of the last window daily
// log returns. It needs window+1 closes.
func (e *VolatilityEstimator) Estimate(isin string, window int) (float64, error) {
	if window <= 0 {
		window = DefaultVolatilityWindow
	}

	closes, err := e.history.GetCloses(isin, window+1)
	if err != nil {
		return 0, err
	}

	prices := make([]float64, len(closes))
	for i, c := range closes {
		prices[i] = c.Close
	}

	vol := formulas.RollingVolatility(formulas.LogReturns(prices), window)
	if vol == nil {
		return 0, fmt.Errorf("%w: %s has %d closes, need %d", ErrInsufficientHistory, isin, len(closes), window+1)
	}

	e.log.Debug().Str("isin", isin).Int("window", window).Float64("vol", *vol).Msg("Estimated realized volatility")
	return *vol, nil
}
