// Package formulas holds the statistics used to calibrate model inputs from price history.
package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev calculates the sample standard deviation
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// LogReturns converts prices to log returns: r[i] = ln(p[i+1]/p[i]).
// Pairs with a non-positive price are skipped.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// RollingVolatility returns the annualized volatility over the last window returns,
// using the population standard deviation. Returns nil if there is not enough data.
func RollingVolatility(dailyReturns []float64, window int) *float64 {
	if window < 2 || len(dailyReturns) < window {
		return nil
	}

	std := talib.StdDev(dailyReturns, window, 1.0)
	last := std[len(std)-1]
	if math.IsNaN(last) {
		return nil
	}

	vol := last * math.Sqrt(TradingDaysPerYear)
	return &vol
}
