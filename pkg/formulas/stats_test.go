package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReturns(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected []float64
	}{
		{name: "empty", prices: nil, expected: []float64{}},
		{name: "single price", prices: []float64{100}, expected: []float64{}},
		{name: "doubling", prices: []float64{50, 100, 50}, expected: []float64{math.Ln2, -math.Ln2}},
		{name: "skips zero price", prices: []float64{50, 0, 50, 100}, expected: []float64{math.Ln2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.expected, LogReturns(tt.prices), 1e-12)
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
	assert.InDelta(t, 0.0, AnnualizedVolatility([]float64{0.001, 0.001, 0.001}), 1e-12)

	// sample std of {0.01, -0.01} is sqrt(2)·0.01
	assert.InDelta(t, math.Sqrt2*0.01*math.Sqrt(252), AnnualizedVolatility([]float64{0.01, -0.01}), 1e-12)
}

func TestRollingVolatility(t *testing.T) {
	assert.Nil(t, RollingVolatility([]float64{0.01, -0.01}, 3))
	assert.Nil(t, RollingVolatility([]float64{0.01, -0.01}, 1))

	// only the last two returns are in the window; population std is 0.01
	vol := RollingVolatility([]float64{0.5, 0.01, -0.01}, 2)
	require.NotNil(t, vol)
	assert.InDelta(t, 0.01*math.Sqrt(252), *vol, 1e-9)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}
