package payoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/basket"
)

var (
	start = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	mid   = time.Date(2010, 7, 2, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
)

func terms(t *testing.T, strike float64, method domain.ValueMethod) Terms {
	t.Helper()
	tm, err := NewTerms(start, end, domain.European, strike, method, basket.Uniform, []string{"FR0000131104"})
	require.NoError(t, err)
	return tm
}

func TestNewTerms(t *testing.T) {
	t.Run("strike rounded to five decimals", func(t *testing.T) {
		tm := terms(t, 50.1234567, domain.ValueAbsolute)
		assert.Equal(t, 50.12346, tm.Strike)
		assert.Equal(t, 365, tm.MaturityDays())
	})

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		exercise domain.ExerciseStyle
		strike   float64
		method   domain.ValueMethod
		basket   basket.Method
	}{
		{name: "same day", start: start, end: start, strike: 50, basket: basket.Uniform},
		{name: "zero strike", start: start, end: end, strike: 0, basket: basket.Uniform},
		{name: "strike rounds to zero", start: start, end: end, strike: 1e-6, basket: basket.Uniform},
		{name: "negative strike", start: start, end: end, strike: -1, basket: basket.Uniform},
		{name: "NaN strike", start: start, end: end, strike: math.NaN(), basket: basket.Uniform},
		{name: "unknown exercise", start: start, end: end, strike: 50, exercise: "Bermudan", basket: basket.Uniform},
		{name: "unknown method", start: start, end: end, strike: 50, method: "pct", basket: basket.Uniform},
		{name: "unknown basket", start: start, end: end, strike: 50, basket: "rainbow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTerms(tt.start, tt.end, tt.exercise, tt.strike, tt.method, tt.basket, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestOptionConstructors(t *testing.T) {
	tm := terms(t, 50, domain.ValueAbsolute)

	call, err := NewCall(tm, 1.234567, 2)
	require.NoError(t, err)
	assert.Equal(t, KindCall, call.Kind())
	assert.Equal(t, 1.23457, call.RebateAmount())

	put, err := NewPut(tm, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, KindPut, put.Kind())

	dc, err := NewDigitalCall(tm, 10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, KindDigitalCall, dc.Kind())
	assert.Equal(t, tm, dc.OptionTerms())

	dp, err := NewDigitalPut(tm, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, KindDigitalPut, dp.Kind())

	_, err = NewCall(tm, math.Inf(1), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, err = NewDigitalPut(tm, math.NaN(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
