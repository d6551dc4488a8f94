package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalendar(t *testing.T, start, end time.Time, steps int) *calendar.Calendar {
	t.Helper()
	c, err := calendar.New(calendar.Spec{Start: start, End: end, Steps: steps})
	require.NoError(t, err)
	return c
}

func yearCalendar(t *testing.T, steps int) *calendar.Calendar {
	return newCalendar(t,
		time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		steps)
}

func equities(t *testing.T) *Portfolio {
	t.Helper()
	p, err := NewPortfolio(
		UnderlyingParams{ID: "FR0000131104", Spot: 50, Vol: 0.2, Rate: 0.01, Div: 0.03},
		UnderlyingParams{ID: "FR0000130809", Spot: 100, Vol: 0.3, Rate: 0.01, Div: 0.0},
	)
	require.NoError(t, err)
	return p
}

func TestNewBSModel_Validation(t *testing.T) {
	cal := yearCalendar(t, 4)
	p := equities(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no calendar", cfg: Config{Paths: 10, Portfolio: p}},
		{name: "zero paths", cfg: Config{Calendar: cal, Paths: 0, Portfolio: p}},
		{name: "negative paths", cfg: Config{Calendar: cal, Paths: -3, Portfolio: p}},
		{name: "no portfolio", cfg: Config{Calendar: cal, Paths: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewBSModel(tt.cfg)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.Nil(t, m)
		})
	}
}

func TestBSModel_ShapeAndStartAtSpot(t *testing.T) {
	cal := yearCalendar(t, 12)
	m, err := NewBSModel(Config{Calendar: cal, Paths: 64, Seed: SeedPtr(42), Antithetic: true, Portfolio: equities(t)})
	require.NoError(t, err)

	assert.Equal(t, cal.NSteps(), m.Block().Steps())

	paths := m.Values()
	assert.Equal(t, 64, paths.Sims)
	assert.Equal(t, cal.Len(), paths.Steps)
	assert.Equal(t, 2, paths.Dim)

	for i := 0; i < paths.Sims; i++ {
		assert.Equal(t, 50.0, paths.At(i, 0, 0))
		assert.Equal(t, 100.0, paths.At(i, 0, 1))
	}

	pct := m.Percentages()
	for i := 0; i < pct.Sims; i++ {
		assert.Equal(t, 1.0, pct.At(i, 0, 0))
	}
}

func TestBSModel_Deterministic(t *testing.T) {
	cfg := Config{Calendar: yearCalendar(t, 5), Paths: 200, Seed: SeedPtr(42), Antithetic: true, Portfolio: equities(t)}

	a, err := NewBSModel(cfg)
	require.NoError(t, err)
	b, err := NewBSModel(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Values().Data, b.Values().Data)
	assert.Equal(t, a.Percentages().Data, b.Percentages().Data)
}

func TestBSModel_ParallelMatchesSerial(t *testing.T) {
	cfg := Config{Calendar: yearCalendar(t, 3), Paths: 3 * minParallelSims, Seed: SeedPtr(9), Portfolio: equities(t)}
	m, err := NewBSModel(cfg)
	require.NoError(t, err)

	parallel := m.Values()

	serial := NewTensor(parallel.Sims, parallel.Steps, parallel.Dim)
	dt := cfg.Calendar.TimeIncrements()
	for i := 0; i < serial.Sims; i++ {
		for k, u := range cfg.Portfolio.Underlyings() {
			acc := 0.0
			for s := range dt {
				acc += dt[s]*u.Drift() + math.Sqrt(dt[s])*u.Vol*m.Block().At(i, s, k)
				serial.Set(i, s, k, domain.Round(math.Exp(math.Log(u.Spot)+acc), domain.PathPrecision))
			}
		}
	}

	assert.Equal(t, serial.Data, parallel.Data)
}

func TestBSModel_ZeroVolIsDeterministicForward(t *testing.T) {
	p, err := NewPortfolio(UnderlyingParams{ID: "X", Spot: 100, Vol: 0, Rate: 0.05, Div: 0.01})
	require.NoError(t, err)

	m, err := NewBSModel(Config{Calendar: yearCalendar(t, 2), Paths: 3, Seed: SeedPtr(1), Portfolio: p})
	require.NoError(t, err)

	paths := m.Values()
	want := domain.Round(100*math.Exp(0.04), domain.PathPrecision)
	for i := 0; i < paths.Sims; i++ {
		assert.InDelta(t, want, paths.At(i, 2, 0), 1e-6)
	}
}

func TestBSModel_PercentageReconcilesWithAbsolute(t *testing.T) {
	p := equities(t)
	m, err := NewBSModel(Config{Calendar: yearCalendar(t, 6), Paths: 100, Seed: SeedPtr(3), Portfolio: p})
	require.NoError(t, err)

	values := m.Values()
	pct := m.Percentages()
	spots := []float64{50, 100}

	for i := 0; i < values.Sims; i++ {
		for s := 0; s < values.Steps; s++ {
			for k := 0; k < values.Dim; k++ {
				// percentage rounding error is scaled by spot
				assert.InDelta(t, values.At(i, s, k), pct.At(i, s, k)*spots[k], spots[k]*1e-6+1e-6)
			}
		}
	}
	assert.Equal(t, values.Data, m.Simulate(ModeAbsolute).Data)
	assert.Equal(t, pct.Data, m.Simulate(ModePercentage).Data)
}

func TestBSModel_ValuesAreRounded(t *testing.T) {
	m, err := NewBSModel(Config{Calendar: yearCalendar(t, 4), Paths: 20, Seed: SeedPtr(5), Portfolio: equities(t)})
	require.NoError(t, err)

	for _, v := range m.Values().Data {
		assert.Equal(t, domain.Round(v, domain.PathPrecision), v)
	}
}

func TestBSModel_DeduplicatedCalendar(t *testing.T) {
	cal := newCalendar(t,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		5)
	require.Equal(t, 6, cal.NSteps())
	require.Equal(t, 3, cal.Len())

	m, err := NewBSModel(Config{Calendar: cal, Paths: 8, Seed: SeedPtr(42), Portfolio: equities(t)})
	require.NoError(t, err)

	assert.Equal(t, 6, m.Block().Steps())
	paths := m.Values()
	assert.Equal(t, 3, paths.Steps, "one column per calendar date")
}

func TestBSModel_TerminalMeanMatchesForward(t *testing.T) {
	p, err := NewPortfolio(UnderlyingParams{ID: "X", Spot: 50, Vol: 0.2, Rate: 0.01, Div: 0.03})
	require.NoError(t, err)

	m, err := NewBSModel(Config{Calendar: yearCalendar(t, 2), Paths: 100000, Seed: SeedPtr(42), Antithetic: true, Portfolio: p})
	require.NoError(t, err)

	paths := m.Values()
	sum := 0.0
	for i := 0; i < paths.Sims; i++ {
		sum += paths.At(i, 2, 0)
	}
	forward := 50 * math.Exp(0.01-0.03)
	assert.InDelta(t, forward, sum/float64(paths.Sims), 0.1)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAbsolute, m)

	m, err = ParseMode("relative")
	require.NoError(t, err)
	assert.Equal(t, ModePercentage, m)

	_, err = ParseMode("log")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
