package barrier

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/calendar"
)

var (
	start = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	mid   = time.Date(2010, 7, 2, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
)

func twoStepCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	c, err := calendar.New(calendar.Spec{Start: start, End: end, Steps: 2})
	require.NoError(t, err)
	return c
}

// paths over the three grid dates (start, mid, end)
func samplePaths() *mat.Dense {
	return mat.NewDense(4, 3, []float64{
		50, 50.0, 70,
		50, 49.5, 40,
		50, 55.0, 45,
		50, 60.0, 65,
	})
}

func TestNew_Validation(t *testing.T) {
	cal := twoStepCalendar(t)
	log := zerolog.Nop()

	tests := []struct {
		name string
		spec Spec
	}{
		{name: "unknown mechanism", spec: Spec{Mechanism: "K&O", Level: 50}},
		{name: "unknown exercise", spec: Spec{Mechanism: DownIn, Exercise: "Asian", Level: 50}},
		{name: "unknown value method", spec: Spec{Mechanism: DownIn, Level: 50, ValueMethod: "pct"}},
		{name: "zero level", spec: Spec{Mechanism: DownIn, Level: 0}},
		{name: "relative without spot", spec: Spec{Mechanism: DownIn, Level: 0.9, ValueMethod: domain.ValueRelative}},
		{name: "inverted dates", spec: Spec{Start: end, End: start, Mechanism: DownIn, Level: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec, cal, log)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}

	t.Run("american without calendar", func(t *testing.T) {
		_, err := New(Spec{Mechanism: UpOut, Exercise: domain.American, Level: 60}, nil, log)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestNew_RelativeLevel(t *testing.T) {
	f, err := New(Spec{Mechanism: DownIn, Level: 0.9, ReferenceSpot: 50, ValueMethod: domain.ValueRelative}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.InDelta(t, 45.0, f.Level(), 1e-12)
}

func TestNew_SnapsObservationDatesWithWarning(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	f, err := New(Spec{
		Mechanism:        DownIn,
		Level:            50,
		ObservationDates: []time.Time{time.Date(2010, 7, 1, 0, 0, 0, 0, time.UTC), end},
	}, twoStepCalendar(t), log)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{mid, end}, f.ObservationDates())
	assert.Contains(t, buf.String(), "nearest calendar date")
	assert.Contains(t, buf.String(), "2010-07-01")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")), "only the moved date is reported")
}

func TestNew_AmericanObservesEveryDate(t *testing.T) {
	cal := twoStepCalendar(t)

	t.Run("supplied list replaced", func(t *testing.T) {
		var buf bytes.Buffer
		f, err := New(Spec{Mechanism: UpOut, Exercise: domain.American, Level: 60, ObservationDates: []time.Time{mid}}, cal, zerolog.New(&buf))
		require.NoError(t, err)
		assert.Equal(t, cal.Dates(), f.ObservationDates())
		assert.Contains(t, buf.String(), "replaced")
	})

	t.Run("empty list is silent", func(t *testing.T) {
		var buf bytes.Buffer
		f, err := New(Spec{Mechanism: UpOut, Exercise: domain.American, Level: 60, ObservationDates: []time.Time{}}, cal, zerolog.New(&buf))
		require.NoError(t, err)
		assert.Equal(t, cal.Dates(), f.ObservationDates())
		assert.Empty(t, buf.String())
	})

	t.Run("no list is silent", func(t *testing.T) {
		var buf bytes.Buffer
		f, err := New(Spec{Mechanism: UpOut, Exercise: domain.American, Level: 60}, cal, zerolog.New(&buf))
		require.NoError(t, err)
		assert.Equal(t, cal.Dates(), f.ObservationDates())
		assert.Empty(t, buf.String())
	})
}

func TestReduceToObservationDates(t *testing.T) {
	cal := twoStepCalendar(t)

	t.Run("terminal column without observation config", func(t *testing.T) {
		f, err := New(Spec{Mechanism: DownIn, Level: 50, ObservationDates: []time.Time{mid}}, nil, zerolog.Nop())
		require.NoError(t, err)
		assert.Nil(t, f.ObservationDates())

		got, err := f.ReduceToObservationDates(samplePaths())
		require.NoError(t, err)
		assert.Equal(t, []float64{70, 40, 45, 65}, got.RawMatrix().Data)
	})

	t.Run("selected columns", func(t *testing.T) {
		f, err := New(Spec{Mechanism: DownIn, Level: 50, ObservationDates: []time.Time{end, mid}}, cal, zerolog.Nop())
		require.NoError(t, err)

		got, err := f.ReduceToObservationDates(samplePaths())
		require.NoError(t, err)
		r, c := got.Dims()
		assert.Equal(t, 4, r)
		assert.Equal(t, 2, c)
		assert.Equal(t, []float64{70, 50, 40, 49.5, 45, 55, 65, 60}, got.RawMatrix().Data)
	})

	t.Run("paths narrower than the calendar", func(t *testing.T) {
		f, err := New(Spec{Mechanism: DownIn, Level: 50, ObservationDates: []time.Time{end}}, cal, zerolog.Nop())
		require.NoError(t, err)

		_, err = f.ReduceToObservationDates(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestObserve_Mechanisms(t *testing.T) {
	cal := twoStepCalendar(t)
	paths := samplePaths() // mid column: 50, 49.5, 55, 60

	tests := []struct {
		mechanism Mechanism
		level     float64
		want      []float64
	}{
		// touching the level exactly counts as a touch
		{mechanism: DownIn, level: 50, want: []float64{1, 1, 0, 0}},
		{mechanism: DownOut, level: 50, want: []float64{0, 0, 1, 1}},
		{mechanism: UpIn, level: 55, want: []float64{0, 0, 1, 1}},
		{mechanism: UpOut, level: 55, want: []float64{1, 1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mechanism), func(t *testing.T) {
			f, err := New(Spec{Mechanism: tt.mechanism, Level: tt.level, ObservationDates: []time.Time{mid}}, cal, zerolog.Nop())
			require.NoError(t, err)

			got, err := f.Observe(paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.RawMatrix().Data)
		})
	}
}

func TestObserve_DoesNotMutateInput(t *testing.T) {
	paths := samplePaths()
	before := mat.DenseCopyOf(paths)

	f, err := New(Spec{Mechanism: DownIn, Level: 50, ObservationDates: []time.Time{mid, end}}, twoStepCalendar(t), zerolog.Nop())
	require.NoError(t, err)
	_, err = f.Observe(paths)
	require.NoError(t, err)

	assert.True(t, mat.Equal(before, paths))
}

func TestReduce(t *testing.T) {
	act := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		0, 0, 1,
		1, 1, 0,
		1, 1, 1,
	})

	tests := []struct {
		rule Rule
		want []float64
	}{
		{rule: Best, want: []float64{1, 1, 1, 1}},
		{rule: Worst, want: []float64{0, 0, 0, 1}},
		{rule: First, want: []float64{1, 0, 1, 1}},
		{rule: Last, want: []float64{0, 1, 0, 1}},
		{rule: AboveMean, want: []float64{0, 0, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			got, err := Reduce(act, tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("above mean boundary", func(t *testing.T) {
		got, err := Reduce(mat.NewDense(1, 2, []float64{1, 0}), AboveMean)
		require.NoError(t, err)
		assert.Equal(t, []float64{1}, got)
	})

	t.Run("unknown rule", func(t *testing.T) {
		_, err := Reduce(act, Rule("Median"))
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		_, err = ParseRule("Median")
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestActivation(t *testing.T) {
	f, err := New(Spec{Mechanism: DownIn, Level: 50, ObservationDates: []time.Time{mid, end}}, twoStepCalendar(t), zerolog.Nop())
	require.NoError(t, err)

	got, err := f.Activation(samplePaths(), Best)
	require.NoError(t, err)
	// row 2 touches at maturity (45), row 3 never touches
	assert.Equal(t, []float64{1, 1, 1, 0}, got)
}
