// Package barrier evaluates knock-in / knock-out conditions on basket paths.
package barrier

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/calendar"
)

// Mechanism is the barrier direction and effect
type Mechanism string

const (
	UpIn    Mechanism = "U&I"
	UpOut   Mechanism = "U&O"
	DownIn  Mechanism = "D&I"
	DownOut Mechanism = "D&O"
)

// ParseMechanism validates a mechanism string
func ParseMechanism(s string) (Mechanism, error) {
	switch m := Mechanism(s); m {
	case UpIn, UpOut, DownIn, DownOut:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown barrier mechanism %q", domain.ErrInvalidConfig, s)
}

func (m Mechanism) up() bool  { return m == UpIn || m == UpOut }
func (m Mechanism) out() bool { return m == UpOut || m == DownOut }

// touched applies the inclusive comparison: a path exactly at the level touches it.
func (m Mechanism) touched(value, level float64) bool {
	if m.up() {
		return value >= level
	}
	return value <= level
}

// Spec configures a barrier feature
type Spec struct {
	Start            time.Time
	End              time.Time
	Mechanism        Mechanism
	Exercise         domain.ExerciseStyle
	Level            float64
	ReferenceSpot    float64
	ValueMethod      domain.ValueMethod
	ObservationDates []time.Time
}

// Feature is a configured barrier condition. Immutable after construction.
type Feature struct {
	mechanism Mechanism
	exercise  domain.ExerciseStyle
	level     float64
	calendar  *calendar.Calendar
	// observation dates resolved onto the calendar grid; nil means terminal check only
	observations []time.Time
}

// New validates the spec and resolves observation dates onto the calendar.
//
// American features observe every calendar date; a differing supplied list is
// replaced and reported. European dates are snapped to the nearest grid date,
// with a warning whenever a date moves. Without a calendar or dates, the
// feature checks the last path column only.
func New(spec Spec, cal *calendar.Calendar, log zerolog.Logger) (*Feature, error) {
	log = log.With().Str("component", "barrier").Logger()

	if _, err := ParseMechanism(string(spec.Mechanism)); err != nil {
		return nil, err
	}
	exercise, err := domain.ParseExerciseStyle(string(spec.Exercise))
	if err != nil {
		return nil, err
	}
	method, err := domain.ParseValueMethod(string(spec.ValueMethod))
	if err != nil {
		return nil, err
	}
	if !(spec.Level > 0) || math.IsInf(spec.Level, 0) {
		return nil, fmt.Errorf("%w: barrier level must be positive, got %g", domain.ErrInvalidConfig, spec.Level)
	}
	if !spec.Start.IsZero() && !spec.End.IsZero() && !spec.Start.Before(spec.End) {
		return nil, fmt.Errorf("%w: barrier start date must be before end date", domain.ErrInvalidConfig)
	}
	if method == domain.ValueRelative && !(spec.ReferenceSpot > 0) {
		return nil, fmt.Errorf("%w: relative barrier needs a positive reference spot, got %g",
			domain.ErrInvalidConfig, spec.ReferenceSpot)
	}

	f := &Feature{
		mechanism: spec.Mechanism,
		exercise:  exercise,
		level:     method.Resolve(spec.Level, spec.ReferenceSpot),
	}

	switch {
	case exercise == domain.American:
		if cal == nil {
			return nil, fmt.Errorf("%w: american barrier observation needs a calendar", domain.ErrInvalidConfig)
		}
		f.calendar = cal
		f.observations = cal.Dates()
		if len(spec.ObservationDates) > 0 && !sameDates(spec.ObservationDates, f.observations) {
			log.Warn().
				Int("requested", len(spec.ObservationDates)).
				Int("resolved", len(f.observations)).
				Msg("American barrier observes every calendar date, supplied observation dates replaced")
		}
	case cal != nil && len(spec.ObservationDates) > 0:
		f.calendar = cal
		f.observations = make([]time.Time, len(spec.ObservationDates))
		for i, d := range spec.ObservationDates {
			resolved, moved := cal.Resolve(d)
			if moved {
				log.Warn().
					Str("requested", d.Format(time.DateOnly)).
					Str("resolved", resolved.Format(time.DateOnly)).
					Msg("Updating observation date to nearest calendar date")
			}
			f.observations[i] = resolved
		}
	}

	return f, nil
}

func sameDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		y1, m1, d1 := a[i].Date()
		y2, m2, d2 := b[i].Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}

// Mechanism returns the barrier mechanism
func (f *Feature) Mechanism() Mechanism { return f.mechanism }

// Exercise returns the observation style
func (f *Feature) Exercise() domain.ExerciseStyle { return f.exercise }

// Level returns the absolute barrier level
func (f *Feature) Level() float64 { return f.level }

// ObservationDates returns the resolved observation dates, nil for a terminal-only check
func (f *Feature) ObservationDates() []time.Time {
	if f.observations == nil {
		return nil
	}
	return append([]time.Time(nil), f.observations...)
}

// ReduceToObservationDates selects the path columns at the observation dates,
// or the last column when no observation dates are configured.
func (f *Feature) ReduceToObservationDates(paths *mat.Dense) (*mat.Dense, error) {
	rows, cols := paths.Dims()
	if f.observations == nil {
		out := mat.NewDense(rows, 1, nil)
		out.SetCol(0, mat.Col(nil, cols-1, paths))
		return out, nil
	}

	out := mat.NewDense(rows, len(f.observations), nil)
	for j, d := range f.observations {
		idx, ok := f.calendar.IndexOf(d)
		if !ok || idx >= cols {
			return nil, fmt.Errorf("%w: observation date %s is not a path column",
				domain.ErrInvalidConfig, d.Format(time.DateOnly))
		}
		out.SetCol(j, mat.Col(nil, idx, paths))
	}
	return out, nil
}

// Observe returns a 0/1 activation matrix over the observation dates.
// "In" mechanisms flag a touch; "out" mechanisms flag survival (no touch).
func (f *Feature) Observe(paths *mat.Dense) (*mat.Dense, error) {
	observed, err := f.ReduceToObservationDates(paths)
	if err != nil {
		return nil, err
	}

	out := f.mechanism.out()
	observed.Apply(func(_, _ int, v float64) float64 {
		if f.mechanism.touched(v, f.level) != out {
			return 1
		}
		return 0
	}, observed)
	return observed, nil
}

// Activation observes the paths and reduces the result to one flag per scenario.
func (f *Feature) Activation(paths *mat.Dense, rule Rule) ([]float64, error) {
	observed, err := f.Observe(paths)
	if err != nil {
		return nil, err
	}
	return Reduce(observed, rule)
}

// Rule collapses per-date activation flags into one flag per scenario
type Rule string

const (
	Best      Rule = "Best"
	Worst     Rule = "Worst"
	Last      Rule = "Last"
	First     Rule = "First"
	AboveMean Rule = "Above_Mean"
)

// ParseRule validates a reduction rule string
func ParseRule(s string) (Rule, error) {
	switch r := Rule(s); r {
	case Best, Worst, Last, First, AboveMean:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown barrier reduction rule %q", domain.ErrInvalidConfig, s)
}

// Reduce collapses an activation matrix to one flag per row
func Reduce(activations *mat.Dense, rule Rule) ([]float64, error) {
	var reduce func([]float64) float64
	switch rule {
	case Best:
		reduce = floats.Max
	case Worst:
		reduce = floats.Min
	case Last:
		reduce = func(x []float64) float64 { return x[len(x)-1] }
	case First:
		reduce = func(x []float64) float64 { return x[0] }
	case AboveMean:
		reduce = func(x []float64) float64 {
			if floats.Sum(x)/float64(len(x)) >= 0.5 {
				return 1
			}
			return 0
		}
	default:
		return nil, fmt.Errorf("%w: unknown barrier reduction rule %q", domain.ErrInvalidConfig, rule)
	}

	rows, _ := activations.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = reduce(activations.RawRowView(i))
	}
	return out, nil
}
