// Package calendar builds the discrete simulation time grid from real dates.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/mcpricer/internal/domain"
)

// Spec describes how to build a Calendar.
// Exactly one of Steps and Dt must be set.
type Spec struct {
	Start       time.Time
	End         time.Time
	Steps       int     // number of steps between Start and End (0 = unset)
	Dt          float64 // fixed fractional step in (0, 1] (0 = unset)
	TradingDays float64 // day-count convention, defaults to 365
}

// Calendar is an immutable time grid. Dates and increments are derived once at construction.
type Calendar struct {
	start       time.Time
	end         time.Time
	nSteps      int
	dt          float64
	tradingDays float64
	times       []float64
	dates       []time.Time
	increments  []float64
	index       map[time.Time]int
}

// New validates the spec and builds the calendar.
func New(spec Spec) (*Calendar, error) {
	if spec.Steps != 0 && spec.Dt != 0 {
		return nil, fmt.Errorf("%w: only one of steps or dt should be provided", domain.ErrInvalidConfig)
	}
	if spec.Steps == 0 && spec.Dt == 0 {
		return nil, fmt.Errorf("%w: one of steps or dt must be provided", domain.ErrInvalidConfig)
	}
	if spec.Steps < 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", domain.ErrInvalidConfig, spec.Steps)
	}
	if spec.Dt < 0 || spec.Dt > 1 {
		return nil, fmt.Errorf("%w: dt must be in (0, 1], got %g", domain.ErrInvalidConfig, spec.Dt)
	}

	start, end := truncate(spec.Start), truncate(spec.End)
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start date %s must be before end date %s",
			domain.ErrInvalidConfig, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	tradingDays := spec.TradingDays
	if tradingDays == 0 {
		tradingDays = domain.DefaultTradingDays
	}
	if tradingDays < 0 {
		return nil, fmt.Errorf("%w: trading days must be positive, got %g", domain.ErrInvalidConfig, tradingDays)
	}

	c := &Calendar{
		start:       start,
		end:         end,
		tradingDays: tradingDays,
	}

	// The step count includes t=0.
	if spec.Dt != 0 {
		c.dt = spec.Dt
		c.nSteps = int(1/spec.Dt) + 1
	} else {
		c.nSteps = spec.Steps + 1
		c.dt = 1 / float64(spec.Steps)
	}

	c.times = make([]float64, c.nSteps)
	for i := range c.times {
		c.times[i] = float64(i) * c.dt
	}

	c.dates = buildDates(start, end, c.times)
	c.increments = buildIncrements(c.dates, tradingDays)
	c.index = make(map[time.Time]int, len(c.dates))
	for i, d := range c.dates {
		c.index[d] = i
	}

	return c, nil
}

// buildDates maps fractional positions onto [start, end], keeping one entry per calendar day.
func buildDates(start, end time.Time, times []float64) []time.Time {
	span := float64(days(start, end))
	seen := make(map[time.Time]struct{}, len(times))
	dates := make([]time.Time, 0, len(times))
	for _, t := range times {
		d := start.AddDate(0, 0, int(t*span))
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func buildIncrements(dates []time.Time, tradingDays float64) []float64 {
	inc := make([]float64, len(dates))
	for i := 1; i < len(dates); i++ {
		inc[i] = float64(days(dates[i-1], dates[i])) / tradingDays
	}
	return inc
}

// Start returns the first grid date
func (c *Calendar) Start() time.Time { return c.start }

// End returns the calendar end date
func (c *Calendar) End() time.Time { return c.end }

// NSteps returns the number of fractional positions, t=0 included.
// It can exceed len(Dates()) when positions fall on the same day.
func (c *Calendar) NSteps() int { return c.nSteps }

// Dt returns the fractional step size
func (c *Calendar) Dt() float64 { return c.dt }

// TradingDays returns the day-count convention
func (c *Calendar) TradingDays() float64 { return c.tradingDays }

// Times returns a copy of the fractional positions in [0, 1]
func (c *Calendar) Times() []float64 {
	return append([]float64(nil), c.times...)
}

// Dates returns a copy of the strictly increasing grid dates
func (c *Calendar) Dates() []time.Time {
	return append([]time.Time(nil), c.dates...)
}

// Len returns the number of grid dates
func (c *Calendar) Len() int { return len(c.dates) }

// TimeIncrements returns the year fractions between successive grid dates.
// The first entry is always 0.
func (c *Calendar) TimeIncrements() []float64 {
	return append([]float64(nil), c.increments...)
}

// IndexOf returns the column index of a grid date.
func (c *Calendar) IndexOf(d time.Time) (int, bool) {
	i, ok := c.index[truncate(d)]
	return i, ok
}

// Nearest returns the grid date with the smallest absolute day distance to d.
// Ties go to the earlier grid date.
func (c *Calendar) Nearest(d time.Time) time.Time {
	d = truncate(d)
	best := c.dates[0]
	bestDist := abs(days(best, d))
	for _, g := range c.dates[1:] {
		if dist := abs(days(g, d)); dist < bestDist {
			best, bestDist = g, dist
		}
	}
	return best
}

// Resolve snaps d to the grid and reports whether it moved.
func (c *Calendar) Resolve(d time.Time) (time.Time, bool) {
	n := c.Nearest(d)
	return n, !n.Equal(truncate(d))
}

// truncate drops the clock part and normalizes to UTC so dates compare by day.
func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// days returns the whole number of days from a to b.
func days(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
