// Package pricing runs the Monte Carlo pipeline for a pricing request and keeps a book of saved products.
package pricing

import (
	"fmt"
	"time"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/barrier"
	"github.com/aristath/mcpricer/internal/modules/basket"
	"github.com/aristath/mcpricer/internal/modules/calendar"
	"github.com/aristath/mcpricer/internal/modules/payoff"
	"github.com/aristath/mcpricer/internal/modules/simulation"
)

// Option kinds accepted in requests
const (
	KindCall        = "call"
	KindPut         = "put"
	KindDigitalCall = "digital-call"
	KindDigitalPut  = "digital-put"
)

// UnderlyingLeg is one basket member. A nil Vol is estimated from price history.
type UnderlyingLeg struct {
	ISIN string   `json:"isin"`
	Spot float64  `json:"spot"`
	Vol  *float64 `json:"vol,omitempty"`
	Rate float64  `json:"rate"`
	Div  float64  `json:"div"`
}

// OptionRequest describes the payoff
type OptionRequest struct {
	Kind        string   `json:"kind"`
	Exercise    string   `json:"exercise,omitempty"`
	Strike      float64  `json:"strike"`
	ValueMethod string   `json:"value_method,omitempty"`
	Rebate      float64  `json:"rebate,omitempty"`
	Leverage    *float64 `json:"leverage,omitempty"`
	Payout      float64  `json:"payout,omitempty"`
}

// BarrierRequest describes an optional knock-in / knock-out condition
type BarrierRequest struct {
	Mechanism            string   `json:"mechanism"`
	Exercise             string   `json:"exercise,omitempty"`
	Level                float64  `json:"level"`
	ValueMethod          string   `json:"value_method,omitempty"`
	ObservationDates     []string `json:"observation_dates,omitempty"`
	Rule                 string   `json:"rule,omitempty"`
	RebateIfNotActivated bool     `json:"rebate_if_not_activated,omitempty"`
}

// PricingRequest is a complete, self-contained pricing job. Dates are YYYY-MM-DD.
type PricingRequest struct {
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Steps         int             `json:"steps,omitempty"`
	Dt            float64         `json:"dt,omitempty"`
	TradingDays   float64         `json:"trading_days,omitempty"`
	Paths         int             `json:"paths"`
	Seed          *int64          `json:"seed,omitempty"`
	Antithetic    bool            `json:"antithetic,omitempty"`
	Underlyings   []UnderlyingLeg `json:"underlyings"`
	LevelMode     string          `json:"level_mode,omitempty"`
	Basket        string          `json:"basket,omitempty"`
	ReferenceSpot *float64        `json:"reference_spot,omitempty"`
	Option        OptionRequest   `json:"option"`
	PricingDates  []string        `json:"pricing_dates,omitempty"`
	Barrier       *BarrierRequest `json:"barrier,omitempty"`
}

func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a YYYY-MM-DD date", domain.ErrInvalidConfig, field, s)
	}
	return d, nil
}

func parseDates(field string, in []string) ([]time.Time, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]time.Time, 0, len(in))
	for _, s := range in {
		d, err := parseDate(field, s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *PricingRequest) calendarSpec(defaultTradingDays float64) (calendar.Spec, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return calendar.Spec{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return calendar.Spec{}, err
	}
	tradingDays := r.TradingDays
	if tradingDays == 0 {
		tradingDays = defaultTradingDays
	}
	return calendar.Spec{Start: start, End: end, Steps: r.Steps, Dt: r.Dt, TradingDays: tradingDays}, nil
}

func (r *PricingRequest) basketMethod() (basket.Method, error) {
	if r.Basket == "" {
		return basket.Uniform, nil
	}
	return basket.ParseMethod(r.Basket)
}

func (r *PricingRequest) levelMode() (simulation.Mode, error) {
	if r.LevelMode == "" {
		return simulation.ModeAbsolute, nil
	}
	return simulation.ParseMode(r.LevelMode)
}

func (r *PricingRequest) isins() []string {
	out := make([]string, len(r.Underlyings))
	for i, u := range r.Underlyings {
		out[i] = u.ISIN
	}
	return out
}

// referenceSpot is the basket level relative quotes are scaled by: 1 for
// percentage paths, otherwise the basket aggregate of the initial spots.
func (r *PricingRequest) referenceSpot(mode simulation.Mode, method basket.Method) float64 {
	if r.ReferenceSpot != nil {
		return *r.ReferenceSpot
	}
	if mode == simulation.ModePercentage {
		return 1
	}
	ref := r.Underlyings[0].Spot
	sum := 0.0
	for _, u := range r.Underlyings {
		sum += u.Spot
		switch method {
		case basket.WorstOf:
			if u.Spot < ref {
				ref = u.Spot
			}
		case basket.BestOf:
			if u.Spot > ref {
				ref = u.Spot
			}
		}
	}
	if method == basket.Uniform {
		ref = sum / float64(len(r.Underlyings))
	}
	return ref
}

// buildOption turns the option request into a payoff descriptor
func (r *PricingRequest) buildOption(cal calendar.Spec, method basket.Method) (payoff.Option, error) {
	o := r.Option
	terms, err := payoff.NewTerms(cal.Start, cal.End, domain.ExerciseStyle(o.Exercise), o.Strike,
		domain.ValueMethod(o.ValueMethod), method, r.isins())
	if err != nil {
		return nil, err
	}

	leverage := 1.0
	if o.Leverage != nil {
		leverage = *o.Leverage
	}

	switch o.Kind {
	case KindCall:
		return payoff.NewCall(terms, o.Rebate, leverage)
	case KindPut:
		return payoff.NewPut(terms, o.Rebate, leverage)
	case KindDigitalCall:
		return payoff.NewDigitalCall(terms, o.Payout, o.Rebate)
	case KindDigitalPut:
		return payoff.NewDigitalPut(terms, o.Payout, o.Rebate)
	}
	return nil, fmt.Errorf("%w: unknown option kind %q", domain.ErrInvalidConfig, o.Kind)
}

func (b *BarrierRequest) spec(cal calendar.Spec, referenceSpot float64) (barrier.Spec, barrier.Rule, error) {
	dates, err := parseDates("observation_dates", b.ObservationDates)
	if err != nil {
		return barrier.Spec{}, "", err
	}
	rule := barrier.Last
	if b.Rule != "" {
		if rule, err = barrier.ParseRule(b.Rule); err != nil {
			return barrier.Spec{}, "", err
		}
	}
	return barrier.Spec{
		Start:            cal.Start,
		End:              cal.End,
		Mechanism:        barrier.Mechanism(b.Mechanism),
		Exercise:         domain.ExerciseStyle(b.Exercise),
		Level:            b.Level,
		ReferenceSpot:    referenceSpot,
		ValueMethod:      domain.ValueMethod(b.ValueMethod),
		ObservationDates: dates,
	}, rule, nil
}
