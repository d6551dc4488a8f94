// Package payoff evaluates vanilla and barrier-gated option payoffs on basket paths.
package payoff

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/basket"
)

// Kind names an option variant
type Kind string

const (
	KindCall        Kind = "call"
	KindPut         Kind = "put"
	KindDigitalCall Kind = "digital-call"
	KindDigitalPut  Kind = "digital-put"
)

// Terms are the fields shared by every option variant
type Terms struct {
	Start       time.Time
	End         time.Time
	Exercise    domain.ExerciseStyle
	Strike      float64
	ValueMethod domain.ValueMethod
	Basket      basket.Method
	Underlyings []string
}

// NewTerms validates the common option fields and rounds the strike.
func NewTerms(start, end time.Time, exercise domain.ExerciseStyle, strike float64,
	method domain.ValueMethod, basketMethod basket.Method, underlyings []string) (Terms, error) {
	if !start.Before(end) {
		return Terms{}, fmt.Errorf("%w: start date must be earlier than end date", domain.ErrInvalidConfig)
	}
	if math.IsNaN(strike) || math.IsInf(strike, 0) || !(roundQuote(strike) > 0) {
		return Terms{}, fmt.Errorf("%w: strike price must be positive, got %g", domain.ErrInvalidConfig, strike)
	}
	exercise, err := domain.ParseExerciseStyle(string(exercise))
	if err != nil {
		return Terms{}, err
	}
	method, err = domain.ParseValueMethod(string(method))
	if err != nil {
		return Terms{}, err
	}
	if _, err := basket.ParseMethod(string(basketMethod)); err != nil {
		return Terms{}, err
	}

	return Terms{
		Start:       start,
		End:         end,
		Exercise:    exercise,
		Strike:      roundQuote(strike),
		ValueMethod: method,
		Basket:      basketMethod,
		Underlyings: append([]string(nil), underlyings...),
	}, nil
}

// MaturityDays returns the number of days between start and end
func (t Terms) MaturityDays() int {
	return int(t.End.Sub(t.Start).Hours() / 24)
}

func roundQuote(x float64) float64 {
	return decimal.NewFromFloat(x).Round(domain.StrikePrecision).InexactFloat64()
}

func checkFinite(name string, x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Errorf("%w: %s must be finite, got %g", domain.ErrInvalidConfig, name, x)
	}
	return nil
}

// Option is the closed set of option variants: Call, Put, DigitalCall and DigitalPut.
type Option interface {
	Kind() Kind
	OptionTerms() Terms
	// RebateAmount is the quoted rebate, before value-method scaling
	RebateAmount() float64
	sealed()
}

// Call pays leverage·(S-K) above the strike, the rebate otherwise
type Call struct {
	Terms
	Rebate   float64
	Leverage float64
}

// Put pays leverage·(K-S) below the strike, the rebate otherwise
type Put struct {
	Terms
	Rebate   float64
	Leverage float64
}

// DigitalCall pays a fixed amount above the strike, the rebate otherwise
type DigitalCall struct {
	Terms
	Payout float64
	Rebate float64
}

// DigitalPut pays a fixed amount below the strike, the rebate otherwise
type DigitalPut struct {
	Terms
	Payout float64
	Rebate float64
}

// NewCall builds a call
func NewCall(terms Terms, rebate, leverage float64) (Call, error) {
	if err := checkFinite("rebate", rebate); err != nil {
		return Call{}, err
	}
	if err := checkFinite("leverage", leverage); err != nil {
		return Call{}, err
	}
	return Call{Terms: terms, Rebate: roundQuote(rebate), Leverage: leverage}, nil
}

// NewPut builds a put
func NewPut(terms Terms, rebate, leverage float64) (Put, error) {
	if err := checkFinite("rebate", rebate); err != nil {
		return Put{}, err
	}
	if err := checkFinite("leverage", leverage); err != nil {
		return Put{}, err
	}
	return Put{Terms: terms, Rebate: roundQuote(rebate), Leverage: leverage}, nil
}

// NewDigitalCall builds a digital call
func NewDigitalCall(terms Terms, payout, rebate float64) (DigitalCall, error) {
	if err := checkFinite("payout", payout); err != nil {
		return DigitalCall{}, err
	}
	if err := checkFinite("rebate", rebate); err != nil {
		return DigitalCall{}, err
	}
	return DigitalCall{Terms: terms, Payout: roundQuote(payout), Rebate: roundQuote(rebate)}, nil
}

// NewDigitalPut builds a digital put
func NewDigitalPut(terms Terms, payout, rebate float64) (DigitalPut, error) {
	if err := checkFinite("payout", payout); err != nil {
		return DigitalPut{}, err
	}
	if err := checkFinite("rebate", rebate); err != nil {
		return DigitalPut{}, err
	}
	return DigitalPut{Terms: terms, Payout: roundQuote(payout), Rebate: roundQuote(rebate)}, nil
}

func (Call) Kind() Kind        { return KindCall }
func (Put) Kind() Kind         { return KindPut }
func (DigitalCall) Kind() Kind { return KindDigitalCall }
func (DigitalPut) Kind() Kind  { return KindDigitalPut }

func (o Call) OptionTerms() Terms        { return o.Terms }
func (o Put) OptionTerms() Terms         { return o.Terms }
func (o DigitalCall) OptionTerms() Terms { return o.Terms }
func (o DigitalPut) OptionTerms() Terms  { return o.Terms }

func (o Call) RebateAmount() float64        { return o.Rebate }
func (o Put) RebateAmount() float64         { return o.Rebate }
func (o DigitalCall) RebateAmount() float64 { return o.Rebate }
func (o DigitalPut) RebateAmount() float64  { return o.Rebate }

func (Call) sealed()        {}
func (Put) sealed()         {}
func (DigitalCall) sealed() {}
func (DigitalPut) sealed()  {}
