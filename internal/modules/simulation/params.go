// Package simulation generates Gaussian drivers and Black-Scholes price paths.
package simulation

import (
	"fmt"
	"math"

	"github.com/aristath/mcpricer/internal/domain"
)

// UnderlyingParams holds the market parameters of one underlying.
// All rates are annualized decimals (0.01 = 1%).
type UnderlyingParams struct {
	ID   string  `json:"id"`
	Spot float64 `json:"spot"`
	Vol  float64 `json:"vol"`
	Rate float64 `json:"rate"`
	Div  float64 `json:"div"`
}

// NewUnderlyingParams validates and returns market parameters.
func NewUnderlyingParams(id string, spot, vol, rate, div float64) (UnderlyingParams, error) {
	p := UnderlyingParams{ID: id, Spot: spot, Vol: vol, Rate: rate, Div: div}
	if err := p.Validate(); err != nil {
		return UnderlyingParams{}, err
	}
	return p, nil
}

// Validate checks the numeric ranges of the parameters
func (p UnderlyingParams) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: underlying identifier is empty", domain.ErrInvalidConfig)
	case !(p.Spot > 0) || math.IsInf(p.Spot, 0):
		return fmt.Errorf("%w: spot price of %s must be positive, got %g", domain.ErrInvalidConfig, p.ID, p.Spot)
	case !(p.Vol >= 0) || math.IsInf(p.Vol, 0):
		return fmt.Errorf("%w: volatility of %s cannot be negative, got %g", domain.ErrInvalidConfig, p.ID, p.Vol)
	case !(p.Rate >= -1 && p.Rate <= 1):
		return fmt.Errorf("%w: interest rate of %s must be between -100%% and 100%%, got %g", domain.ErrInvalidConfig, p.ID, p.Rate)
	case !(p.Div >= -1 && p.Div <= 1):
		return fmt.Errorf("%w: dividend yield of %s must be between -100%% and 100%%, got %g", domain.ErrInvalidConfig, p.ID, p.Div)
	}
	return nil
}

// Drift returns the risk-neutral log drift rate - div - vol²/2
func (p UnderlyingParams) Drift() float64 {
	return p.Rate - p.Div - 0.5*p.Vol*p.Vol
}

// Portfolio is a non-empty set of underlyings keyed by identifier.
// Iteration order is insertion order; the diffusion engine relies on it
// to align the underlying axis of every tensor.
type Portfolio struct {
	ids    []string
	params map[string]UnderlyingParams
}

// NewPortfolio builds a portfolio, rejecting empty input, invalid params and duplicate identifiers.
func NewPortfolio(underlyings ...UnderlyingParams) (*Portfolio, error) {
	if len(underlyings) == 0 {
		return nil, fmt.Errorf("%w: portfolio must contain at least one underlying", domain.ErrInvalidConfig)
	}

	p := &Portfolio{
		ids:    make([]string, 0, len(underlyings)),
		params: make(map[string]UnderlyingParams, len(underlyings)),
	}
	for _, u := range underlyings {
		if err := u.Validate(); err != nil {
			return nil, err
		}
		if _, dup := p.params[u.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate underlying %s", domain.ErrInvalidConfig, u.ID)
		}
		p.ids = append(p.ids, u.ID)
		p.params[u.ID] = u
	}
	return p, nil
}

// Len returns the number of underlyings
func (p *Portfolio) Len() int { return len(p.ids) }

// IDs returns the identifiers in iteration order
func (p *Portfolio) IDs() []string { return append([]string(nil), p.ids...) }

// Get returns the parameters of one underlying
func (p *Portfolio) Get(id string) (UnderlyingParams, bool) {
	u, ok := p.params[id]
	return u, ok
}

// Underlyings returns the parameters in iteration order
func (p *Portfolio) Underlyings() []UnderlyingParams {
	out := make([]UnderlyingParams, len(p.ids))
	for i, id := range p.ids {
		out[i] = p.params[id]
	}
	return out
}
