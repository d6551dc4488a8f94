package payoff

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/mcpricer/internal/domain"
)

// Estimate is a Monte Carlo price with the population standard deviation of the payoffs.
type Estimate struct {
	Price float64 `json:"price"`
	Std   float64 `json:"std"`
}

// Evaluate computes one payoff per scenario from basket values at a single date.
// Strike, rebate and payout are scaled by referenceSpot for relative options.
// American exercise is not implemented.
func Evaluate(opt Option, values []float64, referenceSpot float64) ([]float64, error) {
	terms := opt.OptionTerms()
	if terms.Exercise == domain.American {
		return nil, fmt.Errorf("%w: american %s payoff", domain.ErrNotImplemented, opt.Kind())
	}

	method := terms.ValueMethod
	strike := method.Resolve(terms.Strike, referenceSpot)
	out := make([]float64, len(values))

	switch o := opt.(type) {
	case Call:
		rebate := method.Resolve(o.Rebate, referenceSpot)
		for i, s := range values {
			out[i] = rebate
			if s > strike {
				out[i] = o.Leverage * (s - strike)
			}
		}
	case Put:
		rebate := method.Resolve(o.Rebate, referenceSpot)
		for i, s := range values {
			out[i] = rebate
			if s < strike {
				out[i] = o.Leverage * (strike - s)
			}
		}
	case DigitalCall:
		rebate := method.Resolve(o.Rebate, referenceSpot)
		payout := method.Resolve(o.Payout, referenceSpot)
		for i, s := range values {
			out[i] = rebate
			if s > strike {
				out[i] = payout
			}
		}
	case DigitalPut:
		rebate := method.Resolve(o.Rebate, referenceSpot)
		payout := method.Resolve(o.Payout, referenceSpot)
		for i, s := range values {
			out[i] = rebate
			if s < strike {
				out[i] = payout
			}
		}
	default:
		return nil, fmt.Errorf("%w: unsupported option type %T", domain.ErrInvalidConfig, opt)
	}

	return out, nil
}

// Summarize returns the sample mean and population standard deviation
func Summarize(payoffs []float64) Estimate {
	if len(payoffs) == 0 {
		return Estimate{}
	}
	mean, std := stat.PopMeanStdDev(payoffs, nil)
	return Estimate{Price: mean, Std: std}
}

// PriceOnePath prices an option on the basket values of a single date.
func PriceOnePath(values []float64, opt Option, referenceSpot float64) (Estimate, error) {
	payoffs, err := Evaluate(opt, values, referenceSpot)
	if err != nil {
		return Estimate{}, err
	}
	return Summarize(payoffs), nil
}
