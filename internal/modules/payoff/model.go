package payoff

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/barrier"
	"github.com/aristath/mcpricer/internal/modules/calendar"
)

// Valuation is the estimate at one resolved pricing date
type Valuation struct {
	Date      time.Time `json:"date"`
	Requested time.Time `json:"requested"`
	Estimate
}

// VanillaModel prices an option on a basket path matrix (scenarios × calendar dates).
// The matrix is only read.
type VanillaModel struct {
	option   Option
	paths    *mat.Dense
	calendar *calendar.Calendar
	log      zerolog.Logger
}

// NewVanillaModel checks that the path matrix has one column per calendar date.
func NewVanillaModel(option Option, paths *mat.Dense, cal *calendar.Calendar, log zerolog.Logger) (*VanillaModel, error) {
	if option == nil || paths == nil || cal == nil {
		return nil, fmt.Errorf("%w: option, paths and calendar are required", domain.ErrInvalidConfig)
	}
	if _, cols := paths.Dims(); cols != cal.Len() {
		return nil, fmt.Errorf("%w: path matrix has %d columns, calendar has %d dates",
			domain.ErrInvalidConfig, cols, cal.Len())
	}
	return &VanillaModel{
		option:   option,
		paths:    paths,
		calendar: cal,
		log:      log.With().Str("component", "vanilla_model").Logger(),
	}, nil
}

// Option returns the priced option
func (m *VanillaModel) Option() Option { return m.option }

// resolveDates snaps requested dates onto the grid, dropping repeats of the same resolved date.
func (m *VanillaModel) resolveDates(dates []time.Time) []Valuation {
	out := make([]Valuation, 0, len(dates))
	seen := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		resolved, moved := m.calendar.Resolve(d)
		if moved {
			m.log.Warn().
				Str("requested", d.Format(time.DateOnly)).
				Str("resolved", resolved.Format(time.DateOnly)).
				Msg("Updating strike date to nearest calendar date")
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, Valuation{Date: resolved, Requested: d})
	}
	return out
}

func (m *VanillaModel) column(d time.Time) []float64 {
	idx, _ := m.calendar.IndexOf(d)
	return mat.Col(nil, idx, m.paths)
}

// Price returns one valuation per distinct resolved date, in request order.
func (m *VanillaModel) Price(dates []time.Time, referenceSpot float64) ([]Valuation, error) {
	valuations := m.resolveDates(dates)
	for i := range valuations {
		est, err := PriceOnePath(m.column(valuations[i].Date), m.option, referenceSpot)
		if err != nil {
			return nil, err
		}
		valuations[i].Estimate = est
	}
	return valuations, nil
}

// BarrierModel gates a vanilla payoff with a barrier activation flag per scenario.
type BarrierModel struct {
	vanilla              *VanillaModel
	feature              *barrier.Feature
	rule                 barrier.Rule
	rebateIfNotActivated bool
}

// NewBarrierModel validates the reduction rule and builds the gated model.
func NewBarrierModel(vanilla *VanillaModel, feature *barrier.Feature, rule barrier.Rule, rebateIfNotActivated bool) (*BarrierModel, error) {
	if vanilla == nil || feature == nil {
		return nil, fmt.Errorf("%w: vanilla model and barrier feature are required", domain.ErrInvalidConfig)
	}
	if _, err := barrier.ParseRule(string(rule)); err != nil {
		return nil, err
	}
	return &BarrierModel{
		vanilla:              vanilla,
		feature:              feature,
		rule:                 rule,
		rebateIfNotActivated: rebateIfNotActivated,
	}, nil
}

// Activation returns the reduced per-scenario barrier flag
func (m *BarrierModel) Activation() ([]float64, error) {
	return m.feature.Activation(m.vanilla.paths, m.rule)
}

// Price evaluates activated·payoff (+ (1-activated)·rebate when rebateIfNotActivated)
// at each distinct resolved date.
func (m *BarrierModel) Price(dates []time.Time, referenceSpot float64) ([]Valuation, error) {
	activated, err := m.Activation()
	if err != nil {
		return nil, err
	}

	opt := m.vanilla.option
	rebate := opt.OptionTerms().ValueMethod.Resolve(opt.RebateAmount(), referenceSpot)

	valuations := m.vanilla.resolveDates(dates)
	for i := range valuations {
		payoffs, err := Evaluate(opt, m.vanilla.column(valuations[i].Date), referenceSpot)
		if err != nil {
			return nil, err
		}
		for j, a := range activated {
			payoffs[j] *= a
			if m.rebateIfNotActivated {
				payoffs[j] += (1 - a) * rebate
			}
		}
		valuations[i].Estimate = Summarize(payoffs)
	}
	return valuations, nil
}
