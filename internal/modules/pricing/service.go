package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/barrier"
	"github.com/aristath/mcpricer/internal/modules/basket"
	"github.com/aristath/mcpricer/internal/modules/calendar"
	"github.com/aristath/mcpricer/internal/modules/payoff"
	"github.com/aristath/mcpricer/internal/modules/simulation"
	"github.com/aristath/mcpricer/internal/modules/universe"
)

// UnderlyingLookup resolves reference records by ISIN
type UnderlyingLookup interface {
	Get(isin string) (*universe.Underlying, error)
}

// VolatilitySource estimates annualized volatility from history
type VolatilitySource interface {
	Estimate(isin string, window int) (float64, error)
}

// ServiceConfig bounds and defaults for pricing jobs
type ServiceConfig struct {
	MaxPaths           int
	DefaultTradingDays float64
	VolatilityWindow   int // daily returns used when a leg omits vol; 0 uses the estimator default
}

// Snap records a pricing date that was moved onto the simulation grid
type Snap struct {
	Requested time.Time `json:"requested"`
	Resolved  time.Time `json:"resolved"`
}

// PricingResult is the outcome of one pricing run
type PricingResult struct {
	Valuations []payoff.Valuation `json:"valuations"`
	Snapped    []Snap             `json:"snapped"`
	Paths      int                `json:"paths"`
	Duration   time.Duration      `json:"-"`
	DurationMs int64              `json:"duration_ms"`
}

// Service prices requests and manages the product book
type Service struct {
	underlyings UnderlyingLookup
	volatility  VolatilitySource
	products    *ProductRepository
	cfg         ServiceConfig
	log         zerolog.Logger
}

// NewService creates a pricing service. underlyings and volatility may be nil:
// legs are then not checked against the universe and must carry a vol.
func NewService(
	underlyings UnderlyingLookup,
	volatility VolatilitySource,
	products *ProductRepository,
	cfg ServiceConfig,
	log zerolog.Logger,
) *Service {
	if cfg.DefaultTradingDays <= 0 {
		cfg.DefaultTradingDays = domain.DefaultTradingDays
	}
	return &Service{
		underlyings: underlyings,
		volatility:  volatility,
		products:    products,
		cfg:         cfg,
		log:         log.With().Str("service", "pricing").Logger(),
	}
}

// pricer is satisfied by the vanilla and barrier-gated models
type pricer interface {
	Price(dates []time.Time, referenceSpot float64) ([]payoff.Valuation, error)
}

// job is a validated request, ready to simulate
type job struct {
	calendar      *calendar.Calendar
	simulation    simulation.Config
	mode          simulation.Mode
	basket        basket.Method
	option        payoff.Option
	feature       *barrier.Feature
	rule          barrier.Rule
	rebateIfNotIn bool
	dates         []time.Time
	referenceSpot float64
}

// prepare validates a request end to end without simulating.
func (s *Service) prepare(req *PricingRequest) (*job, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty pricing request", domain.ErrInvalidConfig)
	}
	if s.cfg.MaxPaths > 0 && req.Paths > s.cfg.MaxPaths {
		return nil, fmt.Errorf("%w: %d paths exceeds the limit of %d", domain.ErrInvalidConfig, req.Paths, s.cfg.MaxPaths)
	}
	if len(req.Underlyings) == 0 {
		return nil, fmt.Errorf("%w: at least one underlying is required", domain.ErrInvalidConfig)
	}
	if req.ReferenceSpot != nil && (!(*req.ReferenceSpot > 0) || math.IsInf(*req.ReferenceSpot, 0)) {
		return nil, fmt.Errorf("%w: reference spot must be positive, got %g", domain.ErrInvalidConfig, *req.ReferenceSpot)
	}

	calSpec, err := req.calendarSpec(s.cfg.DefaultTradingDays)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.New(calSpec)
	if err != nil {
		return nil, err
	}

	mode, err := req.levelMode()
	if err != nil {
		return nil, err
	}
	method, err := req.basketMethod()
	if err != nil {
		return nil, err
	}

	portfolio, err := s.portfolio(req.Underlyings)
	if err != nil {
		return nil, err
	}

	opt, err := req.buildOption(calSpec, method)
	if err != nil {
		return nil, err
	}

	dates, err := parseDates("pricing_dates", req.PricingDates)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		dates = []time.Time{cal.End()}
	}

	j := &job{
		calendar: cal,
		simulation: simulation.Config{
			Calendar:   cal,
			Paths:      req.Paths,
			Seed:       req.Seed,
			Antithetic: req.Antithetic,
			Portfolio:  portfolio,
		},
		mode:          mode,
		basket:        method,
		option:        opt,
		dates:         dates,
		referenceSpot: req.referenceSpot(mode, method),
	}
	if err := j.simulation.Validate(); err != nil {
		return nil, err
	}

	if req.Barrier != nil {
		spec, rule, err := req.Barrier.spec(calSpec, j.referenceSpot)
		if err != nil {
			return nil, err
		}
		feature, err := barrier.New(spec, cal, s.log)
		if err != nil {
			return nil, err
		}
		j.feature, j.rule, j.rebateIfNotIn = feature, rule, req.Barrier.RebateIfNotActivated
	}

	return j, nil
}

// portfolio resolves each leg against the universe and fills missing volatilities.
func (s *Service) portfolio(legs []UnderlyingLeg) (*simulation.Portfolio, error) {
	params := make([]simulation.UnderlyingParams, 0, len(legs))
	for _, leg := range legs {
		isin := universe.NormalizeISIN(leg.ISIN)
		if s.underlyings != nil {
			if _, err := s.underlyings.Get(isin); err != nil {
				if errors.Is(err, universe.ErrUnderlyingNotFound) {
					return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
				}
				return nil, err
			}
		}

		var vol float64
		switch {
		case leg.Vol != nil:
			vol = *leg.Vol
		case s.volatility != nil:
			est, err := s.volatility.Estimate(isin, s.cfg.VolatilityWindow)
			if err != nil {
				return nil, fmt.Errorf("%w: no volatility for %s: %v", domain.ErrInvalidConfig, isin, err)
			}
			s.log.Info().Str("isin", isin).Float64("vol", est).Msg("Using realized volatility")
			vol = est
		default:
			return nil, fmt.Errorf("%w: volatility is required for %s", domain.ErrInvalidConfig, isin)
		}

		p, err := simulation.NewUnderlyingParams(isin, leg.Spot, vol, leg.Rate, leg.Div)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return simulation.NewPortfolio(params...)
}

// Validate checks a request without running the simulation
func (s *Service) Validate(req *PricingRequest) error {
	_, err := s.prepare(req)
	return err
}

// Price runs calendar, diffusion, basket aggregation, optional barrier gating and
// payoff evaluation. The context is checked between stages.
func (s *Service) Price(ctx context.Context, req *PricingRequest) (*PricingResult, error) {
	started := time.Now()

	j, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := simulation.NewBSModel(j.simulation)
	if err != nil {
		return nil, err
	}
	paths := model.Simulate(j.mode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values, err := basket.Aggregate(paths, j.basket)
	if err != nil {
		return nil, err
	}

	vanilla, err := payoff.NewVanillaModel(j.option, values, j.calendar, s.log)
	if err != nil {
		return nil, err
	}
	var p pricer = vanilla
	if j.feature != nil {
		if p, err = payoff.NewBarrierModel(vanilla, j.feature, j.rule, j.rebateIfNotIn); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	valuations, err := p.Price(j.dates, j.referenceSpot)
	if err != nil {
		return nil, err
	}

	snapped := make([]Snap, 0)
	for _, v := range valuations {
		if !v.Requested.Equal(v.Date) {
			snapped = append(snapped, Snap{Requested: v.Requested, Resolved: v.Date})
		}
	}

	elapsed := time.Since(started)
	s.log.Info().
		Int("paths", j.simulation.Paths).
		Int("underlyings", j.simulation.Portfolio.Len()).
		Int("dates", j.calendar.Len()).
		Dur("duration", elapsed).
		Msg("Priced request")

	return &PricingResult{
		Valuations: valuations,
		Snapped:    snapped,
		Paths:      j.simulation.Paths,
		Duration:   elapsed,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}

// SaveProduct validates the request and stores it in the product book
func (s *Service) SaveProduct(name string, req *PricingRequest) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidConfig)
	}
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	return s.products.Create(name, req)
}

// Revalue prices a saved product and records the valuation
func (s *Service) Revalue(ctx context.Context, productID string) (*ValuationRecord, error) {
	product, err := s.products.Get(productID)
	if err != nil {
		return nil, err
	}

	result, err := s.Price(ctx, &product.Request)
	if err != nil {
		return nil, fmt.Errorf("failed to price product %s: %w", productID, err)
	}

	return s.products.AddValuation(productID, result)
}

// RevalueAll revalues every saved product. Failures are logged and joined;
// the remaining products are still valued.
func (s *Service) RevalueAll(ctx context.Context) (int, error) {
	products, err := s.products.List()
	if err != nil {
		return 0, err
	}

	var errs []error
	done := 0
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Revalue(ctx, p.ID); err != nil {
			s.log.Error().Err(err).Str("product_id", p.ID).Msg("Revaluation failed")
			errs = append(errs, err)
			continue
		}
		done++
	}

	s.log.Info().Int("revalued", done).Int("products", len(products)).Msg("Revaluation complete")
	return done, errors.Join(errs...)
}

// Products exposes the product book
func (s *Service) Products() *ProductRepository {
	return s.products
}
