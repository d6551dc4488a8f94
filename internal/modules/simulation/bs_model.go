package simulation

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/aristath/mcpricer/internal/domain"
)

// Mode selects how simulated paths are expressed
type Mode string

const (
	// ModeAbsolute yields price levels
	ModeAbsolute Mode = "absolute"
	// ModePercentage yields growth factors relative to spot (level / spot)
	ModePercentage Mode = "relative"
)

// ParseMode validates a path mode string. Empty defaults to absolute.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAbsolute:
		return ModeAbsolute, nil
	case ModePercentage, "percentage":
		return ModePercentage, nil
	}
	return "", fmt.Errorf("%w: unknown path mode %q", domain.ErrInvalidConfig, s)
}

// minParallelSims is the scenario count below which diffusion runs on one goroutine.
const minParallelSims = 4096

// BSModel diffuses independent geometric Brownian motions under the risk-neutral measure.
type BSModel struct {
	cfg   Config
	block *PathBlock
}

// NewBSModel validates the configuration and draws the Gaussian block.
// The block has one slice per calendar position (t=0 included).
func NewBSModel(cfg Config) (*BSModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	block, err := GeneratePathBlock(cfg.Paths, cfg.Calendar.NSteps(), cfg.Portfolio.Len(), cfg.Seed, cfg.Antithetic)
	if err != nil {
		return nil, err
	}

	return &BSModel{cfg: cfg, block: block}, nil
}

// Config returns the model configuration
func (m *BSModel) Config() Config { return m.cfg }

// Block returns the Gaussian drivers
func (m *BSModel) Block() *PathBlock { return m.block }

// Simulate returns paths in the requested mode
func (m *BSModel) Simulate(mode Mode) *Tensor {
	if mode == ModePercentage {
		return m.Percentages()
	}
	return m.Values()
}

// Values returns absolute price paths spot·exp(cumsum(drift·dt + vol·√dt·Z)),
// rounded to domain.PathPrecision. Column j is calendar date j.
func (m *BSModel) Values() *Tensor {
	return m.diffuse(true)
}

// Percentages returns exp(cumsum(drift·dt + vol·√dt·Z)) rounded to
// domain.PathPrecision. Multiplying by spot recovers Values up to rounding.
func (m *BSModel) Percentages() *Tensor {
	return m.diffuse(false)
}

func (m *BSModel) diffuse(absolute bool) *Tensor {
	underlyings := m.cfg.Portfolio.Underlyings()
	dim := len(underlyings)

	dt := m.cfg.Calendar.TimeIncrements()
	steps := len(dt) // deduplicated grid can be shorter than the block
	sqrtDt := make([]float64, steps)
	for s, v := range dt {
		sqrtDt[s] = math.Sqrt(v)
	}

	logSpots := make([]float64, dim)
	drifts := make([]float64, dim)
	vols := make([]float64, dim)
	for k, u := range underlyings {
		logSpots[k] = math.Log(u.Spot)
		drifts[k] = u.Drift()
		vols[k] = u.Vol
	}

	out := NewTensor(m.block.Sims(), steps, dim)
	parallelRange(m.block.Sims(), func(lo, hi int) {
		acc := make([]float64, dim)
		for i := lo; i < hi; i++ {
			z := m.block.scenario(i)
			row := out.Scenario(i)
			for k := range acc {
				acc[k] = 0
			}
			for s := 0; s < steps; s++ {
				for k := 0; k < dim; k++ {
					acc[k] += dt[s]*drifts[k] + sqrtDt[s]*vols[k]*z[s*dim+k]
					if absolute {
						row[s*dim+k] = domain.Round(math.Exp(logSpots[k]+acc[k]), domain.PathPrecision)
					} else {
						row[s*dim+k] = domain.Round(math.Exp(acc[k]), domain.PathPrecision)
					}
				}
			}
		}
	})

	return out
}

// parallelRange splits [0, n) into contiguous chunks processed concurrently.
// Chunks write disjoint scenarios, so the output does not depend on scheduling.
func parallelRange(n int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if n < minParallelSims || workers < 2 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
