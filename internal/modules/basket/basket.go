// Package basket reduces multi-underlying paths to a single basket path.
package basket

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/simulation"
)

// Method is the cross-sectional reduction rule
type Method string

const (
	// Uniform is the equally weighted arithmetic mean
	Uniform Method = "uniform"
	// WorstOf takes the lowest underlying
	WorstOf Method = "worst-of"
	// BestOf takes the highest underlying
	BestOf Method = "best-of"
)

// ParseMethod validates a basket method string
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case Uniform, WorstOf, BestOf:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown basket method %q", domain.ErrInvalidConfig, s)
}

// Aggregate reduces paths of shape (sims, steps, dim) to a (sims × steps) matrix.
func Aggregate(paths *simulation.Tensor, method Method) (*mat.Dense, error) {
	var reduce func([]float64) float64
	switch method {
	case Uniform:
		reduce = func(x []float64) float64 { return floats.Sum(x) / float64(len(x)) }
	case WorstOf:
		reduce = floats.Min
	case BestOf:
		reduce = floats.Max
	default:
		return nil, fmt.Errorf("%w: unknown basket method %q", domain.ErrInvalidConfig, method)
	}

	if paths == nil || paths.Sims == 0 || paths.Steps == 0 || paths.Dim == 0 {
		return nil, fmt.Errorf("%w: empty path tensor", domain.ErrInvalidConfig)
	}

	out := make([]float64, paths.Sims*paths.Steps)
	for i := 0; i < paths.Sims; i++ {
		row := paths.Scenario(i)
		for s := 0; s < paths.Steps; s++ {
			out[i*paths.Steps+s] = reduce(row[s*paths.Dim : (s+1)*paths.Dim])
		}
	}
	return mat.NewDense(paths.Sims, paths.Steps, out), nil
}
