package simulation

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/mcpricer/internal/domain"
)

// PathBlock is a read-only block of standard normal draws of shape (sims, steps, dim).
// Step 0 is zero for every scenario so that paths start exactly at spot.
type PathBlock struct {
	tensor     *Tensor
	antithetic bool
	seed       *int64
}

// GeneratePathBlock draws a block of standard normals.
//
// With antithetic sampling the first sims/2 scenarios are independent draws, the
// next sims/2 are their negation and an odd remainder gets one extra independent
// draw. The same seed always yields the same block.
func GeneratePathBlock(sims, steps, dim int, seed *int64, antithetic bool) (*PathBlock, error) {
	if sims <= 0 || steps <= 0 || dim <= 0 {
		return nil, fmt.Errorf("%w: path block shape must be positive, got (%d, %d, %d)",
			domain.ErrInvalidConfig, sims, steps, dim)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: newSource(seed)}
	t := NewTensor(sims, steps, dim)
	stride := steps * dim

	if antithetic {
		half := sims / 2
		independent := t.Data[:half*stride]
		for j := range independent {
			independent[j] = normal.Rand()
		}
		mirrored := t.Data[half*stride : 2*half*stride]
		for j := range mirrored {
			mirrored[j] = -independent[j]
		}
		for j := 2 * half * stride; j < len(t.Data); j++ {
			t.Data[j] = normal.Rand()
		}
	} else {
		for j := range t.Data {
			t.Data[j] = normal.Rand()
		}
	}

	for i := 0; i < sims; i++ {
		row := t.Scenario(i)
		for k := 0; k < dim; k++ {
			row[k] = 0
		}
	}

	return &PathBlock{tensor: t, antithetic: antithetic, seed: seed}, nil
}

func newSource(seed *int64) rand.Source {
	if seed == nil {
		now := uint64(time.Now().UnixNano())
		return rand.NewPCG(now, now>>1)
	}
	return rand.NewPCG(uint64(*seed), uint64(*seed))
}

// Sims returns the number of scenarios
func (b *PathBlock) Sims() int { return b.tensor.Sims }

// Steps returns the number of time slices
func (b *PathBlock) Steps() int { return b.tensor.Steps }

// Dim returns the number of underlyings
func (b *PathBlock) Dim() int { return b.tensor.Dim }

// Antithetic reports whether the block was drawn with antithetic pairing
func (b *PathBlock) Antithetic() bool { return b.antithetic }

// At returns the draw at scenario i, step s, underlying k
func (b *PathBlock) At(i, s, k int) float64 { return b.tensor.At(i, s, k) }

// scenario exposes the draws of one scenario without copying. Callers must not write to it.
func (b *PathBlock) scenario(i int) []float64 { return b.tensor.Scenario(i) }
