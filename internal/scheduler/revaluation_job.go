package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRevaluationTimeout bounds one pass over the product book
const DefaultRevaluationTimeout = 30 * time.Minute

// Revaluer values every saved product
type Revaluer interface {
	RevalueAll(ctx context.Context) (int, error)
}

// RevaluationJob reprices the saved product book
type RevaluationJob struct {
	revaluer Revaluer
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRevaluationJob creates a new RevaluationJob. A non-positive timeout
// falls back to DefaultRevaluationTimeout.
func NewRevaluationJob(revaluer Revaluer, timeout time.Duration, log zerolog.Logger) *RevaluationJob {
	if timeout <= 0 {
		timeout = DefaultRevaluationTimeout
	}
	return &RevaluationJob{
		revaluer: revaluer,
		timeout:  timeout,
		log:      log.With().Str("job", "revalue_products").Logger(),
	}
}

// Name returns the job name
func (j *RevaluationJob) Name() string {
	return "revalue_products"
}

// Run executes the revaluation job
func (j *RevaluationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	count, err := j.revaluer.RevalueAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to revalue products (%d succeeded): %w", count, err)
	}

	j.log.Info().
		Int("revalued", count).
		Dur("duration", time.Since(start)).
		Msg("Product book revalued")
	return nil
}
