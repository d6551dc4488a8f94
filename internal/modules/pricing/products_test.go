package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/mcpricer/internal/modules/payoff"
)

func TestProductRepository_CreateGetList(t *testing.T) {
	repo := newProducts(t)

	p, err := repo.Create("BN call", callRequest())
	require.NoError(t, err)

	got, err := repo.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "BN call", got.Name)
	assert.Equal(t, *callRequest(), got.Request)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)

	_, err = repo.Get("nope")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = repo.Create("BN put", callRequest())
	require.NoError(t, err)
	all, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProductRepository_Valuations(t *testing.T) {
	repo := newProducts(t)
	p, err := repo.Create("BN call", callRequest())
	require.NoError(t, err)

	mid := time.Date(2010, 7, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	result := &PricingResult{
		Valuations: []payoff.Valuation{
			{Date: mid, Requested: mid, Estimate: payoff.Estimate{Price: 2.5, Std: 3.1}},
			{Date: end, Requested: end.AddDate(0, 0, -12), Estimate: payoff.Estimate{Price: 3.4, Std: 4.9}},
		},
		Paths:      1000,
		DurationMs: 12,
	}

	_, err = repo.AddValuation(p.ID, result)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	latest, err := repo.AddValuation(p.ID, result)
	require.NoError(t, err)

	records, err := repo.GetValuations(p.ID, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, latest.ID, records[0].ID)
	assert.Equal(t, 1000, records[0].Paths)
	assert.Equal(t, result.Valuations, records[0].Results)

	all, err := repo.GetValuations(p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
