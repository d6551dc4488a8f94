package marketdata

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/mcpricer/internal/domain"
	testingpkg "github.com/aristath/mcpricer/internal/testing"
)

func newHistory(t *testing.T) *HistoryRepository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "history")
	t.Cleanup(cleanup)
	return NewHistoryRepository(db.Conn(), zerolog.Nop())
}

func TestHistoryRepository_AddAndGet(t *testing.T) {
	repo := newHistory(t)

	err := repo.AddCloses("FR0000120644", []DailyClose{
		{Date: "2024-01-03", Close: 61.0},
		{Date: "2024-01-02", Close: 60.0},
		{Date: "2024-01-04", Close: 62.0},
	})
	require.NoError(t, err)

	all, err := repo.GetCloses("FR0000120644", 0)
	require.NoError(t, err)
	assert.Equal(t, []DailyClose{
		{Date: "2024-01-02", Close: 60.0},
		{Date: "2024-01-03", Close: 61.0},
		{Date: "2024-01-04", Close: 62.0},
	}, all)

	last, err := repo.GetCloses("FR0000120644", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "2024-01-03", last[0].Date)

	// upsert replaces the close
	require.NoError(t, repo.AddCloses("FR0000120644", []DailyClose{{Date: "2024-01-04", Close: 63.5}}))
	last, err = repo.GetCloses("FR0000120644", 1)
	require.NoError(t, err)
	assert.Equal(t, 63.5, last[0].Close)

	none, err := repo.GetCloses("US0378331005", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistoryRepository_RejectsBadInput(t *testing.T) {
	repo := newHistory(t)

	err := repo.AddCloses("FR0000120644", []DailyClose{{Date: "02/01/2024", Close: 60}})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	err = repo.AddCloses("FR0000120644", []DailyClose{
		{Date: "2024-01-02", Close: 60},
		{Date: "2024-01-03", Close: 0},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	// nothing was written
	closes, err := repo.GetCloses("FR0000120644", 0)
	require.NoError(t, err)
	assert.Empty(t, closes)
}
