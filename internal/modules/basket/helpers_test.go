package basket

import (
	"testing"
	"time"

	"github.com/aristath/mcpricer/internal/modules/calendar"
	"github.com/stretchr/testify/require"
)

func testCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	c, err := calendar.New(calendar.Spec{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Steps: 12,
	})
	require.NoError(t, err)
	return c
}
