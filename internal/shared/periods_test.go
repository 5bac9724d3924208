package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	start, err := ParsePeriod("2026-08")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), start)

	for _, bad := range []string{"", "2026", "2026-13", "08-2026", "2026-08-01"} {
		_, err := ParsePeriod(bad)
		assert.ErrorIs(t, err, ErrInvalidPeriod, "period %q", bad)
	}
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08", CurrentPeriod(now))
}

func TestPreviousPeriod(t *testing.T) {
	prev, err := PreviousPeriod("2026-08")
	require.NoError(t, err)
	assert.Equal(t, "2026-07", prev)

	prev, err = PreviousPeriod("2026-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-12", prev)

	_, err = PreviousPeriod("not-a-period")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
