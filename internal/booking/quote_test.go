package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(d time.Duration) Window {
	start := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.Add(d)}
}

func TestQuoteBillsCeilingHours(t *testing.T) {
	est, err := Quote(window(90*time.Minute), 1000)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, est.DurationHours, 1e-9)
	assert.Equal(t, 2000.0, est.Cost, "90 minutes bills as 2 hours, not 1.5")
}

func TestQuoteExactHoursNotRoundedUp(t *testing.T) {
	est, err := Quote(window(2*time.Hour), 500)
	require.NoError(t, err)

	assert.Equal(t, 2.0, est.DurationHours)
	assert.Equal(t, 1000.0, est.Cost)
}

func TestQuoteIncompleteWindowIsZero(t *testing.T) {
	est, err := Quote(Window{}, 1000)
	require.NoError(t, err)
	assert.Zero(t, est.DurationHours)
	assert.Zero(t, est.Cost)

	est, err = Quote(Window{Start: time.Now().UTC()}, 1000)
	require.NoError(t, err)
	assert.Zero(t, est.Cost)
}

func TestQuoteInvertedWindow(t *testing.T) {
	start := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

	_, err := Quote(Window{Start: start, End: start}, 1000)
	assert.ErrorIs(t, err, ErrInvertedWindow)

	_, err = Quote(Window{Start: start, End: start.Add(-time.Hour)}, 1000)
	assert.ErrorIs(t, err, ErrInvertedWindow)
}

func TestQuoteCostMonotonicInDuration(t *testing.T) {
	prev := -1.0
	for d := 30 * time.Minute; d <= 24*time.Hour; d += 10 * time.Minute {
		est, err := Quote(window(d), 750)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, est.Cost, prev, "cost must not decrease as duration grows (at %s)", d)
		prev = est.Cost
	}
}
