package span

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tally/internal/model"
)

func at(day, hour, minute, second int) time.Time {
	return time.Date(2011, time.December, day, hour, minute, second, 0, time.UTC)
}

func TestSplitSameDay(t *testing.T) {
	parts, err := Split(at(21, 9, 0, 0), at(21, 17, 48, 15))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, model.NewDate(2011, time.December, 21), parts[0].Date)
	assert.Equal(t, 8*time.Hour+48*time.Minute+15*time.Second, parts[0].Duration)
}

func TestSplitZeroLength(t *testing.T) {
	parts, err := Split(at(21, 9, 0, 0), at(21, 9, 0, 0))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Zero(t, parts[0].Duration)
}

func TestSplitAcrossThreeDays(t *testing.T) {
	parts, err := Split(at(21, 23, 0, 0), at(23, 1, 0, 0))
	require.NoError(t, err)
	require.Equal(t, []Part{
		{Date: model.NewDate(2011, time.December, 21), Duration: 59*time.Minute + 59*time.Second},
		{Date: model.NewDate(2011, time.December, 22), Duration: 24 * time.Hour},
		{Date: model.NewDate(2011, time.December, 23), Duration: time.Hour},
	}, parts)
}

func TestSplitFirstDayEndsAtLastSecond(t *testing.T) {
	parts, err := Split(at(21, 20, 59, 15), at(25, 9, 40, 10))
	require.NoError(t, err)
	require.Len(t, parts, 5)
	assert.Equal(t, 3*time.Hour+44*time.Second, parts[0].Duration)
	for _, p := range parts[1:4] {
		assert.Equal(t, 24*time.Hour, p.Duration)
	}
	assert.Equal(t, 9*time.Hour+40*time.Minute+10*time.Second, parts[4].Duration)
}

func TestSplitAcrossMonthAndYear(t *testing.T) {
	start := time.Date(2011, time.December, 31, 22, 0, 0, 0, time.UTC)
	end := time.Date(2012, time.January, 1, 2, 0, 0, 0, time.UTC)
	parts, err := Split(start, end)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, model.NewDate(2012, time.January, 1), parts[1].Date)
	assert.Equal(t, 2*time.Hour, parts[1].Duration)
}

func TestSplitCoversEveryDayOfLongSpan(t *testing.T) {
	start := time.Date(1700, time.January, 1, 12, 0, 0, 0, time.UTC)
	end := time.Date(2099, time.December, 31, 6, 0, 0, 0, time.UTC)
	parts, err := Split(start, end)
	require.NoError(t, err)
	require.Len(t, parts, 146097)
	for i := 1; i < len(parts); i++ {
		require.Equal(t, parts[i-1].Date.AddDays(1), parts[i].Date)
	}
	assert.Equal(t, model.NewDate(2099, time.December, 31), parts[len(parts)-1].Date)
	assert.Equal(t, 6*time.Hour, parts[len(parts)-1].Duration)
}

func TestSplitReversed(t *testing.T) {
	_, err := Split(at(22, 9, 0, 0), at(21, 9, 0, 0))
	assert.ErrorIs(t, err, ErrReversed)
}
