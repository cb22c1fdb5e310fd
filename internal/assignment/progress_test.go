package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkInOn(d time.Time) CheckInEvent {
	return CheckInEvent{OccurrenceDate: d, CompletedAt: d.Add(19 * time.Hour)}
}

func dailyOccurrences(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestComputeProgressCountsAndStreak(t *testing.T) {
	start := date(2025, 1, 1)
	occ := dailyOccurrences(start, 5) // Jan 1..5
	checkIns := []CheckInEvent{
		checkInOn(date(2025, 1, 3)),
		checkInOn(date(2025, 1, 4)),
		checkInOn(date(2025, 1, 5)),
	}

	snap := ComputeProgress(occ, checkIns, date(2025, 1, 5))

	assert.Equal(t, 3, snap.CompletedCount)
	assert.Equal(t, 5, snap.TotalOccurrences)
	assert.Equal(t, 3, snap.CurrentStreak, "streak counts back from the last due occurrence")
	require.NotNil(t, snap.LastCompletedDate)
	assert.Equal(t, date(2025, 1, 5), *snap.LastCompletedDate)
}

func TestComputeProgressStreakBrokenByGap(t *testing.T) {
	occ := dailyOccurrences(date(2025, 1, 1), 5)
	checkIns := []CheckInEvent{
		checkInOn(date(2025, 1, 1)),
		checkInOn(date(2025, 1, 2)),
		// Jan 3 missed.
		checkInOn(date(2025, 1, 4)),
		checkInOn(date(2025, 1, 5)),
	}

	snap := ComputeProgress(occ, checkIns, date(2025, 1, 5))

	assert.Equal(t, 4, snap.CompletedCount)
	assert.Equal(t, 2, snap.CurrentStreak)
}

func TestComputeProgressMissedLatestResetsStreak(t *testing.T) {
	occ := dailyOccurrences(date(2025, 1, 1), 5)
	checkIns := []CheckInEvent{
		checkInOn(date(2025, 1, 1)),
		checkInOn(date(2025, 1, 2)),
		checkInOn(date(2025, 1, 3)),
	}

	// Jan 4 was due but not completed.
	snap := ComputeProgress(occ, checkIns, date(2025, 1, 4))

	assert.Equal(t, 0, snap.CurrentStreak)
	assert.Equal(t, 3, snap.CompletedCount)
}

func TestComputeProgressIgnoresFutureOccurrencesForStreak(t *testing.T) {
	occ := dailyOccurrences(date(2025, 1, 1), 10)
	checkIns := []CheckInEvent{
		checkInOn(date(2025, 1, 2)),
		checkInOn(date(2025, 1, 3)),
	}

	// Jan 4..10 are still in the future; the streak ends at today.
	snap := ComputeProgress(occ, checkIns, date(2025, 1, 3))

	assert.Equal(t, 2, snap.CurrentStreak)
	assert.Equal(t, 10, snap.TotalOccurrences)
}

func TestComputeProgressEmpty(t *testing.T) {
	snap := ComputeProgress(nil, nil, date(2025, 1, 1))

	assert.Zero(t, snap.CompletedCount)
	assert.Zero(t, snap.TotalOccurrences)
	assert.Zero(t, snap.CurrentStreak)
	assert.Nil(t, snap.LastCompletedDate)
}

func TestComputeProgressNormalizesCheckInDates(t *testing.T) {
	occ := dailyOccurrences(date(2025, 1, 1), 2)
	checkIns := []CheckInEvent{
		{OccurrenceDate: time.Date(2025, 1, 1, 22, 15, 0, 0, time.UTC)},
	}

	snap := ComputeProgress(occ, checkIns, date(2025, 1, 1))

	assert.Equal(t, 1, snap.CompletedCount)
	assert.Equal(t, 1, snap.CurrentStreak)
}
