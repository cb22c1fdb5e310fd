package assignment

import "time"

// ComputeProgress derives a snapshot from the expanded occurrence list and the
// recorded check-ins. Pure; safe for any number of concurrent readers.
//
// CompletedCount matches check-ins to occurrences by date, not insertion
// order. CurrentStreak walks backward from the most recent occurrence not
// after today, counting consecutive completed occurrences and stopping at the
// first gap.
func ComputeProgress(occurrences []time.Time, checkIns []CheckInEvent, today time.Time) ProgressSnapshot {
	completed := make(map[time.Time]bool, len(checkIns))
	for _, ci := range checkIns {
		completed[DateOnly(ci.OccurrenceDate)] = true
	}

	snap := ProgressSnapshot{TotalOccurrences: len(occurrences)}

	cutoff := DateOnly(today)
	lastDue := -1 // index of the most recent occurrence on or before today

	for i, occ := range occurrences {
		d := DateOnly(occ)
		if completed[d] {
			snap.CompletedCount++
			last := d
			snap.LastCompletedDate = &last
		}
		if !d.After(cutoff) {
			lastDue = i
		}
	}

	for i := lastDue; i >= 0; i-- {
		if !completed[DateOnly(occurrences[i])] {
			break
		}
		snap.CurrentStreak++
	}

	return snap
}
