package scheduling

import "time"

// CheckAvailability decides whether proposed can be booked against the
// therapist's current busy intervals. Each stored interval is padded by gap on
// both sides before the overlap test, modelling the therapist's configured
// break between sessions. The padding is applied here, once, so callers cannot
// get it wrong.
//
// Returns nil when the slot is bookable, or a *ConflictError naming the first
// conflicting interval.
func CheckAvailability(idx *AvailabilityIndex, proposed TimeSlot, gap time.Duration) error {
	if existing, conflict := idx.Query(proposed, gap); conflict {
		return &ConflictError{Proposed: proposed, Existing: existing}
	}
	return nil
}
