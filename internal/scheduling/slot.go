package scheduling

import (
	"fmt"
	"time"
)

// TimeSlot is a half-open interval [Start, End). All slot arithmetic in the
// scheduler goes through this type.
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// NewTimeSlot builds a slot, rejecting zero-or-negative length intervals.
func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if !start.Before(end) {
		return TimeSlot{}, &ValidationError{Field: "slot", Reason: fmt.Sprintf("end %s must be after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))}
	}
	return TimeSlot{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open intervals intersect.
// Back-to-back slots ([9,10) and [10,11)) do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// Contains reports whether the instant falls inside the slot.
func (s TimeSlot) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Padded widens the slot by gap on both sides. Used to model a therapist's
// required break between consecutive sessions.
func (s TimeSlot) Padded(gap time.Duration) TimeSlot {
	if gap <= 0 {
		return s
	}
	return TimeSlot{Start: s.Start.Add(-gap), End: s.End.Add(gap)}
}

// Equal compares slots by instant, not by location.
func (s TimeSlot) Equal(o TimeSlot) bool {
	return s.Start.Equal(o.Start) && s.End.Equal(o.End)
}

func (s TimeSlot) IsZero() bool {
	return s.Start.IsZero() && s.End.IsZero()
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("[%s, %s)", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
}
