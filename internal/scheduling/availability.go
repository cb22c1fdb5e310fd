package scheduling

import (
	"sort"
	"time"
)

// AvailabilityIndex holds the busy intervals of one therapist, sorted by start
// time. Entries never overlap, so a query only has to look at the neighbours
// of the binary-search insertion point instead of scanning the whole set.
//
// The index is not safe for concurrent use; Service serializes access per
// therapist.
type AvailabilityIndex struct {
	slots []TimeSlot
}

func NewAvailabilityIndex() *AvailabilityIndex {
	return &AvailabilityIndex{}
}

func (idx *AvailabilityIndex) Len() int {
	return len(idx.slots)
}

// Slots returns a copy of the busy intervals in start order.
func (idx *AvailabilityIndex) Slots() []TimeSlot {
	out := make([]TimeSlot, len(idx.slots))
	copy(out, idx.slots)
	return out
}

// searchStart returns the index of the first stored slot whose start is not
// before t.
func (idx *AvailabilityIndex) searchStart(t TimeSlot) int {
	return sort.Search(len(idx.slots), func(i int) bool {
		return !idx.slots[i].Start.Before(t.Start)
	})
}

// Query reports whether proposed overlaps any stored interval, padded by gap
// on both sides, and returns the first conflicting interval if so.
func (idx *AvailabilityIndex) Query(proposed TimeSlot, gap time.Duration) (TimeSlot, bool) {
	i := idx.searchStart(proposed)

	// Every stored slot before i starts before proposed does. Since entries
	// do not overlap, their end times are ordered too, so only the closest
	// left neighbour can still reach into the proposed interval.
	if i > 0 && idx.slots[i-1].Padded(gap).Overlaps(proposed) {
		return idx.slots[i-1], true
	}

	// To the right, padding can let more than one entry qualify; walk until
	// the padded start clears the proposed end.
	for j := i; j < len(idx.slots); j++ {
		padded := idx.slots[j].Padded(gap)
		if !padded.Start.Before(proposed.End) {
			break
		}
		if padded.Overlaps(proposed) {
			return idx.slots[j], true
		}
	}

	return TimeSlot{}, false
}

// Insert adds a busy interval. The index is the single source of truth for
// "is this therapist free", so it re-checks for overlap even though callers
// are expected to have run the conflict check already.
func (idx *AvailabilityIndex) Insert(slot TimeSlot) error {
	if existing, conflict := idx.Query(slot, 0); conflict {
		return &ConflictError{Proposed: slot, Existing: existing}
	}

	i := idx.searchStart(slot)
	idx.slots = append(idx.slots, TimeSlot{})
	copy(idx.slots[i+1:], idx.slots[i:])
	idx.slots[i] = slot
	return nil
}

// Remove deletes exactly one interval equal to slot. Cancellation goes
// through here to free the therapist's time.
func (idx *AvailabilityIndex) Remove(slot TimeSlot) error {
	i := idx.searchStart(slot)
	if i >= len(idx.slots) || !idx.slots[i].Equal(slot) {
		return ErrSlotNotIndexed
	}
	idx.slots = append(idx.slots[:i], idx.slots[i+1:]...)
	return nil
}
