package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrTherapistNotFound   = errors.New("therapist not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrTherapistBusy means another booking for the same therapist holds the
	// calendar lock. Safe to retry.
	ErrTherapistBusy = errors.New("therapist calendar is being modified, please retry")

	// ErrSchedulingTimeout means the critical section expired before the
	// operation committed. No partial state was applied; safe to retry.
	ErrSchedulingTimeout = errors.New("scheduling operation timed out")

	// ErrSlotNotIndexed is returned when removing an interval that is not in
	// the availability index.
	ErrSlotNotIndexed = errors.New("slot not present in availability index")

	// ErrLockNotAcquired is returned by a Locker when the per-therapist lock
	// is already held.
	ErrLockNotAcquired = errors.New("therapist lock not acquired")
)

// ValidationError rejects bad input before any shared state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports that a proposed slot collides with an existing booking.
// Existing names the first conflicting interval, including buffer padding.
type ConflictError struct {
	Proposed TimeSlot
	Existing TimeSlot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s conflicts with existing booking %s", e.Proposed, e.Existing)
}

// InvalidTransitionError reports an appointment status change that the state
// machine does not permit.
type InvalidTransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
