package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praktijk-epd/scheduling/internal/clock"
	"github.com/praktijk-epd/scheduling/internal/config"
	"github.com/praktijk-epd/scheduling/internal/notify"
)

const (
	EventAppointmentScheduled   = "APPOINTMENT_SCHEDULED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
)

// Service owns the per-therapist availability indexes and serializes all
// calendar mutations. No other component is allowed to touch an index.
type Service struct {
	repo   Repository
	locker Locker
	clk    clock.Clock
	sink   notify.Sink
	cfg    config.Config

	mu        sync.Mutex
	calendars map[uuid.UUID]*calendar
}

// calendar pairs one therapist's availability index with the in-process lock
// that guards it. The index is built lazily from the repository on first use
// and maintained incrementally afterwards.
type calendar struct {
	mu     sync.Mutex
	index  *AvailabilityIndex
	loaded bool
}

func NewService(repo Repository, locker Locker, clk clock.Clock, sink notify.Sink, cfg config.Config) *Service {
	if sink == nil {
		sink = notify.NopSink{}
	}
	return &Service{
		repo:      repo,
		locker:    locker,
		clk:       clk,
		sink:      sink,
		cfg:       cfg,
		calendars: make(map[uuid.UUID]*calendar),
	}
}

func (s *Service) calendarFor(therapistID uuid.UUID) *calendar {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[therapistID]
	if !ok {
		cal = &calendar{index: NewAvailabilityIndex()}
		s.calendars[therapistID] = cal
	}
	return cal
}

// withCalendar runs fn under both the distributed per-therapist lock and the
// in-process calendar mutex. Lock contention maps to ErrTherapistBusy and a
// blown critical-section deadline to ErrSchedulingTimeout; in both cases no
// partial state has been applied.
func (s *Service) withCalendar(ctx context.Context, therapistID uuid.UUID, fn func(ctx context.Context, idx *AvailabilityIndex) error) error {
	cal := s.calendarFor(therapistID)

	err := s.locker.WithTherapistLock(ctx, therapistID, func(lockCtx context.Context) error {
		cal.mu.Lock()
		defer cal.mu.Unlock()

		if !cal.loaded {
			slots, err := s.repo.ListActiveSlots(lockCtx, therapistID)
			if err != nil {
				return fmt.Errorf("load busy slots: %w", err)
			}
			for _, slot := range slots {
				if err := cal.index.Insert(slot); err != nil {
					return fmt.Errorf("rebuild availability index: %w", err)
				}
			}
			cal.loaded = true
		}

		return fn(lockCtx, cal.index)
	})

	switch {
	case errors.Is(err, ErrLockNotAcquired):
		return ErrTherapistBusy
	case errors.Is(err, context.DeadlineExceeded):
		return ErrSchedulingTimeout
	}
	return err
}

type CreateRequest struct {
	TherapistID uuid.UUID
	ClientID    uuid.UUID
	Start       time.Time
	// End is optional; when zero the therapist's session duration (or the
	// configured default) determines it.
	End      time.Time
	Type     AppointmentType
	Location string
	Notes    string
}

// CreateAppointment books a conflict-free slot for a therapist. The conflict
// check and the insert run as one atomic unit per therapist, so concurrent
// requests for overlapping slots cannot both succeed.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if _, err := s.repo.GetClientByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	therapist, err := s.repo.GetTherapistByID(ctx, req.TherapistID)
	if err != nil {
		if errors.Is(err, ErrTherapistNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load therapist: %w", err)
	}

	end := req.End
	if end.IsZero() {
		end = req.Start.Add(s.sessionDuration(therapist))
	}

	slot, err := NewTimeSlot(req.Start, end)
	if err != nil {
		return nil, err
	}
	if err := s.validateBookingWindow(slot); err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.withCalendar(ctx, req.TherapistID, func(lockCtx context.Context, idx *AvailabilityIndex) error {
		if err := CheckAvailability(idx, slot, therapist.BreakBetweenSessions); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:          uuid.New(),
			TherapistID: req.TherapistID,
			ClientID:    req.ClientID,
			Slot:        slot,
			Type:        req.Type,
			Location:    req.Location,
			Status:      StatusScheduled,
			Notes:       req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		// Index insert happens only after the row committed.
		if err := idx.Insert(slot); err != nil {
			return fmt.Errorf("index booked slot: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentScheduled, map[string]any{
			"therapist_id": req.TherapistID.String(),
			"client_id":    req.ClientID.String(),
			"start":        slot.Start,
			"end":          slot.End,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, EventAppointmentScheduled, created.ID, map[string]any{
		"therapist_id": created.TherapistID.String(),
		"start":        created.Slot.Start,
	})
	return created, nil
}

type UpdatePatch struct {
	Status   *AppointmentStatus
	Start    *time.Time
	End      *time.Time
	Location *string
	Notes    *string
}

// UpdateAppointment applies a patch. Status changes go through the state
// machine; a slot change is remove-check-insert as one atomic unit, rolled
// back entirely when the new slot conflicts or the write fails.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Start != nil || patch.End != nil {
		appt, err = s.reschedule(ctx, appt, patch)
		if err != nil {
			return nil, err
		}
	}

	if patch.Status != nil {
		appt, err = s.applyStatus(ctx, appt, *patch.Status)
		if err != nil {
			return nil, err
		}
	}

	if patch.Location != nil || patch.Notes != nil {
		appt, err = s.repo.UpdateAppointmentInfo(ctx, id, patch.Location, patch.Notes)
		if err != nil {
			return nil, fmt.Errorf("update appointment info: %w", err)
		}
	}

	return appt, nil
}

func (s *Service) reschedule(ctx context.Context, appt *Appointment, patch UpdatePatch) (*Appointment, error) {
	therapist, err := s.repo.GetTherapistByID(ctx, appt.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("load therapist: %w", err)
	}

	var updated *Appointment
	var moved bool

	err = s.withCalendar(ctx, appt.TherapistID, func(lockCtx context.Context, idx *AvailabilityIndex) error {
		// The caller's read happened outside the lock; work from a fresh row
		// so a cancel or reschedule that landed in between cannot desync the
		// index.
		current, err := s.repo.GetAppointmentByID(lockCtx, appt.ID)
		if err != nil {
			return err
		}
		if IsTerminal(current.Status) {
			return &ValidationError{Field: "slot", Reason: fmt.Sprintf("cannot reschedule a %s appointment", current.Status)}
		}

		start := current.Slot.Start
		if patch.Start != nil {
			start = *patch.Start
		}
		var end time.Time
		switch {
		case patch.End != nil:
			end = *patch.End
		case patch.Start != nil:
			// Start moved without an explicit end: keep the default duration.
			end = start.Add(s.sessionDuration(therapist))
		default:
			end = current.Slot.End
		}

		newSlot, err := NewTimeSlot(start, end)
		if err != nil {
			return err
		}
		if newSlot.Equal(current.Slot) {
			updated = current
			return nil
		}
		if err := s.validateBookingWindow(newSlot); err != nil {
			return err
		}

		oldSlot := current.Slot
		if err := idx.Remove(oldSlot); err != nil {
			return fmt.Errorf("release old slot: %w", err)
		}

		restore := func() {
			if err := idx.Insert(oldSlot); err != nil {
				log.Printf("restore slot %s for appointment %s: %v", oldSlot, current.ID, err)
			}
		}

		if err := CheckAvailability(idx, newSlot, therapist.BreakBetweenSessions); err != nil {
			restore()
			return err
		}

		row, err := s.repo.UpdateAppointmentSlot(lockCtx, current.ID, newSlot)
		if err != nil {
			restore()
			return fmt.Errorf("update appointment slot: %w", err)
		}

		if err := idx.Insert(newSlot); err != nil {
			return fmt.Errorf("index rescheduled slot: %w", err)
		}

		updated = row
		moved = true
		s.logEvent(lockCtx, current.ID, EventAppointmentRescheduled, map[string]any{
			"old_start": oldSlot.Start,
			"new_start": newSlot.Start,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.emit(ctx, EventAppointmentRescheduled, updated.ID, map[string]any{
			"new_start": updated.Slot.Start,
		})
	}
	return updated, nil
}

func (s *Service) applyStatus(ctx context.Context, appt *Appointment, to AppointmentStatus) (*Appointment, error) {
	if to == StatusCancelled {
		if err := s.cancel(ctx, appt.TherapistID, appt.ID, ""); err != nil {
			return nil, err
		}
		return s.repo.GetAppointmentByID(ctx, appt.ID)
	}

	changed, err := Transition(appt.Status, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Idempotent retry of confirm/complete.
		return appt, nil
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with a concurrent transition; re-read and let the
			// state machine judge the new baseline.
			current, readErr := s.repo.GetAppointmentByID(ctx, appt.ID)
			if readErr != nil {
				return nil, readErr
			}
			if current.Status == to {
				return current, nil
			}
			return nil, &InvalidTransitionError{From: current.Status, To: to}
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	event := EventAppointmentConfirmed
	if to == StatusCompleted {
		event = EventAppointmentCompleted
	}
	s.logEvent(ctx, updated.ID, event, map[string]any{})
	s.emit(ctx, event, updated.ID, nil)

	return updated, nil
}

// CancelAppointment transitions the appointment to cancelled and frees its
// slot. Cancelling an already-cancelled appointment is a no-op success.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	return s.cancel(ctx, appt.TherapistID, id, reason)
}

// cancel re-reads the appointment inside the calendar critical section, so the
// slot it frees is the appointment's current slot even when a reschedule
// landed after the caller's read. A CAS lost to a concurrent status change is
// retried from the fresh baseline; the state machine decides whether the new
// baseline still permits cancelling.
func (s *Service) cancel(ctx context.Context, therapistID, id uuid.UUID, reason string) error {
	var cancelled bool

	err := s.withCalendar(ctx, therapistID, func(lockCtx context.Context, idx *AvailabilityIndex) error {
		for {
			appt, err := s.repo.GetAppointmentByID(lockCtx, id)
			if err != nil {
				return err
			}
			if appt.Status == StatusCancelled {
				return nil
			}
			if _, err := Transition(appt.Status, StatusCancelled); err != nil {
				return err
			}
			if err := s.checkCancelNotice(appt); err != nil {
				return err
			}

			_, err = s.repo.UpdateAppointmentStatus(lockCtx, appt.ID, appt.Status, StatusCancelled)
			if errors.Is(err, ErrAppointmentNotFound) {
				// Lost the CAS to a concurrent transition (confirm runs
				// outside the calendar lock); re-read and judge again.
				continue
			}
			if err != nil {
				return fmt.Errorf("cancel appointment: %w", err)
			}

			if err := idx.Remove(appt.Slot); err != nil && !errors.Is(err, ErrSlotNotIndexed) {
				return fmt.Errorf("free cancelled slot: %w", err)
			}

			cancelled = true
			s.logEvent(lockCtx, appt.ID, EventAppointmentCancelled, map[string]any{
				"reason": reason,
			})
			return nil
		}
	})
	if err != nil {
		return err
	}

	if cancelled {
		s.emit(ctx, EventAppointmentCancelled, id, map[string]any{"reason": reason})
	}
	return nil
}

// checkCancelNotice enforces the optional minimum-notice policy for cancelling
// confirmed appointments. Disabled when CancelNotice is zero.
func (s *Service) checkCancelNotice(appt *Appointment) error {
	if s.cfg.CancelNotice <= 0 || appt.Status != StatusConfirmed {
		return nil
	}
	if appt.Slot.Start.Sub(s.clk.Now()) < s.cfg.CancelNotice {
		return &ValidationError{
			Field:  "cancellation",
			Reason: fmt.Sprintf("confirmed appointments require %s notice to cancel", s.cfg.CancelNotice),
		}
	}
	return nil
}

// FreeSlots returns bookable slots for the therapist within [from, to),
// stepping candidate start times by granularity. Every candidate passes the
// same padded conflict check used for booking, so a returned slot is never one
// that CreateAppointment would then reject.
func (s *Service) FreeSlots(ctx context.Context, therapistID uuid.UUID, from, to time.Time, granularity time.Duration) ([]TimeSlot, error) {
	therapist, err := s.repo.GetTherapistByID(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, &ValidationError{Field: "range", Reason: "to must be after from"}
	}
	if granularity <= 0 {
		granularity = s.sessionDuration(therapist)
	}

	sessionLen := s.sessionDuration(therapist)
	now := s.clk.Now()

	var free []TimeSlot
	err = s.withCalendar(ctx, therapistID, func(lockCtx context.Context, idx *AvailabilityIndex) error {
		for start := from; !start.Add(sessionLen).After(to); start = start.Add(granularity) {
			if start.Before(now) {
				continue
			}
			candidate := TimeSlot{Start: start, End: start.Add(sessionLen)}
			if CheckAvailability(idx, candidate, therapist.BreakBetweenSessions) == nil {
				free = append(free, candidate)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return free, nil
}

// GetAppointment retrieves a fully hydrated appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ListAppointmentsByClient retrieves appointments for a specific client.
func (s *Service) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appointments, err := s.repo.ListAppointmentsByClient(ctx, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by client: %w", err)
	}
	return appointments, nil
}

func (s *Service) sessionDuration(t *Therapist) time.Duration {
	if t.SessionDuration > 0 {
		return t.SessionDuration
	}
	return s.cfg.SessionDuration
}

func (s *Service) validateBookingWindow(slot TimeSlot) error {
	now := s.clk.Now()
	if slot.Start.Before(now) {
		return &ValidationError{Field: "start", Reason: "appointment cannot start in the past"}
	}
	horizon := now.AddDate(0, s.cfg.BookingWindowMonths, 0)
	if slot.Start.After(horizon) {
		return &ValidationError{
			Field:  "start",
			Reason: fmt.Sprintf("appointment cannot start more than %d months ahead", s.cfg.BookingWindowMonths),
		}
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType: eventType,
		SubjectID: &apptID,
		Payload:   data,
		CreatedAt: s.clk.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

// emit is fire-and-forget; a sink failure never affects the outcome of the
// operation that triggered it.
func (s *Service) emit(ctx context.Context, eventType string, subjectID uuid.UUID, payload map[string]any) {
	ev := notify.Event{
		Type:       eventType,
		SubjectID:  subjectID,
		OccurredAt: s.clk.Now(),
		Payload:    payload,
	}
	if err := s.sink.Notify(ctx, ev); err != nil {
		log.Printf("notification sink failed for %s on %s: %v", eventType, subjectID, err)
	}
}
