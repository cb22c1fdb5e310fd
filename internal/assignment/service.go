package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/praktijk-epd/scheduling/internal/clock"
	"github.com/praktijk-epd/scheduling/internal/config"
	"github.com/praktijk-epd/scheduling/internal/notify"
)

const (
	EventAssignmentCreated   = "ASSIGNMENT_CREATED"
	EventAssignmentCompleted = "ASSIGNMENT_COMPLETED"
	EventCheckInRecorded     = "CHECKIN_RECORDED"
)

// Service manages challenge and survey assignments: creation, client
// check-ins, and derived progress. Check-in lists are append-only and only
// this service appends to them.
type Service struct {
	repo Repository
	clk  clock.Clock
	sink notify.Sink
	cfg  config.Config
}

func NewService(repo Repository, clk clock.Clock, sink notify.Sink, cfg config.Config) *Service {
	if sink == nil {
		sink = notify.NopSink{}
	}
	return &Service{repo: repo, clk: clk, sink: sink, cfg: cfg}
}

type CreateRequest struct {
	TemplateID uuid.UUID
	ClientID   uuid.UUID
	AssignedBy uuid.UUID
	Recurrence *RecurrenceRule
}

// Create assigns a template to a client, optionally with a recurrence rule.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Assignment, error) {
	if req.Recurrence != nil {
		if err := req.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.CreateAssignment(ctx, Assignment{
		ID:         uuid.New(),
		TemplateID: req.TemplateID,
		ClientID:   req.ClientID,
		AssignedBy: req.AssignedBy,
		Recurrence: req.Recurrence,
		Status:     StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	s.logEvent(ctx, created.ID, EventAssignmentCreated, map[string]any{
		"template_id": req.TemplateID.String(),
		"client_id":   req.ClientID.String(),
	})
	s.emit(ctx, EventAssignmentCreated, created.ID, nil)

	return created, nil
}

// CheckIn records completion of one occurrence. The occurrence date must be
// in the assignment's expanded occurrence set up to today; a repeated
// check-in for the same date returns the existing event unchanged.
func (s *Service) CheckIn(ctx context.Context, assignmentID uuid.UUID, occurrenceDate time.Time, value *string) (*CheckInEvent, error) {
	a, err := s.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusActive {
		return nil, ErrAssignmentInactive
	}

	date := DateOnly(occurrenceDate)
	if err := s.validateOccurrence(a, date); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetCheckIn(ctx, assignmentID, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrCheckInNotFound) {
		return nil, fmt.Errorf("load check-in: %w", err)
	}

	ev, err := s.repo.InsertCheckIn(ctx, CheckInEvent{
		ID:             uuid.New(),
		AssignmentID:   assignmentID,
		OccurrenceDate: date,
		CompletedAt:    s.clk.Now(),
		Value:          value,
	})
	if err != nil {
		return nil, fmt.Errorf("insert check-in: %w", err)
	}

	s.logEvent(ctx, assignmentID, EventCheckInRecorded, map[string]any{
		"occurrence_date": date.Format("2006-01-02"),
	})
	s.emit(ctx, EventCheckInRecorded, assignmentID, map[string]any{
		"occurrence_date": date.Format("2006-01-02"),
	})

	return ev, nil
}

// validateOccurrence checks that date is one of the assignment's occurrences
// up to today. Missed past occurrences stay checkable; future dates are not
// occurrences yet and are rejected the same way as off-schedule dates.
func (s *Service) validateOccurrence(a *Assignment, date time.Time) error {
	occurrences, err := s.occurrencesUpToToday(a)
	if err != nil {
		return err
	}
	for _, occ := range occurrences {
		if occ.Equal(date) {
			return nil
		}
	}
	return ErrUnscheduledCheckIn
}

// Progress derives the current snapshot for an assignment.
func (s *Service) Progress(ctx context.Context, assignmentID uuid.UUID) (*ProgressSnapshot, error) {
	a, err := s.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.occurrencesUpToToday(a)
	if err != nil {
		return nil, err
	}

	checkIns, err := s.repo.ListCheckIns(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}

	snap := ComputeProgress(occurrences, checkIns, s.clk.Now())
	return &snap, nil
}

// occurrencesUpToToday expands the assignment's rule bounded by today. An
// assignment without a recurrence has a single occurrence on its creation
// date.
func (s *Service) occurrencesUpToToday(a *Assignment) ([]time.Time, error) {
	if a.Recurrence == nil {
		return []time.Time{DateOnly(a.CreatedAt)}, nil
	}
	return Expand(*a.Recurrence, s.clk.Now())
}

// Occurrences lists the assignment's occurrence dates up to the configured
// horizon, including future ones. Used by calendar views.
func (s *Service) Occurrences(ctx context.Context, assignmentID uuid.UUID) ([]time.Time, error) {
	a, err := s.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Recurrence == nil {
		return []time.Time{DateOnly(a.CreatedAt)}, nil
	}
	horizon := s.clk.Now().AddDate(0, 0, s.cfg.HorizonDays)
	return Expand(*a.Recurrence, horizon)
}

// CloseElapsed transitions active assignments whose recurrence window has
// fully passed to completed. Intended to be called by the worker periodically.
func (s *Service) CloseElapsed(ctx context.Context) error {
	candidates, err := s.repo.ListActiveRecurring(ctx)
	if err != nil {
		return fmt.Errorf("list active recurring assignments: %w", err)
	}

	today := DateOnly(s.clk.Now())

	for _, a := range candidates {
		if a.Recurrence == nil || !recurrenceElapsed(*a.Recurrence, today) {
			continue
		}

		_, err := s.repo.UpdateAssignmentStatus(ctx, a.ID, StatusActive, StatusCompleted)
		if err != nil {
			if errors.Is(err, ErrAssignmentNotFound) {
				// Another worker closed it first and already emitted.
				continue
			}
			log.Printf("failed to close assignment %s: %v", a.ID, err)
			continue
		}
		s.logEvent(ctx, a.ID, EventAssignmentCompleted, map[string]any{
			"reason": "recurrence_window_elapsed",
		})
		s.emit(ctx, EventAssignmentCompleted, a.ID, nil)
	}

	return nil
}

// recurrenceElapsed reports whether every occurrence the rule will ever
// produce lies strictly before today. Open-ended rules never elapse.
func recurrenceElapsed(rule RecurrenceRule, today time.Time) bool {
	if rule.EndDate != nil && DateOnly(*rule.EndDate).Before(today) {
		return true
	}
	if rule.OccurrenceCount > 0 {
		past, err := Expand(rule, today.AddDate(0, 0, -1))
		if err != nil {
			return false
		}
		return len(past) >= rule.OccurrenceCount
	}
	return false
}

func (s *Service) logEvent(ctx context.Context, assignmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	id := assignmentID

	ev := EventLog{
		EventType: eventType,
		SubjectID: &id,
		Payload:   data,
		CreatedAt: s.clk.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for assignment %s: %v", eventType, assignmentID, err)
	}
}

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
