package assignment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentInactive = errors.New("assignment is not active")
	ErrCheckInNotFound    = errors.New("check-in not found")

	// ErrUnscheduledCheckIn rejects a check-in for a date that is not an
	// occurrence of the assignment's recurrence.
	ErrUnscheduledCheckIn = errors.New("no occurrence scheduled on that date")
)

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"
)

// RecurrenceRule drives occurrence expansion. Exactly one of EndDate or
// OccurrenceCount may bound the rule; when neither does, expansion is bounded
// by the caller's horizon.
type RecurrenceRule struct {
	Frequency       Frequency
	StartDate       time.Time
	EndDate         *time.Time
	OccurrenceCount int // 0 means unbounded
	// DayOfWeek overrides the weekday for weekly and biweekly rules; when nil
	// the weekday of StartDate is used.
	DayOfWeek *time.Weekday
}

func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
	default:
		return &RuleError{Reason: fmt.Sprintf("unknown frequency %q", r.Frequency)}
	}
	if r.StartDate.IsZero() {
		return &RuleError{Reason: "start date is required"}
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return &RuleError{Reason: "end date must not be before start date"}
	}
	if r.OccurrenceCount < 0 {
		return &RuleError{Reason: "occurrence count must not be negative"}
	}
	return nil
}

// RuleError rejects a malformed recurrence rule.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string {
	return "invalid recurrence rule: " + e.Reason
}

type Assignment struct {
	ID         uuid.UUID
	TemplateID uuid.UUID
	ClientID   uuid.UUID
	AssignedBy uuid.UUID
	Recurrence *RecurrenceRule
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CheckInEvent records one completed occurrence. Immutable once written;
// at most one exists per (assignment, occurrence date).
type CheckInEvent struct {
	ID             uuid.UUID
	AssignmentID   uuid.UUID
	OccurrenceDate time.Time
	CompletedAt    time.Time
	Value          *string
}

// ProgressSnapshot is derived on demand from check-ins and the expanded
// occurrence list. Never persisted, so it cannot drift from its inputs.
type ProgressSnapshot struct {
	CompletedCount    int
	TotalOccurrences  int
	CurrentStreak     int
	LastCompletedDate *time.Time
}

// DateOnly truncates t to midnight UTC. Occurrence dates and check-in dates
// are always compared in this form.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
