package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventLog mirrors the shared event_logs audit table.
type EventLog struct {
	ID        int64
	EventType string
	SubjectID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

// Repository contains all DB interactions needed by the service. Check-ins
// are append-only; nothing ever updates or deletes one.
type Repository interface {
	GetAssignmentByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	CreateAssignment(ctx context.Context, a Assignment) (*Assignment, error)
	// UpdateAssignmentStatus applies a compare-and-set status change and
	// returns ErrAssignmentNotFound when no row matched (id, from).
	UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Assignment, error)
	// ListActiveRecurring returns active assignments that carry a bounded
	// recurrence rule, for the lifecycle worker.
	ListActiveRecurring(ctx context.Context) ([]Assignment, error)

	ListCheckIns(ctx context.Context, assignmentID uuid.UUID) ([]CheckInEvent, error)
	GetCheckIn(ctx context.Context, assignmentID uuid.UUID, occurrenceDate time.Time) (*CheckInEvent, error)
	// InsertCheckIn appends a check-in. When one already exists for the same
	// (assignment, occurrence date) the existing event is returned unchanged.
	InsertCheckIn(ctx context.Context, ev CheckInEvent) (*CheckInEvent, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
