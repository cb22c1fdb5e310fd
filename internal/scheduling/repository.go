package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetTherapistByID(ctx context.Context, id uuid.UUID) (*Therapist, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error)

	// ListActiveSlots returns the busy intervals of every non-cancelled
	// appointment for the therapist, ordered by start time. Used to build
	// the availability index once per therapist; after that the index is
	// maintained incrementally.
	ListActiveSlots(ctx context.Context, therapistID uuid.UUID) ([]TimeSlot, error)

	CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error)
	// UpdateAppointmentStatus applies a compare-and-set status change and
	// returns ErrAppointmentNotFound when no row matched (id, from).
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	UpdateAppointmentSlot(ctx context.Context, id uuid.UUID, slot TimeSlot) (*Appointment, error)
	UpdateAppointmentInfo(ctx context.Context, id uuid.UUID, location, notes *string) (*Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
