package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentType string

const (
	TypeIntake    AppointmentType = "intake"
	TypeSession   AppointmentType = "session"
	TypeFollowUp  AppointmentType = "follow_up"
	TypeTelephone AppointmentType = "telephone"
)

type Therapist struct {
	ID                   uuid.UUID
	Name                 string
	Email                *string
	SessionDuration      time.Duration
	BreakBetweenSessions time.Duration
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Client struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID          uuid.UUID
	TherapistID uuid.UUID
	ClientID    uuid.UUID
	Slot        TimeSlot
	Type        AppointmentType
	Location    string
	Status      AppointmentStatus
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventLog struct {
	ID        int64
	EventType string
	SubjectID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

type AppointmentDetail struct {
	Appointment
	Therapist *Therapist
	Client    *Client
}
