package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	TherapistID string     `json:"therapist_id"`
	ClientID    string     `json:"client_id"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	Type        string     `json:"type"`
	Location    string     `json:"location,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type UpdateAppointmentRequest struct {
	Status   *string    `json:"status,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Location *string    `json:"location,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	TherapistID uuid.UUID `json:"therapist_id"`
	ClientID    uuid.UUID `json:"client_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        string    `json:"type"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
}

type TimeSlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CreateAssignmentRequest struct {
	TemplateID string                 `json:"template_id"`
	ClientID   string                 `json:"client_id"`
	AssignedBy string                 `json:"assigned_by"`
	Recurrence *RecurrenceRuleRequest `json:"recurrence,omitempty"`
}

type RecurrenceRuleRequest struct {
	Frequency       string     `json:"frequency"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	OccurrenceCount int        `json:"occurrence_count,omitempty"`
	DayOfWeek       *int       `json:"day_of_week,omitempty"`
}

type AssignmentResponse struct {
	ID         uuid.UUID              `json:"id"`
	TemplateID uuid.UUID              `json:"template_id"`
	ClientID   uuid.UUID              `json:"client_id"`
	AssignedBy uuid.UUID              `json:"assigned_by"`
	Status     string                 `json:"status"`
	Recurrence *RecurrenceRuleRequest `json:"recurrence,omitempty"`
}

type CheckInRequest struct {
	OccurrenceDate string  `json:"occurrence_date"` // YYYY-MM-DD
	Value          *string `json:"value,omitempty"`
}

type CheckInResponse struct {
	ID             uuid.UUID `json:"id"`
	AssignmentID   uuid.UUID `json:"assignment_id"`
	OccurrenceDate string    `json:"occurrence_date"`
	CompletedAt    time.Time `json:"completed_at"`
	Value          *string   `json:"value,omitempty"`
}

type ProgressResponse struct {
	CompletedCount    int     `json:"completed_count"`
	TotalOccurrences  int     `json:"total_occurrences"`
	CurrentStreak     int     `json:"current_streak"`
	LastCompletedDate *string `json:"last_completed_date,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
