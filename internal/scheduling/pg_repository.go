package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanTherapist(row pgx.Row) (*Therapist, error) {
	var t Therapist
	var email *string
	var sessionMinutes, breakMinutes int

	err := row.Scan(
		&t.ID,
		&t.Name,
		&email,
		&sessionMinutes,
		&breakMinutes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}

	t.Email = email
	t.SessionDuration = time.Duration(sessionMinutes) * time.Minute
	t.BreakBetweenSessions = time.Duration(breakMinutes) * time.Minute
	return &t, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var email *string

	err := row.Scan(
		&c.ID,
		&c.Name,
		&email,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	c.Email = email
	return &c, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.TherapistID,
		&a.ClientID,
		&a.Slot.Start,
		&a.Slot.End,
		&a.Type,
		&a.Location,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

const appointmentColumns = `id, therapist_id, client_id, start_time, end_time, appointment_type, location, status, notes, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetTherapistByID(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, session_duration_minutes, break_minutes, created_at, updated_at
		FROM therapists
		WHERE id = $1
	`, id)
	return scanTherapist(row)
}

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	therapist, err := r.GetTherapistByID(ctx, appt.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("load therapist for appointment %s: %w", id, err)
	}
	client, err := r.GetClientByID(ctx, appt.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client for appointment %s: %w", id, err)
	}

	return &AppointmentDetail{
		Appointment: *appt,
		Therapist:   therapist,
		Client:      client,
	}, nil
}

func (r *PgRepository) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListActiveSlots(ctx context.Context, therapistID uuid.UUID) ([]TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE therapist_id = $1
		  AND status <> 'cancelled'
		ORDER BY start_time
	`, therapistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeSlot
	for rows.Next() {
		var s TimeSlot
		if err := rows.Scan(&s.Start, &s.End); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, therapist_id, client_id, start_time, end_time, appointment_type, location, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.TherapistID, appt.ClientID, appt.Slot.Start, appt.Slot.End, appt.Type, appt.Location, appt.Status, appt.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentSlot(ctx context.Context, id uuid.UUID, slot TimeSlot) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    end_time = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, slot.Start, slot.End)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentInfo(ctx context.Context, id uuid.UUID, location, notes *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET location = COALESCE($2, location),
		    notes = COALESCE($3, notes),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, location, notes)

	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, subject_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.SubjectID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
