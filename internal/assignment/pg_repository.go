package assignment

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

// scanAssignment reads the flattened recurrence columns back into a rule.
// frequency NULL means the assignment has no recurrence.
func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	var frequency *string
	var startDate, endDate *time.Time
	var occurrenceCount *int
	var dayOfWeek *int

	err := row.Scan(
		&a.ID,
		&a.TemplateID,
		&a.ClientID,
		&a.AssignedBy,
		&frequency,
		&startDate,
		&endDate,
		&occurrenceCount,
		&dayOfWeek,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if frequency != nil {
		rule := RecurrenceRule{Frequency: Frequency(*frequency)}
		if startDate != nil {
			rule.StartDate = *startDate
		}
		rule.EndDate = endDate
		if occurrenceCount != nil {
			rule.OccurrenceCount = *occurrenceCount
		}
		if dayOfWeek != nil {
			wd := time.Weekday(*dayOfWeek)
			rule.DayOfWeek = &wd
		}
		a.Recurrence = &rule
	}

	return &a, nil
}

func scanCheckIn(row pgx.Row) (*CheckInEvent, error) {
	var ev CheckInEvent
	var value *string

	err := row.Scan(
		&ev.ID,
		&ev.AssignmentID,
		&ev.OccurrenceDate,
		&ev.CompletedAt,
		&value,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCheckInNotFound
		}
		return nil, err
	}

	ev.Value = value
	return &ev, nil
}

const assignmentColumns = `id, template_id, client_id, assigned_by, frequency, start_date, end_date, occurrence_count, day_of_week, status, created_at, updated_at`

func ruleColumns(r *RecurrenceRule) (frequency *string, startDate, endDate *time.Time, occurrenceCount, dayOfWeek *int) {
	if r == nil {
		return nil, nil, nil, nil, nil
	}
	f := string(r.Frequency)
	frequency = &f
	sd := r.StartDate
	startDate = &sd
	endDate = r.EndDate
	if r.OccurrenceCount > 0 {
		n := r.OccurrenceCount
		occurrenceCount = &n
	}
	if r.DayOfWeek != nil {
		d := int(*r.DayOfWeek)
		dayOfWeek = &d
	}
	return
}

// Interface methods

func (r *PgRepository) GetAssignmentByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE id = $1
	`, id)
	return scanAssignment(row)
}

func (r *PgRepository) CreateAssignment(ctx context.Context, a Assignment) (*Assignment, error) {
	frequency, startDate, endDate, occurrenceCount, dayOfWeek := ruleColumns(a.Recurrence)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO assignments (id, template_id, client_id, assigned_by, frequency, start_date, end_date, occurrence_count, day_of_week, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+assignmentColumns+`
	`, a.ID, a.TemplateID, a.ClientID, a.AssignedBy, frequency, startDate, endDate, occurrenceCount, dayOfWeek, a.Status)

	return scanAssignment(row)
}

func (r *PgRepository) UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE assignments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+assignmentColumns+`
	`, id, to, from)

	return scanAssignment(row)
}

func (r *PgRepository) ListActiveRecurring(ctx context.Context) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE status = 'active'
		  AND frequency IS NOT NULL
		  AND (end_date IS NOT NULL OR occurrence_count IS NOT NULL)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
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

func (r *PgRepository) ListCheckIns(ctx context.Context, assignmentID uuid.UUID) ([]CheckInEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, assignment_id, occurrence_date, completed_at, value
		FROM check_ins
		WHERE assignment_id = $1
		ORDER BY occurrence_date
	`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CheckInEvent
	for rows.Next() {
		ev, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetCheckIn(ctx context.Context, assignmentID uuid.UUID, occurrenceDate time.Time) (*CheckInEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, assignment_id, occurrence_date, completed_at, value
		FROM check_ins
		WHERE assignment_id = $1
		  AND occurrence_date = $2
	`, assignmentID, occurrenceDate)
	return scanCheckIn(row)
}

// InsertCheckIn relies on the unique index on (assignment_id, occurrence_date)
// so a duplicate check-in can never be written, even by racing requests.
func (r *PgRepository) InsertCheckIn(ctx context.Context, ev CheckInEvent) (*CheckInEvent, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO check_ins (id, assignment_id, occurrence_date, completed_at, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assignment_id, occurrence_date) DO NOTHING
	`, ev.ID, ev.AssignmentID, ev.OccurrenceDate, ev.CompletedAt, ev.Value)
	if err != nil {
		return nil, fmt.Errorf("insert check-in: %w", err)
	}

	return r.GetCheckIn(ctx, ev.AssignmentID, ev.OccurrenceDate)
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
