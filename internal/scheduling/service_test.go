package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praktijk-epd/scheduling/internal/clock"
	"github.com/praktijk-epd/scheduling/internal/config"
)

// stubRepository keeps everything in memory with the same compare-and-set
// semantics as the Postgres implementation.
type stubRepository struct {
	mu           sync.Mutex
	therapists   map[uuid.UUID]*Therapist
	clients      map[uuid.UUID]*Client
	appointments map[uuid.UUID]*Appointment
	events       []EventLog

	failUpdateSlot error // when set, UpdateAppointmentSlot returns it

	// Interleaving hooks: afterGetAppointment runs after a read returns its
	// snapshot, onUpdateStatus runs before a status CAS is applied.
	afterGetAppointment func()
	onUpdateStatus      func()
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		therapists:   make(map[uuid.UUID]*Therapist),
		clients:      make(map[uuid.UUID]*Client),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (r *stubRepository) GetTherapistByID(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.therapists[id]
	if !ok {
		return nil, ErrTherapistNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	a, ok := r.appointments[id]
	var cp Appointment
	if ok {
		cp = *a
	}
	r.mu.Unlock()

	if r.afterGetAppointment != nil {
		r.afterGetAppointment()
	}

	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &cp, nil
}

func (r *stubRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	therapist, err := r.GetTherapistByID(ctx, appt.TherapistID)
	if err != nil {
		return nil, err
	}
	client, err := r.GetClientByID(ctx, appt.ClientID)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetail{Appointment: *appt, Therapist: therapist, Client: client}, nil
}

func (r *stubRepository) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appointments {
		if a.ClientID == clientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubRepository) ListActiveSlots(ctx context.Context, therapistID uuid.UUID) ([]TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []TimeSlot
	for _, a := range r.appointments {
		if a.TherapistID == therapistID && a.Status != StatusCancelled {
			out = append(out, a.Slot)
		}
	}
	return out, nil
}

func (r *stubRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	cp := appt
	r.appointments[appt.ID] = &cp
	out := appt
	return &out, nil
}

func (r *stubRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	if r.onUpdateStatus != nil {
		r.onUpdateStatus()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *stubRepository) UpdateAppointmentSlot(ctx context.Context, id uuid.UUID, slot TimeSlot) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdateSlot != nil {
		return nil, r.failUpdateSlot
	}
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Slot = slot
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *stubRepository) UpdateAppointmentInfo(ctx context.Context, id uuid.UUID, location, notes *string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if location != nil {
		a.Location = *location
	}
	if notes != nil {
		a.Notes = *notes
	}
	cp := *a
	return &cp, nil
}

func (r *stubRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *stubRepository) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventType
	}
	return out
}

// mutexLocker serializes per therapist in-process, standing in for the Redis
// locker in tests.
type mutexLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newMutexLocker() *mutexLocker {
	return &mutexLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *mutexLocker) WithTherapistLock(ctx context.Context, therapistID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[therapistID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[therapistID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		SessionDuration:     60 * time.Minute,
		BookingWindowMonths: 6,
		HorizonDays:         365,
	}
}

type serviceFixture struct {
	svc         *Service
	repo        *stubRepository
	therapistID uuid.UUID
	clientID    uuid.UUID
}

func newServiceFixture(t *testing.T, breakBetween time.Duration) *serviceFixture {
	t.Helper()

	repo := newStubRepository()
	therapistID := uuid.New()
	clientID := uuid.New()
	repo.therapists[therapistID] = &Therapist{
		ID:                   therapistID,
		Name:                 "T. de Vries",
		SessionDuration:      60 * time.Minute,
		BreakBetweenSessions: breakBetween,
	}
	repo.clients[clientID] = &Client{ID: clientID, Name: "J. Jansen"}

	svc := NewService(repo, newMutexLocker(), clock.Fixed(testNow), nil, testConfig())
	return &serviceFixture{svc: svc, repo: repo, therapistID: therapistID, clientID: clientID}
}

func (f *serviceFixture) createAt(t *testing.T, start time.Time) *Appointment {
	t.Helper()
	appt, err := f.svc.CreateAppointment(context.Background(), CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       start,
		Type:        TypeSession,
	})
	require.NoError(t, err)
	return appt
}

func TestCreateAppointmentDefaultsEndTime(t *testing.T) {
	f := newServiceFixture(t, 0)
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	appt := f.createAt(t, start)

	assert.Equal(t, StatusScheduled, appt.Status)
	assert.True(t, appt.Slot.Start.Equal(start))
	assert.True(t, appt.Slot.End.Equal(start.Add(60*time.Minute)), "end defaults to the session duration")
}

func TestCreateAppointmentConflictThenCancelThenRetry(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	first := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	// Overlapping request is refused and names the existing booking.
	_, err := f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		Type:        TypeSession,
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, conflict.Existing.Equal(first.Slot))

	// Cancelling the first frees the slot; the retried request now succeeds.
	require.NoError(t, f.svc.CancelAppointment(ctx, first.ID, "client request"))

	retried, err := f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		Type:        TypeSession,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, retried.Status)
}

func TestCreateAppointmentRespectsBreakBetweenSessions(t *testing.T) {
	f := newServiceFixture(t, 15*time.Minute)
	ctx := context.Background()

	f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	// Back-to-back is inside the buffer.
	_, err := f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
		Type:        TypeSession,
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// Fifteen minutes later clears it.
	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       time.Date(2025, 3, 10, 15, 15, 0, 0, time.UTC),
		Type:        TypeSession,
	})
	require.NoError(t, err)
}

func TestCreateAppointmentValidatesWindow(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	var vErr *ValidationError

	_, err := f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       testNow.Add(-24 * time.Hour),
		Type:        TypeSession,
	})
	require.ErrorAs(t, err, &vErr, "past bookings are rejected")

	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       testNow.AddDate(0, 7, 0),
		Type:        TypeSession,
	})
	require.ErrorAs(t, err, &vErr, "bookings beyond the window are rejected")
}

func TestCreateAppointmentUnknownParticipants(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	_, err := f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: uuid.New(),
		ClientID:    f.clientID,
		Start:       start,
	})
	assert.ErrorIs(t, err, ErrTherapistNotFound)

	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    uuid.New(),
		Start:       start,
	})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	f := newServiceFixture(t, 0)
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	const attempts = 16
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.CreateAppointment(context.Background(), CreateRequest{
				TherapistID: f.therapistID,
				ClientID:    f.clientID,
				Start:       start.Add(time.Duration(i%4) * 15 * time.Minute), // all overlap the 14:00 hour
				Type:        TypeSession,
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict, "losers must see a conflict, got %v", err)
	}
	assert.Equal(t, 1, successes, "exactly one overlapping booking may win")
}

func TestCancelAppointmentIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	require.NoError(t, f.svc.CancelAppointment(ctx, appt.ID, "no show"))
	require.NoError(t, f.svc.CancelAppointment(ctx, appt.ID, "no show"), "second cancel is a no-op")

	stored, err := f.repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestCancelAfterConcurrentRescheduleFreesCurrentSlot(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	// A reschedule lands between the cancel's initial read and its lock
	// acquisition; the cancel must free the slot the appointment holds now,
	// not the one it held when the cancel was issued.
	newStart := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	moved := false
	f.repo.afterGetAppointment = func() {
		if moved {
			return
		}
		moved = true
		_, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Start: &newStart})
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.CancelAppointment(ctx, appt.ID, "client request"))
	f.repo.afterGetAppointment = nil

	stored, err := f.repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	// Both the original and the rescheduled hour are bookable again.
	for _, start := range []time.Time{appt.Slot.Start, newStart} {
		_, err := f.svc.CreateAppointment(ctx, CreateRequest{
			TherapistID: f.therapistID,
			ClientID:    f.clientID,
			Start:       start,
			Type:        TypeSession,
		})
		require.NoError(t, err, "slot starting %s must be free after the cancel", start)
	}
}

func TestCancelRetriesAfterConcurrentConfirm(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	// A confirm slips in between the cancel's status read and its CAS. The
	// cancel must retry from the confirmed baseline instead of reporting an
	// invalid transition.
	confirmed := false
	f.repo.onUpdateStatus = func() {
		if confirmed {
			return
		}
		confirmed = true
		f.repo.mu.Lock()
		f.repo.appointments[appt.ID].Status = StatusConfirmed
		f.repo.mu.Unlock()
	}

	require.NoError(t, f.svc.CancelAppointment(ctx, appt.ID, "client request"))
	f.repo.onUpdateStatus = nil

	stored, err := f.repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	// The freed hour is bookable again.
	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       appt.Slot.Start,
		Type:        TypeSession,
	})
	require.NoError(t, err)
}

func TestCancelCompletedAppointmentFails(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	confirmed := StatusConfirmed
	_, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Status: &confirmed})
	require.NoError(t, err)

	completed := StatusCompleted
	_, err = f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Status: &completed})
	require.NoError(t, err)

	err = f.svc.CancelAppointment(ctx, appt.ID, "too late")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StatusCompleted, invalid.From)
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	confirmed := StatusConfirmed
	first, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, first.Status)

	second, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Status: &confirmed})
	require.NoError(t, err, "re-confirming must not error")
	assert.Equal(t, StatusConfirmed, second.Status)
}

func TestRescheduleMovesSlotAtomically(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))
	other := f.createAt(t, time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC))

	// Moving onto the other booking fails and keeps the original slot.
	newStart := other.Slot.Start
	_, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Start: &newStart})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	stored, err := f.repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, stored.Slot.Equal(appt.Slot), "failed reschedule must not change the slot")

	// The original slot is still held: a third booking there conflicts.
	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       appt.Slot.Start,
		Type:        TypeSession,
	})
	require.ErrorAs(t, err, &conflict)

	// Moving to a free hour succeeds and frees the old one.
	freeStart := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	moved, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Start: &freeStart})
	require.NoError(t, err)
	assert.True(t, moved.Slot.Start.Equal(freeStart))

	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       appt.Slot.Start,
		Type:        TypeSession,
	})
	require.NoError(t, err, "old slot is free after a successful reschedule")
}

func TestRescheduleRestoresIndexOnRepositoryFailure(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	f.repo.mu.Lock()
	f.repo.failUpdateSlot = errors.New("connection reset")
	f.repo.mu.Unlock()

	newStart := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	_, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Start: &newStart})
	require.Error(t, err)

	f.repo.mu.Lock()
	f.repo.failUpdateSlot = nil
	f.repo.mu.Unlock()

	// The old slot went back into the index, so it still blocks other bookings.
	var conflict *ConflictError
	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       appt.Slot.Start,
		Type:        TypeSession,
	})
	require.ErrorAs(t, err, &conflict)

	// And the target slot stayed free.
	_, err = f.svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: f.therapistID,
		ClientID:    f.clientID,
		Start:       newStart,
		Type:        TypeSession,
	})
	require.NoError(t, err)
}

func TestRescheduleTerminalAppointmentRejected(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))
	require.NoError(t, f.svc.CancelAppointment(ctx, appt.ID, ""))

	newStart := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	_, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Start: &newStart})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestCancelNoticePolicy(t *testing.T) {
	repo := newStubRepository()
	therapistID := uuid.New()
	clientID := uuid.New()
	repo.therapists[therapistID] = &Therapist{ID: therapistID, Name: "T", SessionDuration: time.Hour}
	repo.clients[clientID] = &Client{ID: clientID, Name: "C"}

	cfg := testConfig()
	cfg.CancelNotice = 24 * time.Hour
	svc := NewService(repo, newMutexLocker(), clock.Fixed(testNow), nil, cfg)
	ctx := context.Background()

	appt, err := svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: therapistID,
		ClientID:    clientID,
		Start:       testNow.Add(12 * time.Hour), // within the notice period
		Type:        TypeSession,
	})
	require.NoError(t, err)

	confirmed := StatusConfirmed
	_, err = svc.UpdateAppointment(ctx, appt.ID, UpdatePatch{Status: &confirmed})
	require.NoError(t, err)

	err = svc.CancelAppointment(ctx, appt.ID, "short notice")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr, "confirmed appointment inside the notice window may not be cancelled")

	// A scheduled (unconfirmed) appointment is not covered by the policy.
	appt2, err := svc.CreateAppointment(ctx, CreateRequest{
		TherapistID: therapistID,
		ClientID:    clientID,
		Start:       testNow.Add(15 * time.Hour),
		Type:        TypeSession,
	})
	require.NoError(t, err)
	assert.NoError(t, svc.CancelAppointment(ctx, appt2.ID, "fine"))
}

func TestFreeSlotsHonorsBookingsAndPadding(t *testing.T) {
	f := newServiceFixture(t, 15*time.Minute)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	f.createAt(t, day.Add(10*time.Hour)) // 10:00-11:00

	free, err := f.svc.FreeSlots(ctx, f.therapistID, day.Add(9*time.Hour), day.Add(13*time.Hour), 30*time.Minute)
	require.NoError(t, err)

	// Every returned slot must be bookable right now.
	for _, s := range free {
		assert.NoError(t, func() error {
			_, err := f.svc.CreateAppointment(ctx, CreateRequest{
				TherapistID: f.therapistID,
				ClientID:    f.clientID,
				Start:       s.Start,
				End:         s.End,
				Type:        TypeSession,
			})
			if err != nil {
				return err
			}
			// Undo so the next candidate is checked against the same calendar.
			appts, _ := f.repo.ListAppointmentsByClient(ctx, f.clientID, 100, 0)
			for _, a := range appts {
				if a.Slot.Equal(s) {
					require.NoError(t, f.svc.CancelAppointment(ctx, a.ID, "test cleanup"))
				}
			}
			return nil
		}())
	}

	// 10:00 and every half hour touching the padded booking are excluded.
	for _, s := range free {
		assert.False(t, s.Overlaps(TimeSlot{Start: day.Add(10 * time.Hour).Add(-15 * time.Minute), End: day.Add(11 * time.Hour).Add(15 * time.Minute)}),
			"free slot %s overlaps the padded booking", s)
	}
}

func TestFreeSlotsSkipsPast(t *testing.T) {
	f := newServiceFixture(t, 0)

	// testNow is 09:00; ask for the whole day.
	day := testNow.Truncate(24 * time.Hour)
	free, err := f.svc.FreeSlots(context.Background(), f.therapistID, day, day.Add(24*time.Hour), time.Hour)
	require.NoError(t, err)

	for _, s := range free {
		assert.False(t, s.Start.Before(testNow), "free slots must not start in the past")
	}
	assert.NotEmpty(t, free)
}

func TestEventsAreRecorded(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	appt := f.createAt(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))
	require.NoError(t, f.svc.CancelAppointment(ctx, appt.ID, "moved away"))

	types := f.repo.eventTypes()
	assert.Contains(t, types, EventAppointmentScheduled)
	assert.Contains(t, types, EventAppointmentCancelled)
}
