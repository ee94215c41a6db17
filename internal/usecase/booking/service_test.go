package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/domain/booking"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/session"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
	appointmentuc "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
)

type fakeCatalog struct{}

func (fakeCatalog) GetBarber(_ context.Context, id uint) (*models.Barber, error) {
	switch id {
	case 1:
		return &models.Barber{ID: 1, Name: "Ana", IsActive: true}, nil
	case 2:
		return &models.Barber{ID: 2, Name: "Bruno"}, nil
	}
	return nil, httperr.ErrNotFound("barber_not_found")
}

func (fakeCatalog) GetService(_ context.Context, id uint) (*models.Service, error) {
	if id == 1 {
		return &models.Service{ID: 1, Name: "Corte", DurationMinutes: 30, IsActive: true}, nil
	}
	return nil, httperr.ErrNotFound("service_not_found")
}

// fakeAvailability shows every grid slot free except the booked ones.
type fakeAvailability struct {
	booked []models.Appointment
}

func (a *fakeAvailability) Execute(_ context.Context, barberID uint, date string) (*appointmentuc.AvailabilityOutput, error) {
	day, err := timeofday.ParseDate(date)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date")
	}
	b := &models.Barber{ID: barberID, IsActive: true}
	early := day.Add(-24 * time.Hour)
	return &appointmentuc.AvailabilityOutput{
		BarberID: barberID,
		Date:     date,
		Slots:    domain.Slots(domain.StandardGrid(), b, day, a.booked, early),
	}, nil
}

type fakeBooker struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (b *fakeBooker) Book(_ context.Context, in appointmentuc.CreateAppointmentInput) (*models.Appointment, error) {
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return &models.Appointment{ID: 77, BarberID: in.BarberID}, nil
}

func newService(booker *fakeBooker, avail *fakeAvailability) *Service {
	return NewService(
		session.NewMemoryStore(time.Hour),
		booker,
		fakeCatalog{},
		avail,
		timezone.FixedClock{At: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
}

func readyFlow(t *testing.T, s *Service) *booking.Flow {
	t.Helper()
	ctx := context.Background()

	f, err := s.Start(ctx)
	require.NoError(t, err)
	_, err = s.SelectService(ctx, f.ID, 1)
	require.NoError(t, err)
	_, err = s.SelectBarber(ctx, f.ID, 1)
	require.NoError(t, err)
	_, err = s.SelectSlot(ctx, f.ID, "2026-03-15", "10:00")
	require.NoError(t, err)
	f, err = s.SetClient(ctx, f.ID, "Carlos", "11988887777", "")
	require.NoError(t, err)
	return f
}

func TestSubmitSuccess(t *testing.T) {
	booker := &fakeBooker{}
	s := newService(booker, &fakeAvailability{})

	f := readyFlow(t, s)
	done, err := s.Submit(context.Background(), f.ID)
	require.NoError(t, err)

	assert.Equal(t, booking.StepSuccess, done.Step)
	assert.Equal(t, uint(77), done.AppointmentID)

	stored, err := s.Get(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSuccess, stored.Step)
}

func TestSubmitWithoutClientInfoNeverBooks(t *testing.T) {
	booker := &fakeBooker{}
	s := newService(booker, &fakeAvailability{})
	f := readyFlow(t, s)

	_, err := s.SetClient(context.Background(), f.ID, "", "11988887777", "")
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), f.ID)
	assert.True(t, httperr.IsBusiness(err, "client_info_required"))
	assert.Zero(t, booker.calls)
}

func TestSubmitConflictMarksSlotBusy(t *testing.T) {
	booker := &fakeBooker{err: httperr.ErrConflict("time_conflict")}
	s := newService(booker, &fakeAvailability{})
	ctx := context.Background()

	f := readyFlow(t, s)
	failed, err := s.Submit(ctx, f.ID)
	require.NoError(t, err)

	assert.Equal(t, booking.StepSelectDateTime, failed.Step)
	assert.Empty(t, failed.Time)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, httperr.KindConflict, failed.LastError.Kind)

	out, err := s.Availability(ctx, f.ID, "2026-03-15")
	require.NoError(t, err)
	for _, slot := range out.Slots {
		if slot.Time.String() == "10:00" {
			assert.True(t, slot.Busy)
			assert.Equal(t, domain.BusyBooked, slot.Reason)
		}
	}
}

func TestSubmitTransportFailureKeepsSelections(t *testing.T) {
	booker := &fakeBooker{err: httperr.ErrTransport("db_unavailable", context.DeadlineExceeded)}
	s := newService(booker, &fakeAvailability{})

	f := readyFlow(t, s)
	failed, err := s.Submit(context.Background(), f.ID)
	require.NoError(t, err)

	assert.Equal(t, booking.StepClientInfo, failed.Step)
	assert.Equal(t, "10:00", failed.Time)
	assert.True(t, failed.LastError.Retryable)

	booker.err = nil
	done, err := s.Submit(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSuccess, done.Step)
}

// flakyStore fails the first save of a successful flow.
type flakyStore struct {
	Store
	mu     sync.Mutex
	failed bool
}

func (s *flakyStore) Save(ctx context.Context, f *booking.Flow) error {
	s.mu.Lock()
	if f.Step == booking.StepSuccess && !s.failed {
		s.failed = true
		s.mu.Unlock()
		return httperr.ErrTransport("session_store_unavailable", context.DeadlineExceeded)
	}
	s.mu.Unlock()
	return s.Store.Save(ctx, f)
}

func TestSubmitSucceedsWhenSavingResultFails(t *testing.T) {
	booker := &fakeBooker{}
	store := &flakyStore{Store: session.NewMemoryStore(time.Hour)}
	s := NewService(
		store,
		booker,
		fakeCatalog{},
		&fakeAvailability{},
		timezone.FixedClock{At: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
	f := readyFlow(t, s)

	done, err := s.Submit(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSuccess, done.Step)
	assert.Equal(t, uint(77), done.AppointmentID)
	assert.True(t, store.failed)
	assert.Equal(t, 1, booker.calls)

	again, err := s.Submit(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSuccess, again.Step)
	assert.Equal(t, uint(77), again.AppointmentID)
	assert.Equal(t, 1, booker.calls)
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	booker := &fakeBooker{block: make(chan struct{})}
	s := newService(booker, &fakeAvailability{})
	f := readyFlow(t, s)

	first := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), f.ID)
		first <- err
	}()

	// espera o primeiro submit segurar o lock
	require.Eventually(t, func() bool {
		cur, err := s.Get(context.Background(), f.ID)
		return err == nil && cur.Step == booking.StepSubmitting
	}, time.Second, 5*time.Millisecond)

	_, err := s.Submit(context.Background(), f.ID)
	assert.True(t, httperr.IsBusiness(err, "booking_in_progress"))

	close(booker.block)
	require.NoError(t, <-first)
	assert.Equal(t, 1, booker.calls)
}

func TestSelectSlotRejectsShownBusy(t *testing.T) {
	avail := &fakeAvailability{booked: []models.Appointment{{
		BarberID:  1,
		Date:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		StartTime: timeofday.New(10, 0),
		EndTime:   timeofday.New(10, 30),
		Status:    "scheduled",
	}}}
	s := newService(&fakeBooker{}, avail)
	ctx := context.Background()

	f, err := s.Start(ctx)
	require.NoError(t, err)
	_, err = s.SelectService(ctx, f.ID, 1)
	require.NoError(t, err)
	_, err = s.SelectBarber(ctx, f.ID, 1)
	require.NoError(t, err)

	_, err = s.SelectSlot(ctx, f.ID, "2026-03-15", "10:00")
	assert.True(t, httperr.IsKind(err, httperr.KindConflict))

	_, err = s.SelectSlot(ctx, f.ID, "2026-03-15", "10:15")
	assert.True(t, httperr.IsBusiness(err, "slot_off_grid"))

	cur, err := s.SelectSlot(ctx, f.ID, "2026-03-15", "10:30")
	require.NoError(t, err)
	assert.Equal(t, booking.StepClientInfo, cur.Step)
}

func TestSelectionsCheckCatalog(t *testing.T) {
	s := newService(&fakeBooker{}, &fakeAvailability{})
	ctx := context.Background()

	f, err := s.Start(ctx)
	require.NoError(t, err)

	_, err = s.SelectService(ctx, f.ID, 5)
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))

	_, err = s.SelectService(ctx, f.ID, 1)
	require.NoError(t, err)
	_, err = s.SelectBarber(ctx, f.ID, 2)
	assert.True(t, httperr.IsBusiness(err, "barber_inactive"))
}

func TestDiscardBeforeSubmit(t *testing.T) {
	booker := &fakeBooker{}
	s := newService(booker, &fakeAvailability{})
	f := readyFlow(t, s)

	require.NoError(t, s.Discard(context.Background(), f.ID))

	_, err := s.Get(context.Background(), f.ID)
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))
	assert.Zero(t, booker.calls)
}

func TestRestartAfterSuccess(t *testing.T) {
	s := newService(&fakeBooker{}, &fakeAvailability{})
	f := readyFlow(t, s)
	_, err := s.Submit(context.Background(), f.ID)
	require.NoError(t, err)

	_, err = s.Back(context.Background(), f.ID, booking.StepClientInfo)
	assert.Error(t, err)

	fresh, err := s.Restart(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSelectService, fresh.Step)
	assert.Equal(t, f.ID, fresh.ID)
}
