package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

func input(barberID, serviceID uint, date, at string) CreateAppointmentInput {
	return CreateAppointmentInput{
		BarberID:    barberID,
		ServiceID:   serviceID,
		ClientName:  "Carlos",
		ClientPhone: "(11) 98888-7777",
		Date:        date,
		Time:        at,
	}
}

func TestCreateComputesEndAndPublishes(t *testing.T) {
	f := newFixture()
	uc := NewCreateAppointment(f.deps, domain.StandardGrid())

	ap, err := uc.Execute(operatorCtx(), input(1, 3, "2026-03-15", "08:00"))
	require.NoError(t, err)

	assert.Equal(t, "08:45", ap.EndTime.String())
	assert.Equal(t, string(domain.StatusScheduled), ap.Status)
	assert.Equal(t, "11988887777", ap.Client.Phone)

	assert.Equal(t, []string{"appointment_created"}, f.audit.actions())
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, changefeed.Insert, ev.Type)
	assert.Equal(t, "2026-03-15", ev.Date)
	assert.Equal(t, 8*60, ev.StartMinute)
	assert.Equal(t, "Carlos", ev.ClientName)
}

func TestCreateReusesClientByPhone(t *testing.T) {
	f := newFixture()
	uc := NewCreateAppointment(f.deps, domain.StandardGrid())

	a, err := uc.Book(context.Background(), input(1, 1, "2026-03-15", "08:00"))
	require.NoError(t, err)

	in := input(2, 1, "2026-03-15", "08:00")
	in.ClientPhone = "11 98888 7777"
	b, err := uc.Book(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, a.ClientID, b.ClientID)
}

func TestOperatorCreateRequiresIdentity(t *testing.T) {
	f := newFixture()
	uc := NewCreateAppointment(f.deps, domain.StandardGrid())

	_, err := uc.Execute(context.Background(), input(1, 1, "2026-03-15", "08:00"))

	assert.True(t, httperr.IsKind(err, httperr.KindPermission))
	assert.Zero(t, f.repo.bookCalls)
}

func TestCreateValidatesBeforeWriting(t *testing.T) {
	f := newFixture()
	uc := NewCreateAppointment(f.deps, domain.StandardGrid())

	cases := map[string]CreateAppointmentInput{
		"client_info_required": func() CreateAppointmentInput {
			in := input(1, 1, "2026-03-15", "08:00")
			in.ClientName = "   "
			return in
		}(),
		"invalid_phone": func() CreateAppointmentInput {
			in := input(1, 1, "2026-03-15", "08:00")
			in.ClientPhone = "12"
			return in
		}(),
		"invalid_date_or_time": input(1, 1, "15/03/2026", "08:00"),
		"slot_off_grid":        input(1, 1, "2026-03-15", "08:10"),
		"slot_in_past":         input(1, 1, "2026-03-14", "09:00"),
	}

	for code, in := range cases {
		_, err := uc.Book(context.Background(), in)
		assert.True(t, httperr.IsBusiness(err, code), "%s: got %v", code, err)
	}
	assert.Zero(t, f.repo.bookCalls)
	assert.Empty(t, f.events.events)
}

func TestCreateRejectsLunch(t *testing.T) {
	f := newFixture()
	start, end := timeofday.New(13, 0), timeofday.New(14, 0)
	f.repo.barbers[2].LunchStart, f.repo.barbers[2].LunchEnd = &start, &end

	uc := NewCreateAppointment(f.deps, domain.StandardGrid())
	_, err := uc.Book(context.Background(), input(2, 1, "2026-03-15", "13:30"))

	assert.True(t, httperr.IsBusiness(err, "slot_in_lunch"))
}

func TestCreateConflictIsIntervalBased(t *testing.T) {
	f := newFixture()
	uc := NewCreateAppointment(f.deps, domain.StandardGrid())

	_, err := uc.Book(context.Background(), input(1, 1, "2026-03-15", "10:00"))
	require.NoError(t, err)

	// 09:30 + 60min runs into 10:00
	_, err = uc.Book(context.Background(), input(1, 2, "2026-03-15", "09:30"))
	assert.True(t, httperr.IsKind(err, httperr.KindConflict))

	// touching intervals are fine
	_, err = uc.Book(context.Background(), input(1, 1, "2026-03-15", "09:30"))
	assert.NoError(t, err)
	_, err = uc.Book(context.Background(), input(1, 1, "2026-03-15", "10:30"))
	assert.NoError(t, err)

	// another barber is unaffected
	_, err = uc.Book(context.Background(), input(2, 2, "2026-03-15", "09:30"))
	assert.NoError(t, err)

	assert.Contains(t, f.audit.actions(), "appointment_conflict")
}

func TestConcurrentBookingsSameSlot(t *testing.T) {
	f := newFixture()
	uc := NewCreateAppointment(f.deps, domain.StandardGrid())

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Book(context.Background(), input(1, 1, "2026-03-16", "15:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case httperr.IsKind(err, httperr.KindConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture()
	create := NewCreateAppointment(f.deps, domain.StandardGrid())
	cancel := NewCancelAppointment(f.deps)

	ap, err := create.Execute(operatorCtx(), input(1, 1, "2026-03-15", "11:00"))
	require.NoError(t, err)

	cancelled, err := cancel.Execute(operatorCtx(), ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = create.Execute(operatorCtx(), input(1, 1, "2026-03-15", "11:00"))
	assert.NoError(t, err)

	_, err = cancel.Execute(operatorCtx(), ap.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, changefeed.Insert, last.Type)
	assert.Equal(t, changefeed.Update, f.events.events[1].Type)
}

func TestCompleteRecordsOnePayment(t *testing.T) {
	f := newFixture()
	create := NewCreateAppointment(f.deps, domain.StandardGrid())
	complete := NewCompleteAppointment(f.deps)

	ap, err := create.Execute(operatorCtx(), input(1, 2, "2026-03-14", "14:00"))
	require.NoError(t, err)

	done, err := complete.Execute(operatorCtx(), CompleteAppointmentInput{
		AppointmentID: ap.ID,
		Method:        models.PaymentPix,
	})
	require.NoError(t, err)
	require.NotNil(t, done.Payment)
	assert.Equal(t, 70.0, done.Payment.Amount)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)

	_, err = complete.Execute(operatorCtx(), CompleteAppointmentInput{
		AppointmentID: ap.ID,
		Method:        models.PaymentPix,
	})
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

func TestDeletePaidAppointmentIsReferential(t *testing.T) {
	f := newFixture()
	create := NewCreateAppointment(f.deps, domain.StandardGrid())
	complete := NewCompleteAppointment(f.deps)
	del := NewDeleteAppointment(f.deps)

	paid, err := create.Execute(operatorCtx(), input(1, 1, "2026-03-15", "15:00"))
	require.NoError(t, err)
	_, err = complete.Execute(operatorCtx(), CompleteAppointmentInput{AppointmentID: paid.ID, Method: models.PaymentCash})
	require.NoError(t, err)

	err = del.Execute(operatorCtx(), paid.ID)
	require.Error(t, err)
	be, ok := httperr.As(err)
	require.True(t, ok)
	assert.Equal(t, httperr.KindReferential, be.Kind)
	assert.Equal(t, "cancel", be.Suggestion)

	free, err := create.Execute(operatorCtx(), input(1, 1, "2026-03-15", "16:00"))
	require.NoError(t, err)
	require.NoError(t, del.Execute(operatorCtx(), free.ID))

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, changefeed.Delete, last.Type)
	assert.Equal(t, free.ID, last.AppointmentID)

	err = del.Execute(operatorCtx(), free.ID)
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))
}

func TestListByDateOrdersByStart(t *testing.T) {
	f := newFixture()
	create := NewCreateAppointment(f.deps, domain.StandardGrid())
	list := NewListAppointmentsByDate(f.repo)

	for _, at := range []string{"16:00", "08:30", "13:00"} {
		_, err := create.Execute(operatorCtx(), input(1, 1, "2026-03-15", at))
		require.NoError(t, err)
	}
	_, err := create.Execute(operatorCtx(), input(1, 1, "2026-03-16", "08:00"))
	require.NoError(t, err)

	out, err := list.Execute(operatorCtx(), "2026-03-15")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "08:30", out[0].StartTime.String())
	assert.Equal(t, "13:00", out[1].StartTime.String())
	assert.Equal(t, "16:00", out[2].StartTime.String())
	assert.Equal(t, "Corte", out[0].ServiceName)

	_, err = list.Execute(context.Background(), "2026-03-15")
	assert.True(t, httperr.IsKind(err, httperr.KindPermission))
}

func TestListMonth(t *testing.T) {
	f := newFixture()
	create := NewCreateAppointment(f.deps, domain.StandardGrid())
	list := NewListAppointmentsByPeriod(f.repo)

	_, err := create.Execute(operatorCtx(), input(1, 1, "2026-03-31", "08:00"))
	require.NoError(t, err)
	_, err = create.Execute(operatorCtx(), input(1, 1, "2026-04-01", "08:00"))
	require.NoError(t, err)

	out, err := list.Month(operatorCtx(), 2026, 3)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2026-03-31", out[0].Date)

	_, err = list.Month(operatorCtx(), 2026, 13)
	assert.True(t, httperr.IsBusiness(err, "invalid_year_or_month"))
}

func TestAvailabilityReflectsBookings(t *testing.T) {
	f := newFixture(time.Date(2026, 3, 14, 7, 0, 0, 0, brt))
	create := NewCreateAppointment(f.deps, domain.StandardGrid())
	get := NewGetAvailability(f.repo, f.deps.Clock, domain.StandardGrid())

	_, err := create.Book(context.Background(), input(1, 3, "2026-03-14", "09:00"))
	require.NoError(t, err)

	out, err := get.Execute(context.Background(), 1, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, out.Slots, 19)

	var busy []string
	for _, s := range out.Slots {
		if s.Busy {
			busy = append(busy, s.Time.String())
		}
	}
	assert.Equal(t, []string{"09:00", "09:30"}, busy)

	_, err = get.Execute(context.Background(), 99, "2026-03-14")
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))
}
