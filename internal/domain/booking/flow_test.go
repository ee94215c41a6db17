package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func atClientInfo(t *testing.T) *Flow {
	t.Helper()
	f := New("f1", now)
	require.NoError(t, f.SelectService(3))
	require.NoError(t, f.SelectBarber(1))
	require.NoError(t, f.SelectSlot("2026-03-15", "9:30"))
	require.Equal(t, StepClientInfo, f.Step)
	return f
}

func TestForwardRequiresSelection(t *testing.T) {
	f := New("f1", now)

	assert.True(t, httperr.IsBusiness(f.SelectService(0), "service_required"))
	assert.Equal(t, StepSelectService, f.Step)

	assert.True(t, httperr.IsBusiness(f.SelectBarber(1), "invalid_step"))

	require.NoError(t, f.SelectService(3))
	assert.True(t, httperr.IsBusiness(f.SelectBarber(0), "barber_required"))
	require.NoError(t, f.SelectBarber(1))

	assert.True(t, httperr.IsBusiness(f.SelectSlot("2026-03-15", ""), "slot_required"))
	assert.True(t, httperr.IsBusiness(f.SelectSlot("15-03-2026", "09:00"), "invalid_date_or_time"))
	assert.Equal(t, StepSelectDateTime, f.Step)
}

func TestSlotIsNormalized(t *testing.T) {
	f := atClientInfo(t)
	assert.Equal(t, "2026-03-15", f.Date)
	assert.Equal(t, "09:30", f.Time)
}

func TestBackKeepsSelections(t *testing.T) {
	f := atClientInfo(t)
	require.NoError(t, f.SetClient(" Carlos ", "11988887777", ""))

	require.NoError(t, f.Back(StepSelectService))
	assert.Equal(t, StepSelectService, f.Step)
	assert.Equal(t, uint(3), f.ServiceID)
	assert.Equal(t, uint(1), f.BarberID)
	assert.Equal(t, "09:30", f.Time)
	assert.Equal(t, "Carlos", f.ClientName)

	// same service again keeps the slot
	require.NoError(t, f.SelectService(3))
	assert.Equal(t, "09:30", f.Time)

	// another barber drops it
	require.NoError(t, f.SelectBarber(2))
	assert.Empty(t, f.Time)
	assert.Equal(t, "2026-03-15", f.Date)
}

func TestBackOnlyToEarlierSteps(t *testing.T) {
	f := New("f1", now)
	assert.True(t, httperr.IsBusiness(f.Back(StepSelectService), "invalid_target_step"))

	f = atClientInfo(t)
	assert.True(t, httperr.IsBusiness(f.Back(StepSubmitting), "invalid_target_step"))
	assert.True(t, httperr.IsBusiness(f.Back("nowhere"), "invalid_target_step"))
	assert.NoError(t, f.Back(StepSelectDateTime))
}

func TestSubmitRequiresClientInfo(t *testing.T) {
	f := atClientInfo(t)
	require.NoError(t, f.SetClient("Carlos", "   ", ""))

	err := f.BeginSubmit()
	assert.True(t, httperr.IsKind(err, httperr.KindValidation))
	assert.True(t, httperr.IsBusiness(err, "client_info_required"))
	assert.Equal(t, StepClientInfo, f.Step)
}

func TestSuccessIsTerminal(t *testing.T) {
	f := atClientInfo(t)
	require.NoError(t, f.SetClient("Carlos", "11988887777", ""))
	require.NoError(t, f.BeginSubmit())
	require.NoError(t, f.Succeed(42))

	assert.Equal(t, StepSuccess, f.Step)
	assert.Equal(t, uint(42), f.AppointmentID)
	assert.Error(t, f.Back(StepClientInfo))
	assert.Error(t, f.SelectService(1))

	f.Restart(now.Add(time.Hour))
	assert.Equal(t, StepSelectService, f.Step)
	assert.Equal(t, "f1", f.ID)
	assert.Zero(t, f.ServiceID)
	assert.Zero(t, f.AppointmentID)
}

func TestConflictReturnsToDateTime(t *testing.T) {
	f := atClientInfo(t)
	require.NoError(t, f.SetClient("Carlos", "11988887777", ""))
	require.NoError(t, f.BeginSubmit())

	f.Fail(httperr.ErrConflict("time_conflict"))

	assert.Equal(t, StepSelectDateTime, f.Step)
	assert.Empty(t, f.Time)
	assert.Equal(t, "Carlos", f.ClientName)
	require.NotNil(t, f.LastError)
	assert.Equal(t, httperr.KindConflict, f.LastError.Kind)
	assert.True(t, f.IsMarkedBusy(1, "2026-03-15", "09:30"))

	err := f.SelectSlot("2026-03-15", "09:30")
	assert.True(t, httperr.IsKind(err, httperr.KindConflict))
	assert.NoError(t, f.SelectSlot("2026-03-15", "10:00"))
}

func TestOtherFailuresKeepSelections(t *testing.T) {
	f := atClientInfo(t)
	require.NoError(t, f.SetClient("Carlos", "11988887777", "barba também"))
	require.NoError(t, f.BeginSubmit())

	f.Fail(errors.New("dial tcp: i/o timeout"))

	assert.Equal(t, StepClientInfo, f.Step)
	assert.Equal(t, "09:30", f.Time)
	assert.Equal(t, "barba também", f.Notes)
	require.NotNil(t, f.LastError)
	assert.True(t, f.LastError.Retryable)
	assert.Equal(t, "booking_failed", f.LastError.Code)

	require.NoError(t, f.BeginSubmit())
}

func TestRejectedSubmitIsNotRetryable(t *testing.T) {
	for _, code := range []string{"barber_inactive", "service_inactive", "slot_in_past"} {
		t.Run(code, func(t *testing.T) {
			f := atClientInfo(t)
			require.NoError(t, f.SetClient("Carlos", "11988887777", ""))
			require.NoError(t, f.BeginSubmit())

			f.Fail(httperr.ErrValidation(code))

			assert.Equal(t, StepClientInfo, f.Step)
			require.NotNil(t, f.LastError)
			assert.Equal(t, code, f.LastError.Code)
			assert.False(t, f.LastError.Retryable)
		})
	}
}

func TestConflictIsNotRetryable(t *testing.T) {
	f := atClientInfo(t)
	require.NoError(t, f.SetClient("Carlos", "11988887777", ""))
	require.NoError(t, f.BeginSubmit())

	f.Fail(httperr.ErrConflict("time_conflict"))

	require.NotNil(t, f.LastError)
	assert.False(t, f.LastError.Retryable)
}

func TestInterruptedSubmit(t *testing.T) {
	f := atClientInfo(t)
	require.NoError(t, f.SetClient("Carlos", "11988887777", ""))
	require.NoError(t, f.BeginSubmit())

	f.Interrupted()

	assert.Equal(t, StepClientInfo, f.Step)
	assert.Equal(t, "submit_interrupted", f.LastError.Code)
	assert.True(t, f.LastError.Retryable)
}
