package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-agenda/internal/domain/booking"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

func TestMemoryStoreRoundTripIsACopy(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	f := booking.New("abc", time.Now())
	require.NoError(t, s.Save(ctx, f))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	got.ServiceID = 9

	again, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Zero(t, again.ServiceID)
	assert.Equal(t, booking.StepSelectService, again.Step)
}

func TestMemoryStoreExpires(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, booking.New("abc", clock)))

	clock = clock.Add(59 * time.Second)
	_, err := s.Get(ctx, "abc")
	require.NoError(t, err)

	clock = clock.Add(time.Second)
	_, err = s.Get(ctx, "abc")
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))
}

func TestMemoryStoreLock(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	unlock, err := s.Lock(ctx, "abc")
	require.NoError(t, err)

	_, err = s.Lock(ctx, "abc")
	assert.True(t, httperr.IsKind(err, httperr.KindConflict))

	other, err := s.Lock(ctx, "xyz")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := s.Lock(ctx, "abc")
	require.NoError(t, err)
	again()
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, booking.New("abc", time.Now())))
	require.NoError(t, s.Delete(ctx, "abc"))
	assert.True(t, httperr.IsKind(s.Delete(ctx, "abc"), httperr.KindNotFound))
}
