package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

// BookRequest is a validated candidate ready for the atomic insert.
type BookRequest struct {
	BarberID  uint
	ServiceID uint

	ClientName  string
	ClientPhone string

	Date  time.Time
	Start timeofday.TimeOfDay
	End   timeofday.TimeOfDay
	Notes string
}

// TransitionFunc mutates a locked appointment and may return a payment to
// insert in the same transaction.
type TransitionFunc func(ap *models.Appointment) (*models.Payment, error)

type Repository interface {
	// -------- Catalog --------
	GetBarber(ctx context.Context, id uint) (*models.Barber, error)
	GetService(ctx context.Context, id uint) (*models.Service, error)

	// -------- Availability --------
	ListBlockingForBarberDate(
		ctx context.Context,
		barberID uint,
		date time.Time,
	) ([]models.Appointment, error)

	// -------- Listing --------
	ListForPeriod(
		ctx context.Context,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// -------- Appointment (create / conflict) --------
	// Book resolves the client by phone, re-checks the overlap under a
	// barber row lock and inserts a scheduled appointment, all in one
	// transaction.
	Book(ctx context.Context, req BookRequest) (*models.Appointment, error)

	// -------- Appointment (state change) --------
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)

	Transition(
		ctx context.Context,
		id uint,
		fn TransitionFunc,
	) (*models.Appointment, error)

	Delete(ctx context.Context, id uint) error
}
