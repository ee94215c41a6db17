package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

// Complete flips the appointment to completed and returns the payment that
// must be persisted with it. A zero amount charges the service price.
func Complete(
	ap *models.Appointment,
	amount float64,
	method string,
	now time.Time,
) (*models.Payment, error) {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return nil, err
	}
	if !models.IsPaymentMethod(method) {
		return nil, httperr.ErrValidation("invalid_payment_method")
	}
	if amount < 0 {
		return nil, httperr.ErrValidation("invalid_amount")
	}
	if amount == 0 {
		amount = ap.Service.Price
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now

	id := ap.ID
	return &models.Payment{
		AppointmentID: &id,
		Amount:        amount,
		Method:        method,
		PaidOn:        timeofday.DateOf(now),
	}, nil
}
