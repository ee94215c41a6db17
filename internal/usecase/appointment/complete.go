package appointment

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

type CompleteAppointmentInput struct {
	AppointmentID uint
	// Amount zero charges the service price.
	Amount float64
	Method string
}

type CompleteAppointment struct {
	Deps
}

func NewCompleteAppointment(deps Deps) *CompleteAppointment {
	return &CompleteAppointment{Deps: deps}
}

// Execute records the payment and completes the appointment in one
// transaction; a second call fails with invalid_state.
func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	in CompleteAppointmentInput,
) (*models.Appointment, error) {

	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.Clock.Now()
	ap, err := uc.Repo.Transition(ctx, in.AppointmentID, func(ap *models.Appointment) (*models.Payment, error) {
		return domain.Complete(ap, in.Amount, in.Method, now)
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"method": in.Method}
	if ap.Payment != nil {
		meta["amount"] = ap.Payment.Amount
	}

	uc.Audit.Dispatch(audit.Event{
		UserID:   &id.UserID,
		Source:   audit.SourceOperator,
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: meta,
	})
	uc.publish(ctx, changefeed.Update, ap)

	return ap, nil
}
