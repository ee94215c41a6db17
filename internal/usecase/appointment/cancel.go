package appointment

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

type CancelAppointment struct {
	Deps
}

func NewCancelAppointment(deps Deps) *CancelAppointment {
	return &CancelAppointment{Deps: deps}
}

// Execute moves a scheduled appointment to cancelled. The row is kept and
// its slot becomes free.
func (uc *CancelAppointment) Execute(
	ctx context.Context,
	appointmentID uint,
) (*models.Appointment, error) {

	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.Clock.Now()
	ap, err := uc.Repo.Transition(ctx, appointmentID, func(ap *models.Appointment) (*models.Payment, error) {
		return nil, domain.Cancel(ap, now)
	})
	if err != nil {
		return nil, err
	}

	uc.Audit.Dispatch(audit.Event{
		UserID:   &id.UserID,
		Source:   audit.SourceOperator,
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})
	uc.publish(ctx, changefeed.Update, ap)

	return ap, nil
}
