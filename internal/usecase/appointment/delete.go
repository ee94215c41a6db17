package appointment

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
)

type DeleteAppointment struct {
	Deps
}

func NewDeleteAppointment(deps Deps) *DeleteAppointment {
	return &DeleteAppointment{Deps: deps}
}

// Execute removes the row. Appointments with a payment are referenced and
// come back as a referential error suggesting cancellation instead.
func (uc *DeleteAppointment) Execute(ctx context.Context, appointmentID uint) error {
	id, err := auth.Require(ctx)
	if err != nil {
		return err
	}

	ap, err := uc.Repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	if err := uc.Repo.Delete(ctx, appointmentID); err != nil {
		return err
	}

	uc.Audit.Dispatch(audit.Event{
		UserID:   &id.UserID,
		Source:   audit.SourceOperator,
		Action:   "appointment_deleted",
		Entity:   "appointment",
		EntityID: &appointmentID,
		Metadata: map[string]any{"client": ap.Client.Name, "status": ap.Status},
	})
	uc.publish(ctx, changefeed.Delete, ap)

	return nil
}
