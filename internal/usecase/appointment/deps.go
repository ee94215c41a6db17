package appointment

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

// AuditDispatcher is satisfied by *audit.Dispatcher.
type AuditDispatcher interface {
	Dispatch(ev audit.Event)
}

// Deps groups what every appointment use case needs.
type Deps struct {
	Repo   domain.Repository
	Audit  AuditDispatcher
	Events changefeed.Publisher
	Clock  timezone.Clock
	Log    *zap.Logger
}

func (d Deps) publish(ctx context.Context, typ changefeed.EventType, ap *models.Appointment) {
	ev := changefeed.Event{
		Type:          typ,
		Table:         changefeed.TableAppointments,
		AppointmentID: ap.ID,
		BarberID:      ap.BarberID,
		Date:          timeofday.FormatDate(ap.Date),
		StartMinute:   int(ap.StartTime),
		Status:        ap.Status,
		ClientName:    ap.Client.Name,
	}

	// o agendamento já foi gravado; falha aqui só atrasa o aviso
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Log.Warn("change event not published",
			zap.Error(err),
			zap.Uint("appointment_id", ap.ID),
			zap.String("type", string(typ)),
		)
	}
}
