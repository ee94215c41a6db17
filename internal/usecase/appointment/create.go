package appointment

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	BarberID  uint
	ServiceID uint

	ClientName  string
	ClientPhone string

	Date  string
	Time  string
	Notes string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	Deps
	grid domain.Grid
}

func NewCreateAppointment(deps Deps, grid domain.Grid) *CreateAppointment {
	return &CreateAppointment{Deps: deps, grid: grid}
}

// Execute is the operator path: same rules as Book, behind an identity.
func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	return uc.book(ctx, in, &id.UserID, audit.SourceOperator)
}

// Book is the self-service path used by the booking workflow.
func (uc *CreateAppointment) Book(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {
	return uc.book(ctx, in, nil, audit.SourceOnline)
}

func (uc *CreateAppointment) book(
	ctx context.Context,
	in CreateAppointmentInput,
	userID *uint,
	source string,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// 1. Cliente (validado antes de qualquer escrita)
	// --------------------------------------------------
	name := strings.TrimSpace(in.ClientName)
	if name == "" || strings.TrimSpace(in.ClientPhone) == "" {
		return nil, httperr.ErrValidation("client_info_required")
	}
	phone := validators.NormalizePhone(in.ClientPhone)
	if phone == "" {
		return nil, httperr.ErrValidation("invalid_phone")
	}

	// --------------------------------------------------
	// 2. Data / hora
	// --------------------------------------------------
	date, err := timeofday.ParseDate(in.Date)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date_or_time")
	}
	start, err := timeofday.Parse(in.Time)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date_or_time")
	}

	// --------------------------------------------------
	// 3. Barbeiro + serviço
	// --------------------------------------------------
	barber, err := uc.Repo.GetBarber(ctx, in.BarberID)
	if err != nil {
		return nil, err
	}
	service, err := uc.Repo.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4. Grade, passado e almoço
	// --------------------------------------------------
	now := uc.Clock.Now()
	if err := domain.CheckBookable(uc.grid, barber, service, date, start, now); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5. Inserção atômica com checagem de conflito
	// --------------------------------------------------
	end := domain.EndOf(start, service)

	ap, err := uc.Repo.Book(ctx, domain.BookRequest{
		BarberID:    barber.ID,
		ServiceID:   service.ID,
		ClientName:  name,
		ClientPhone: phone,
		Date:        date,
		Start:       start,
		End:         end,
		Notes:       strings.TrimSpace(in.Notes),
	})
	if err != nil {
		if httperr.IsBusiness(err, "time_conflict") {
			uc.Audit.Dispatch(audit.Event{
				UserID: userID,
				Source: source,
				Action: "appointment_conflict",
				Entity: "appointment",
				Metadata: map[string]any{
					"barber_id": barber.ID,
					"date":      in.Date,
					"start":     start.String(),
					"end":       end.String(),
				},
			})
		}
		return nil, err
	}
	ap.Service = *service

	// --------------------------------------------------
	// 6. Auditoria + evento
	// --------------------------------------------------
	uc.Audit.Dispatch(audit.Event{
		UserID:   userID,
		Source:   source,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})
	uc.publish(ctx, changefeed.Insert, ap)

	return ap, nil
}
