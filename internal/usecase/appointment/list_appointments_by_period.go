package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/dto"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

type ListAppointmentsByPeriod struct {
	repo domain.Repository
}

func NewListAppointmentsByPeriod(
	repo domain.Repository,
) *ListAppointmentsByPeriod {
	return &ListAppointmentsByPeriod{
		repo: repo,
	}
}

func (uc *ListAppointmentsByPeriod) Month(
	ctx context.Context,
	year int,
	month int,
) ([]dto.AppointmentListDTO, error) {

	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return nil, httperr.ErrValidation("invalid_year_or_month")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return uc.Execute(ctx, start, start.AddDate(0, 1, 0))
}

// Execute lists appointments with start <= date < end.
func (uc *ListAppointmentsByPeriod) Execute(
	ctx context.Context,
	start time.Time,
	end time.Time,
) ([]dto.AppointmentListDTO, error) {

	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, httperr.ErrValidation("invalid_period")
	}

	appointments, err := uc.repo.ListForPeriod(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return dto.NewAppointmentList(appointments), nil
}
