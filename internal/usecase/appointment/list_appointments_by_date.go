package appointment

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/dto"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

type ListAppointmentsByDate struct {
	repo domain.Repository
}

func NewListAppointmentsByDate(
	repo domain.Repository,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo: repo,
	}
}

// Execute lists every appointment of the day, all barbers, ordered by start.
func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	date string,
) ([]dto.AppointmentListDTO, error) {

	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	day, err := timeofday.ParseDate(date)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date")
	}

	appointments, err := uc.repo.ListForPeriod(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	return dto.NewAppointmentList(appointments), nil
}
