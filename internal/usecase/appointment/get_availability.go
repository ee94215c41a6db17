package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

type AvailabilityOutput struct {
	BarberID uint          `json:"barber_id"`
	Date     string        `json:"date"`
	Slots    []domain.Slot `json:"slots"`
}

type GetAvailability struct {
	repo  domain.Repository
	clock timezone.Clock
	grid  domain.Grid
}

func NewGetAvailability(
	repo domain.Repository,
	clock timezone.Clock,
	grid domain.Grid,
) *GetAvailability {
	return &GetAvailability{repo: repo, clock: clock, grid: grid}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	barberID uint,
	date string,
) (*AvailabilityOutput, error) {

	day, err := timeofday.ParseDate(date)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_date")
	}

	barber, err := uc.repo.GetBarber(ctx, barberID)
	if err != nil {
		return nil, err
	}

	apps, err := uc.repo.ListBlockingForBarberDate(ctx, barber.ID, day)
	if err != nil {
		return nil, err
	}

	return &AvailabilityOutput{
		BarberID: barber.ID,
		Date:     timeofday.FormatDate(day),
		Slots:    domain.Slots(uc.grid, barber, day, apps, uc.clock.Now()),
	}, nil
}
