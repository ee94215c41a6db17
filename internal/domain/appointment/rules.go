package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

// CheckBookable validates a candidate appointment against everything that can
// be decided without the current bookings: grid membership, past cutoff,
// lunch window and active barber/service. The overlap check happens inside
// the insert transaction.
func CheckBookable(
	g Grid,
	barber *models.Barber,
	service *models.Service,
	date time.Time,
	start timeofday.TimeOfDay,
	now time.Time,
) error {
	if !barber.IsActive {
		return httperr.ErrValidation("barber_inactive")
	}
	if !service.IsActive {
		return httperr.ErrValidation("service_inactive")
	}
	if service.DurationMinutes <= 0 {
		return httperr.ErrValidation("invalid_service_duration")
	}
	if !g.Contains(start) {
		return httperr.ErrValidation("slot_off_grid")
	}
	if IsPast(start, date, now) {
		return httperr.ErrValidation("slot_in_past")
	}
	if InLunch(start, barber) {
		return httperr.ErrValidation("slot_in_lunch")
	}
	return nil
}

// EndOf derives the stored end time from the service duration.
func EndOf(start timeofday.TimeOfDay, service *models.Service) timeofday.TimeOfDay {
	return start.Add(service.DurationMinutes)
}
