package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

// ===============================
// Grid
// ===============================

// Period is an inclusive run of slot start times.
type Period struct {
	First timeofday.TimeOfDay
	Last  timeofday.TimeOfDay
}

type Grid struct {
	Periods []Period
	Step    int
}

// StandardGrid: 08:00–11:30 and 13:00–18:00, every 30 minutes.
func StandardGrid() Grid {
	return Grid{
		Periods: []Period{
			{First: timeofday.New(8, 0), Last: timeofday.New(11, 30)},
			{First: timeofday.New(13, 0), Last: timeofday.New(18, 0)},
		},
		Step: 30,
	}
}

func (g Grid) Times() []timeofday.TimeOfDay {
	var out []timeofday.TimeOfDay
	for _, p := range g.Periods {
		for t := p.First; t <= p.Last; t = t.Add(g.Step) {
			out = append(out, t)
		}
	}
	return out
}

func (g Grid) Contains(t timeofday.TimeOfDay) bool {
	for _, p := range g.Periods {
		if t >= p.First && t <= p.Last && int(t-p.First)%g.Step == 0 {
			return true
		}
	}
	return false
}

// ===============================
// Busy / free
// ===============================

type BusyReason string

const (
	Free       BusyReason = ""
	BusyPast   BusyReason = "past"
	BusyLunch  BusyReason = "lunch"
	BusyBooked BusyReason = "booked"
)

type Slot struct {
	Time   timeofday.TimeOfDay `json:"time"`
	Busy   bool                `json:"busy"`
	Reason BusyReason          `json:"reason,omitempty"`
}

// Reason applies the availability rules in order, first match wins:
// past cutoff, lunch window, then point-in-time overlap with a blocking
// appointment of the same barber and date. date is a civil date and now is
// the business-local current instant.
func Reason(
	t timeofday.TimeOfDay,
	barber *models.Barber,
	date time.Time,
	apps []models.Appointment,
	now time.Time,
) BusyReason {
	if IsPast(t, date, now) {
		return BusyPast
	}

	if InLunch(t, barber) {
		return BusyLunch
	}

	for i := range apps {
		ap := &apps[i]
		if !Status(ap.Status).Blocking() {
			continue
		}
		if barber != nil && ap.BarberID != barber.ID {
			continue
		}
		if !timeofday.SameDate(ap.Date, date) {
			continue
		}
		if ap.StartTime <= t && t < ap.EndTime {
			return BusyBooked
		}
	}

	return Free
}

func IsBusy(
	t timeofday.TimeOfDay,
	barber *models.Barber,
	date time.Time,
	apps []models.Appointment,
	now time.Time,
) bool {
	return Reason(t, barber, date, apps, now) != Free
}

// Slots annotates every grid time for one barber and date.
func Slots(
	g Grid,
	barber *models.Barber,
	date time.Time,
	apps []models.Appointment,
	now time.Time,
) []Slot {
	times := g.Times()
	out := make([]Slot, 0, len(times))
	for _, t := range times {
		r := Reason(t, barber, date, apps, now)
		out = append(out, Slot{Time: t, Busy: r != Free, Reason: r})
	}
	return out
}

// IsPast: any time on an earlier day, or an earlier instant today.
func IsPast(t timeofday.TimeOfDay, date time.Time, now time.Time) bool {
	today := timeofday.DateOf(now)
	day := timeofday.DateOf(date)

	if day.Before(today) {
		return true
	}
	if day.After(today) {
		return false
	}
	return t.On(day, now.Location()).Before(now)
}

// InLunch uses a half-open window: lunchEnd itself is free.
func InLunch(t timeofday.TimeOfDay, barber *models.Barber) bool {
	if !barber.HasLunch() {
		return false
	}
	return *barber.LunchStart <= t && t < *barber.LunchEnd
}

// Overlaps reports a blocking appointment whose [start, end) intersects
// [start, end) of the candidate.
func Overlaps(
	start timeofday.TimeOfDay,
	end timeofday.TimeOfDay,
	barberID uint,
	date time.Time,
	apps []models.Appointment,
) bool {
	for i := range apps {
		ap := &apps[i]
		if !Status(ap.Status).Blocking() || ap.BarberID != barberID {
			continue
		}
		if !timeofday.SameDate(ap.Date, date) {
			continue
		}
		if ap.StartTime < end && start < ap.EndTime {
			return true
		}
	}
	return false
}
