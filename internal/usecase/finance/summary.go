package finance

import (
	"context"
	"sort"
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// Repository reads money movements over [start, end) by business date.
type Repository interface {
	PaymentsBetween(ctx context.Context, start, end time.Time) ([]models.Payment, error)
	CompletedBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error)
	ExpensesTotal(ctx context.Context, start, end time.Time) (float64, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
}

// ======================================================
// OUTPUT
// ======================================================

type ServiceStat struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type Summary struct {
	Period string `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`

	TotalRevenue          float64 `json:"total_revenue"`
	TotalExpenses         float64 `json:"total_expenses"`
	Profit                float64 `json:"profit"`
	CompletedAppointments int     `json:"completed_appointments"`
	WalkInPayments        int     `json:"walk_in_payments"`

	Services []ServiceStat    `json:"services"`
	Payments []models.Payment `json:"payments"`
}

type SummaryInput struct {
	Period string
	Year   int
	Month  int
}

// ======================================================
// USE CASE
// ======================================================

type GetSummary struct {
	repo  Repository
	clock timezone.Clock
}

func NewGetSummary(repo Repository, clock timezone.Clock) *GetSummary {
	return &GetSummary{repo: repo, clock: clock}
}

func (uc *GetSummary) Execute(ctx context.Context, in SummaryInput) (*Summary, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	start, end, err := Range(in, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	// intervalos inclusivos na API, exclusivos no banco
	until := end.AddDate(0, 0, 1)

	payments, err := uc.repo.PaymentsBetween(ctx, start, until)
	if err != nil {
		return nil, err
	}
	completed, err := uc.repo.CompletedBetween(ctx, start, until)
	if err != nil {
		return nil, err
	}
	expenses, err := uc.repo.ExpensesTotal(ctx, start, until)
	if err != nil {
		return nil, err
	}

	s := Summarize(payments, completed, expenses)
	s.Period = in.Period
	s.Start = timeofday.FormatDate(start)
	s.End = timeofday.FormatDate(end)
	return s, nil
}

// Range resolves the inclusive date range of a period. Week is the last
// seven days up to today; month defaults to the current one.
func Range(in SummaryInput, now time.Time) (time.Time, time.Time, error) {
	today := timeofday.DateOf(now)

	switch in.Period {
	case PeriodDay:
		return today, today, nil
	case PeriodWeek:
		return today.AddDate(0, 0, -7), today, nil
	case PeriodMonth, "":
		year, month := in.Year, in.Month
		if year == 0 {
			year = today.Year()
		}
		if month == 0 {
			month = int(today.Month())
		}
		if year < 2000 || year > 2100 || month < 1 || month > 12 {
			return time.Time{}, time.Time{}, httperr.ErrValidation("invalid_year_or_month")
		}
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 1, -1), nil
	}
	return time.Time{}, time.Time{}, httperr.ErrValidation("invalid_period")
}

// Summarize counts revenue from payments only. A completed appointment
// always has its payment, so adding service prices on top would count the
// same money twice.
func Summarize(payments []models.Payment, completed []models.Appointment, expenses float64) *Summary {
	s := &Summary{
		TotalExpenses:         expenses,
		CompletedAppointments: len(completed),
		Payments:              payments,
	}

	paidByAppointment := make(map[uint]float64, len(payments))
	for _, p := range payments {
		s.TotalRevenue += p.Amount
		if p.AppointmentID == nil {
			s.WalkInPayments++
			continue
		}
		paidByAppointment[*p.AppointmentID] += p.Amount
	}
	s.Profit = s.TotalRevenue - s.TotalExpenses

	byName := map[string]*ServiceStat{}
	for _, ap := range completed {
		name := ap.Service.Name
		if name == "" {
			name = "Geral"
		}
		st, ok := byName[name]
		if !ok {
			st = &ServiceStat{Name: name}
			byName[name] = st
		}
		st.Count++
		if amount, ok := paidByAppointment[ap.ID]; ok {
			st.Total += amount
		} else if ap.Payment != nil {
			st.Total += ap.Payment.Amount
		} else {
			st.Total += ap.Service.Price
		}
	}

	s.Services = make([]ServiceStat, 0, len(byName))
	for _, st := range byName {
		s.Services = append(s.Services, *st)
	}
	sort.Slice(s.Services, func(i, j int) bool {
		if s.Services[i].Count != s.Services[j].Count {
			return s.Services[i].Count > s.Services[j].Count
		}
		return s.Services[i].Name < s.Services[j].Name
	})
	return s
}
