package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/domain/booking"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
	appointmentuc "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
)

const (
	successSaveAttempts = 3
	successSaveBackoff  = 50 * time.Millisecond
)

// Store persists flows between requests. Lock serializes mutations of one
// flow and fails fast when another request holds it.
type Store interface {
	Get(ctx context.Context, id string) (*booking.Flow, error)
	Save(ctx context.Context, f *booking.Flow) error
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// Booker is satisfied by *appointment.CreateAppointment.
type Booker interface {
	Book(ctx context.Context, in appointmentuc.CreateAppointmentInput) (*models.Appointment, error)
}

type Catalog interface {
	GetBarber(ctx context.Context, id uint) (*models.Barber, error)
	GetService(ctx context.Context, id uint) (*models.Service, error)
}

type Availability interface {
	Execute(ctx context.Context, barberID uint, date string) (*appointmentuc.AvailabilityOutput, error)
}

type Service struct {
	store        Store
	booker       Booker
	catalog      Catalog
	availability Availability
	clock        timezone.Clock
	log          *zap.Logger
}

func NewService(
	store Store,
	booker Booker,
	catalog Catalog,
	availability Availability,
	clock timezone.Clock,
	log *zap.Logger,
) *Service {
	return &Service{
		store:        store,
		booker:       booker,
		catalog:      catalog,
		availability: availability,
		clock:        clock,
		log:          log,
	}
}

// ======================================================
// LIFECYCLE
// ======================================================

func (s *Service) Start(ctx context.Context) (*booking.Flow, error) {
	f := booking.New(uuid.NewString(), s.clock.Now())
	if err := s.store.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id string) (*booking.Flow, error) {
	return s.store.Get(ctx, id)
}

// Discard drops a flow. Nothing was persisted before submit, so there is
// nothing to undo.
func (s *Service) Discard(ctx context.Context, id string) error {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return s.store.Delete(ctx, id)
}

func (s *Service) Restart(ctx context.Context, id string) (*booking.Flow, error) {
	return s.mutate(ctx, id, func(f *booking.Flow) error {
		f.Restart(s.clock.Now())
		return nil
	})
}

// mutate runs fn on the stored flow under the flow lock and saves the result.
func (s *Service) mutate(
	ctx context.Context,
	id string,
	fn func(f *booking.Flow) error,
) (*booking.Flow, error) {

	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// lock livre com fluxo em submitting: requisição anterior morreu no meio
	f.Interrupted()

	if err := fn(f); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ======================================================
// SELECTIONS
// ======================================================

func (s *Service) SelectService(ctx context.Context, id string, serviceID uint) (*booking.Flow, error) {
	return s.mutate(ctx, id, func(f *booking.Flow) error {
		if serviceID != 0 {
			svc, err := s.catalog.GetService(ctx, serviceID)
			if err != nil {
				return err
			}
			if !svc.IsActive {
				return httperr.ErrValidation("service_inactive")
			}
		}
		return f.SelectService(serviceID)
	})
}

func (s *Service) SelectBarber(ctx context.Context, id string, barberID uint) (*booking.Flow, error) {
	return s.mutate(ctx, id, func(f *booking.Flow) error {
		if barberID != 0 {
			b, err := s.catalog.GetBarber(ctx, barberID)
			if err != nil {
				return err
			}
			if !b.IsActive {
				return httperr.ErrValidation("barber_inactive")
			}
		}
		return f.SelectBarber(barberID)
	})
}

// SelectSlot accepts only a slot the grid currently shows as free. The
// authoritative check still happens on submit.
func (s *Service) SelectSlot(ctx context.Context, id, date, at string) (*booking.Flow, error) {
	return s.mutate(ctx, id, func(f *booking.Flow) error {
		if f.Step != booking.StepSelectDateTime {
			return httperr.ErrValidation("invalid_step")
		}
		if date != "" && at != "" {
			if err := s.checkShownFree(ctx, f, date, at); err != nil {
				return err
			}
		}
		return f.SelectSlot(date, at)
	})
}

func (s *Service) checkShownFree(ctx context.Context, f *booking.Flow, date, at string) error {
	t, err := timeofday.Parse(at)
	if err != nil {
		return httperr.ErrValidation("invalid_date_or_time")
	}

	out, err := s.availability.Execute(ctx, f.BarberID, date)
	if err != nil {
		return err
	}
	for _, slot := range out.Slots {
		if slot.Time != t {
			continue
		}
		switch slot.Reason {
		case domain.Free:
			return nil
		case domain.BusyBooked:
			return httperr.ErrConflict("time_conflict")
		case domain.BusyPast:
			return httperr.ErrValidation("slot_in_past")
		default:
			return httperr.ErrValidation("slot_in_lunch")
		}
	}
	return httperr.ErrValidation("slot_off_grid")
}

func (s *Service) SetClient(ctx context.Context, id, name, phone, notes string) (*booking.Flow, error) {
	return s.mutate(ctx, id, func(f *booking.Flow) error {
		return f.SetClient(name, phone, notes)
	})
}

func (s *Service) Back(ctx context.Context, id string, to booking.Step) (*booking.Flow, error) {
	return s.mutate(ctx, id, func(f *booking.Flow) error {
		return f.Back(to)
	})
}

// ======================================================
// AVAILABILITY
// ======================================================

// Availability is the grid for the flow's barber, with the slots this flow
// already lost on submit marked booked.
func (s *Service) Availability(ctx context.Context, id, date string) (*appointmentuc.AvailabilityOutput, error) {
	f, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.BarberID == 0 {
		return nil, httperr.ErrValidation("barber_required")
	}

	out, err := s.availability.Execute(ctx, f.BarberID, date)
	if err != nil {
		return nil, err
	}
	for i, slot := range out.Slots {
		if !slot.Busy && f.IsMarkedBusy(f.BarberID, out.Date, slot.Time.String()) {
			out.Slots[i].Busy = true
			out.Slots[i].Reason = domain.BusyBooked
		}
	}
	return out, nil
}

// ======================================================
// SUBMIT
// ======================================================

// Submit books the appointment. The flow is saved as submitting before the
// insert so a concurrent request sees it; the lock keeps it from racing.
func (s *Service) Submit(ctx context.Context, id string) (*booking.Flow, error) {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Step == booking.StepSuccess {
		// reenvio de um agendamento já confirmado
		return f, nil
	}
	f.Interrupted()

	if err := f.BeginSubmit(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, f); err != nil {
		return nil, err
	}

	ap, bookErr := s.booker.Book(ctx, appointmentuc.CreateAppointmentInput{
		BarberID:    f.BarberID,
		ServiceID:   f.ServiceID,
		ClientName:  f.ClientName,
		ClientPhone: f.ClientPhone,
		Date:        f.Date,
		Time:        f.Time,
		Notes:       f.Notes,
	})
	if bookErr != nil {
		f.Fail(bookErr)
		s.log.Info("booking submit failed",
			zap.String("flow_id", f.ID),
			zap.Error(bookErr),
		)
	} else if err := f.Succeed(ap.ID); err != nil {
		return nil, err
	}

	// usa um contexto novo: a reserva já aconteceu ou falhou
	saveCtx := context.WithoutCancel(ctx)
	if bookErr != nil {
		if err := s.store.Save(saveCtx, f); err != nil {
			return nil, err
		}
		return f, nil
	}

	// o agendamento existe: falha ao salvar não pode virar erro pro cliente
	if err := s.saveSuccess(saveCtx, f); err != nil {
		s.log.Error("booking success not saved",
			zap.String("flow_id", f.ID),
			zap.Uint("appointment_id", f.AppointmentID),
			zap.Error(err),
		)
	}
	return f, nil
}

func (s *Service) saveSuccess(ctx context.Context, f *booking.Flow) error {
	var err error
	for attempt := 0; attempt < successSaveAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * successSaveBackoff)
		}
		if err = s.store.Save(ctx, f); err == nil {
			return nil
		}
		s.log.Warn("booking success save failed",
			zap.String("flow_id", f.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return err
}
