package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

// memoryRepo serializes every write behind one mutex, which gives Book the
// same all-or-nothing behavior as the locked transaction.
type memoryRepo struct {
	mu       sync.Mutex
	barbers  map[uint]*models.Barber
	services map[uint]*models.Service
	clients  map[string]*models.Client
	apps     map[uint]*models.Appointment
	nextID   uint

	bookCalls int
}

func newMemoryRepo() *memoryRepo {
	ls, le := timeofday.New(12, 0), timeofday.New(13, 0)
	return &memoryRepo{
		barbers: map[uint]*models.Barber{
			1: {ID: 1, Name: "Ana", IsActive: true, LunchStart: &ls, LunchEnd: &le},
			2: {ID: 2, Name: "Bruno", IsActive: true},
		},
		services: map[uint]*models.Service{
			1: {ID: 1, Name: "Corte", DurationMinutes: 30, Price: 40, IsActive: true},
			2: {ID: 2, Name: "Corte + Barba", DurationMinutes: 60, Price: 70, IsActive: true},
			3: {ID: 3, Name: "Pigmentação", DurationMinutes: 45, Price: 90, IsActive: true},
		},
		clients: map[string]*models.Client{},
		apps:    map[uint]*models.Appointment{},
		nextID:  100,
	}
}

func (r *memoryRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) GetBarber(_ context.Context, id uint) (*models.Barber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.barbers[id]
	if !ok {
		return nil, httperr.ErrNotFound("barber_not_found")
	}
	cp := *b
	return &cp, nil
}

func (r *memoryRepo) GetService(_ context.Context, id uint) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, httperr.ErrNotFound("service_not_found")
	}
	cp := *s
	return &cp, nil
}

func (r *memoryRepo) snapshot() []models.Appointment {
	out := make([]models.Appointment, 0, len(r.apps))
	for _, ap := range r.apps {
		out = append(out, *ap)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memoryRepo) ListBlockingForBarberDate(_ context.Context, barberID uint, date time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.snapshot() {
		if ap.BarberID == barberID && timeofday.SameDate(ap.Date, date) && domain.Status(ap.Status).Blocking() {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListForPeriod(_ context.Context, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.snapshot() {
		if !ap.Date.Before(start) && ap.Date.Before(end) {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (r *memoryRepo) Book(_ context.Context, req domain.BookRequest) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookCalls++

	barber := r.barbers[req.BarberID]
	if barber == nil {
		return nil, httperr.ErrNotFound("barber_not_found")
	}

	client, ok := r.clients[req.ClientPhone]
	if !ok {
		client = &models.Client{ID: r.id(), Name: req.ClientName, Phone: req.ClientPhone}
		r.clients[req.ClientPhone] = client
	}

	if domain.Overlaps(req.Start, req.End, req.BarberID, req.Date, r.snapshot()) {
		return nil, httperr.ErrConflict("time_conflict")
	}

	ap := &models.Appointment{
		ID:        r.id(),
		ClientID:  client.ID,
		Client:    *client,
		BarberID:  req.BarberID,
		Barber:    *barber,
		ServiceID: req.ServiceID,
		Service:   *r.services[req.ServiceID],
		Date:      req.Date,
		StartTime: req.Start,
		EndTime:   req.End,
		Status:    string(domain.StatusScheduled),
		Notes:     req.Notes,
	}
	r.apps[ap.ID] = ap

	cp := *ap
	return &cp, nil
}

func (r *memoryRepo) GetAppointment(_ context.Context, id uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap, ok := r.apps[id]
	if !ok {
		return nil, httperr.ErrNotFound("appointment_not_found")
	}
	cp := *ap
	return &cp, nil
}

func (r *memoryRepo) Transition(_ context.Context, id uint, fn domain.TransitionFunc) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[id]
	if !ok {
		return nil, httperr.ErrNotFound("appointment_not_found")
	}

	work := *stored
	pay, err := fn(&work)
	if err != nil {
		return nil, err
	}
	if pay != nil {
		pay.ID = r.id()
		work.Payment = pay
	}
	*stored = work

	cp := work
	return &cp, nil
}

func (r *memoryRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap, ok := r.apps[id]
	if !ok {
		return httperr.ErrNotFound("appointment_not_found")
	}
	if ap.Payment != nil {
		return httperr.ErrReferential("appointment_has_payment", "cancel")
	}
	delete(r.apps, id)
	return nil
}

var _ domain.Repository = (*memoryRepo)(nil)

// --------------------------------------------------

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAudit) Dispatch(ev audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, ev := range a.events {
		out = append(out, ev.Action)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []changefeed.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev changefeed.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// --------------------------------------------------

var brt = time.FixedZone("BRT", -3*3600)

type fixture struct {
	repo   *memoryRepo
	audit  *recordingAudit
	events *recordingPublisher
	deps   Deps
}

// now is 2026-03-14 10:15 local unless overridden.
func newFixture(now ...time.Time) *fixture {
	at := time.Date(2026, 3, 14, 10, 15, 0, 0, brt)
	if len(now) > 0 {
		at = now[0]
	}
	f := &fixture{
		repo:   newMemoryRepo(),
		audit:  &recordingAudit{},
		events: &recordingPublisher{},
	}
	f.deps = Deps{
		Repo:   f.repo,
		Audit:  f.audit,
		Events: f.events,
		Clock:  timezone.FixedClock{At: at},
		Log:    zap.NewNop(),
	}
	return f
}

func operatorCtx() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: 1, Role: auth.RoleAdmin})
}
