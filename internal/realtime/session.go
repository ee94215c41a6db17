package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	"github.com/BruksfildServices01/barber-agenda/internal/dto"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

var ErrSessionClosed = errors.New("live session closed")

// Loader reads the day list. *appointment.ListAppointmentsByDate satisfies it.
type Loader interface {
	Execute(ctx context.Context, date string) ([]dto.AppointmentListDTO, error)
}

// Session is one operator's live view. Every state change runs on the
// session goroutine, fed by a single command channel, so a manual load and
// a feed-triggered refresh never interleave.
type Session struct {
	ID       string
	Identity auth.Identity

	loader Loader
	opts   Options
	log    *zap.Logger

	cmds chan func(ctx context.Context)
	out  chan Message
	done chan struct{}

	// owned by the run goroutine
	status   changefeed.Status
	date     string
	list     []dto.AppointmentListDTO
	stale    bool
	sound    bool
	alert    *Alert
	alertSeq uint64
	seen     *dedupe
}

func newSession(
	id string,
	identity auth.Identity,
	date string,
	sound bool,
	status changefeed.Status,
	loader Loader,
	opts Options,
	log *zap.Logger,
) *Session {
	return &Session{
		ID:       id,
		Identity: identity,
		loader:   loader,
		opts:     opts,
		log:      log.With(zap.String("live_session", id), zap.Uint("user_id", identity.UserID)),
		cmds:     make(chan func(ctx context.Context), 64),
		out:      make(chan Message, 64),
		done:     make(chan struct{}),
		status:   status,
		date:     date,
		sound:    sound,
		seen:     newDedupe(opts.DedupeRetention),
	}
}

// Messages is the outbound stream. It is closed when the session ends.
func (s *Session) Messages() <-chan Message { return s.out }

func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run(ctx context.Context) {
	defer close(s.out)
	defer close(s.done)

	s.emit(MsgStatus, StatusData{Status: s.status})
	s.emit(MsgSound, SoundData{Enabled: s.sound})
	s.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			cmd(ctx)
		}
	}
}

func (s *Session) enqueue(cmd func(ctx context.Context)) error {
	if s.closed() {
		return ErrSessionClosed
	}
	select {
	case s.cmds <- cmd:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// emit never blocks the session loop; a reader that stops draining loses
// messages rather than stalling alerts for everyone else.
func (s *Session) emit(typ string, data any) {
	select {
	case s.out <- Message{Type: typ, Data: data}:
	default:
		s.log.Warn("live message dropped", zap.String("type", typ))
	}
}

// ======================================================
// OPERATOR ACTIONS
// ======================================================

// LoadDate switches the viewed date and reloads the list.
func (s *Session) LoadDate(date string) error {
	d, err := timeofday.ParseDate(date)
	if err != nil {
		return httperr.ErrValidation("invalid_date")
	}
	date = timeofday.FormatDate(d)

	return s.enqueue(func(ctx context.Context) {
		if s.date != date {
			// lista pertence à data anterior
			s.list = nil
		}
		s.date = date
		s.refresh(ctx)
	})
}

// SetSound is the explicit enable/disable action.
func (s *Session) SetSound(enabled bool) error {
	return s.enqueue(func(ctx context.Context) {
		s.retryIfStale(ctx)
		s.sound = enabled
		s.emit(MsgSound, SoundData{Enabled: enabled})
	})
}

// SoundBlocked is reported by the browser when playback was rejected.
// Sound stays off until SetSound(true).
func (s *Session) SoundBlocked() error {
	return s.enqueue(func(ctx context.Context) {
		if !s.sound {
			return
		}
		s.sound = false
		s.emit(MsgSound, SoundData{Enabled: false})
	})
}

func (s *Session) Dismiss(seq uint64) error {
	return s.enqueue(func(ctx context.Context) {
		s.retryIfStale(ctx)
		s.dismiss(seq)
	})
}

func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	reply := make(chan Snapshot, 1)
	err := s.enqueue(func(context.Context) {
		snap := Snapshot{
			ID:           s.ID,
			Status:       s.status,
			Date:         s.date,
			Stale:        s.stale,
			SoundEnabled: s.sound,
			Appointments: append([]dto.AppointmentListDTO(nil), s.list...),
		}
		if s.alert != nil {
			a := *s.alert
			snap.Alert = &a
		}
		reply <- snap
	})
	if err != nil {
		return nil, err
	}

	select {
	case snap := <-reply:
		return &snap, nil
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ======================================================
// FEED
// ======================================================

func (s *Session) deliver(ctx context.Context, ev changefeed.Event) error {
	if s.closed() {
		return ErrSessionClosed
	}
	select {
	case s.cmds <- func(ctx context.Context) { s.handleEvent(ctx, ev) }:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) setStatus(st changefeed.Status) error {
	return s.enqueue(func(ctx context.Context) {
		prev := s.status
		s.status = st
		s.emit(MsgStatus, StatusData{Status: st})

		// eventos podem ter se perdido enquanto offline
		if st == changefeed.StatusSubscribed && prev != changefeed.StatusSubscribed {
			s.refresh(ctx)
		}
	})
}

func (s *Session) handleEvent(ctx context.Context, ev changefeed.Event) {
	if ev.Type != changefeed.Insert {
		if ev.Date == s.date || s.stale {
			s.refresh(ctx)
		}
		return
	}

	if !s.seen.firstSeen(ev.AppointmentID, time.Now()) {
		s.log.Debug("duplicate insert dropped", zap.Uint("appointment_id", ev.AppointmentID))
		s.retryIfStale(ctx)
		return
	}

	if ev.Date == s.date || s.stale {
		s.refresh(ctx)
	}
	s.raiseAlert(ev)
}

// ======================================================
// internals
// ======================================================

func (s *Session) refresh(ctx context.Context) {
	if s.date == "" {
		return
	}

	ctx, cancel := context.WithTimeout(auth.WithIdentity(ctx, s.Identity), s.opts.RefreshTimeout)
	defer cancel()

	list, err := s.loader.Execute(ctx, s.date)
	if err != nil {
		s.stale = true
		s.log.Warn("live refresh failed", zap.String("date", s.date), zap.Error(err))
		s.emit(MsgNotice, noticeFor(err))
		s.emit(MsgAppointments, AppointmentsData{Date: s.date, Stale: true, Appointments: append([]dto.AppointmentListDTO{}, s.list...)})
		return
	}

	s.stale = false
	s.list = list
	s.emit(MsgAppointments, AppointmentsData{Date: s.date, Appointments: list})
}

func (s *Session) retryIfStale(ctx context.Context) {
	if s.stale {
		s.refresh(ctx)
	}
}

func (s *Session) raiseAlert(ev changefeed.Event) {
	s.alertSeq++
	seq := s.alertSeq
	start := timeofday.TimeOfDay(ev.StartMinute).String()

	s.alert = &Alert{
		Seq:           seq,
		AppointmentID: ev.AppointmentID,
		ClientName:    ev.ClientName,
		Date:          ev.Date,
		StartTime:     start,
		Text:          fmt.Sprintf("Novo agendamento: %s às %s", ev.ClientName, start),
	}
	s.emit(MsgAlert, *s.alert)
	if s.sound {
		s.emit(MsgChime, nil)
	}

	time.AfterFunc(s.opts.AlertTTL, func() {
		_ = s.enqueue(func(context.Context) { s.dismiss(seq) })
	})
}

// dismiss only clears the alert it was aimed at; a newer alert survives the
// timer of an older one.
func (s *Session) dismiss(seq uint64) {
	if s.alert == nil || s.alert.Seq != seq {
		return
	}
	s.alert = nil
	s.emit(MsgAlertDismissed, DismissedData{Seq: seq})
}

// A failed refresh is always reported as a transport problem; the list on
// screen is kept and flagged stale.
func noticeFor(err error) NoticeData {
	code := "refresh_failed"
	if be, ok := httperr.As(err); ok {
		code = be.Code
	}
	return NoticeData{
		Kind:    httperr.KindTransport,
		Code:    code,
		Message: "Sem conexão com o servidor; a agenda pode estar desatualizada",
	}
}
