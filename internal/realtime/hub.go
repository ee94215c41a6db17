// Package realtime keeps operator screens in sync with the appointment
// change feed. The Hub owns the feed subscription and fans events out to
// per-operator sessions streamed over SSE.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	"github.com/BruksfildServices01/barber-agenda/internal/config"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

type Options struct {
	AlertTTL        time.Duration
	DedupeRetention time.Duration
	RefreshTimeout  time.Duration
}

func OptionsFrom(cfg *config.Config) Options {
	return Options{
		AlertTTL:        cfg.AlertTTL,
		DedupeRetention: cfg.DedupeRetention,
		RefreshTimeout:  cfg.RefreshTimeout,
	}
}

type Hub struct {
	feed   changefeed.Feed
	loader Loader
	opts   Options
	log    *zap.Logger

	mu       sync.RWMutex
	ctx      context.Context
	sessions map[string]*Session
	status   changefeed.Status
}

func NewHub(feed changefeed.Feed, loader Loader, opts Options, log *zap.Logger) *Hub {
	return &Hub{
		feed:     feed,
		loader:   loader,
		opts:     opts,
		log:      log.Named("realtime"),
		sessions: make(map[string]*Session),
		status:   changefeed.StatusConnecting,
	}
}

// Start keeps a feed subscription alive until ctx is cancelled. Sessions
// opened on the hub live at most as long as ctx. The returned channel is
// closed once the hub has stopped.
func (h *Hub) Start(ctx context.Context) <-chan struct{} {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.run(ctx)
	}()
	return done
}

func (h *Hub) run(ctx context.Context) {
	retry := time.Second
	for ctx.Err() == nil {
		h.broadcastStatus(changefeed.StatusConnecting)

		sub, err := h.feed.Subscribe(ctx, changefeed.TableAppointments)
		if err != nil {
			h.log.Warn("change feed subscribe failed", zap.Error(err))
			h.broadcastStatus(changefeed.StatusOffline)
			if !wait(ctx, retry) {
				break
			}
			if retry < 30*time.Second {
				retry *= 2
			}
			continue
		}
		retry = time.Second

		h.consume(ctx, sub)
		sub.Unsubscribe()
		if !wait(ctx, retry) {
			break
		}
	}

	h.broadcastStatus(changefeed.StatusOffline)
}

func (h *Hub) consume(ctx context.Context, sub changefeed.Subscription) {
	events, statuses := sub.Events(), sub.Status()
	for events != nil || statuses != nil {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			h.broadcastStatus(st)
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.fanOut(ctx, ev)
		}
	}
}

func (h *Hub) fanOut(ctx context.Context, ev changefeed.Event) {
	for _, s := range h.snapshotSessions() {
		if err := s.deliver(ctx, ev); err != nil && ctx.Err() == nil {
			h.log.Debug("event not delivered", zap.String("live_session", s.ID), zap.Error(err))
		}
	}
}

func (h *Hub) broadcastStatus(st changefeed.Status) {
	h.mu.Lock()
	changed := h.status != st
	h.status = st
	h.mu.Unlock()

	if !changed {
		return
	}
	h.log.Info("change feed status", zap.String("status", string(st)))
	for _, s := range h.snapshotSessions() {
		_ = s.setStatus(st)
	}
}

func (h *Hub) snapshotSessions() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

func (h *Hub) Status() changefeed.Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// ======================================================
// SESSIONS
// ======================================================

// Open starts a live session for the operator viewing date. It ends when
// ctx is done, Close is called or the hub stops.
func (h *Hub) Open(ctx context.Context, id auth.Identity, date string, sound bool) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx == nil || h.ctx.Err() != nil {
		return nil, httperr.ErrTransport("live_unavailable", nil)
	}

	s := newSession(uuid.NewString(), id, date, sound, h.status, h.loader, h.opts, h.log)
	h.sessions[s.ID] = s

	runCtx, cancel := context.WithCancel(h.ctx)
	go func() {
		select {
		case <-ctx.Done():
		case <-runCtx.Done():
		}
		cancel()
	}()
	go func() {
		s.run(runCtx)
		cancel()
		h.mu.Lock()
		delete(h.sessions, s.ID)
		h.mu.Unlock()
	}()

	return s, nil
}

// Session returns the live session only to the operator that opened it.
func (h *Hub) Session(sid string, id auth.Identity) (*Session, error) {
	h.mu.RLock()
	s, ok := h.sessions[sid]
	h.mu.RUnlock()

	if !ok || s.Identity.UserID != id.UserID {
		return nil, httperr.ErrNotFound("live_session_not_found")
	}
	return s, nil
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
