// Package changefeed delivers appointment row changes to long-lived
// consumers, either from Postgres LISTEN/NOTIFY or from a RabbitMQ fanout
// exchange.
package changefeed

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

const TableAppointments = "appointments"

type Status string

const (
	StatusConnecting Status = "connecting"
	StatusSubscribed Status = "subscribed"
	StatusOffline    Status = "offline"
)

type Event struct {
	Type          EventType `json:"type"`
	Table         string    `json:"table"`
	AppointmentID uint      `json:"id"`
	BarberID      uint      `json:"barber_id"`
	Date          string    `json:"date"`
	StartMinute   int       `json:"start_minute"`
	Status        string    `json:"status"`
	ClientName    string    `json:"client_name"`
}

type Subscription interface {
	Events() <-chan Event
	Status() <-chan Status
	Unsubscribe()
}

type Feed interface {
	Subscribe(ctx context.Context, table string, types ...EventType) (Subscription, error)
}

// Publisher announces a committed change. The Postgres trigger makes this a
// no-op in LISTEN/NOTIFY mode.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// ======================================================
// subscription plumbing shared by the feeds
// ======================================================

type filter struct {
	table string
	types map[EventType]struct{}
}

func newFilter(table string, types []EventType) filter {
	f := filter{table: table, types: map[EventType]struct{}{}}
	for _, t := range types {
		f.types[t] = struct{}{}
	}
	return f
}

func (f filter) match(ev Event) bool {
	if f.table != "" && ev.Table != f.table {
		return false
	}
	if len(f.types) == 0 {
		return true
	}
	_, ok := f.types[ev.Type]
	return ok
}

type subscription struct {
	events chan Event
	status chan Status
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSubscription(cancel context.CancelFunc) *subscription {
	return &subscription{
		events: make(chan Event, 64),
		status: make(chan Status, 4),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *subscription) Events() <-chan Event  { return s.events }
func (s *subscription) Status() <-chan Status { return s.status }

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *subscription) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// setStatus keeps only the newest status when the reader lags behind.
func (s *subscription) setStatus(st Status) {
	for {
		select {
		case s.status <- st:
			return
		default:
		}
		select {
		case <-s.status:
		default:
		}
	}
}

// finish closes the channels once the pump goroutine exits.
func (s *subscription) finish() {
	s.setStatus(StatusOffline)
	close(s.events)
	close(s.status)
	close(s.done)
}

type backoff struct {
	cur, min, max time.Duration
}

func newBackoff() *backoff {
	return &backoff{cur: time.Second, min: time.Second, max: 30 * time.Second}
}

func (b *backoff) next() time.Duration {
	d := b.cur
	if b.cur < b.max {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	return d
}

func (b *backoff) reset() { b.cur = b.min }

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
