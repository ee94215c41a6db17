package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const Exchange = "appointments.changes"

func declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		Exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}

// ======================================================
// FEED
// ======================================================

// AMQPFeed consumes the fanout exchange through an exclusive, auto-deleted
// queue per subscription.
type AMQPFeed struct {
	url string
	log *zap.Logger
}

func NewAMQPFeed(url string, log *zap.Logger) *AMQPFeed {
	return &AMQPFeed{url: url, log: log}
}

func (f *AMQPFeed) Subscribe(ctx context.Context, table string, types ...EventType) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)
	go f.pump(ctx, sub, newFilter(table, types))
	return sub, nil
}

func (f *AMQPFeed) pump(ctx context.Context, sub *subscription, flt filter) {
	defer sub.finish()
	bo := newBackoff()

	for ctx.Err() == nil {
		sub.setStatus(StatusConnecting)

		err := f.consume(ctx, sub, flt, bo)
		if ctx.Err() != nil {
			return
		}

		sub.setStatus(StatusOffline)
		wait := bo.next()
		f.log.Warn("changefeed: consumer ended, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait),
		)
		if !sleep(ctx, wait) {
			return
		}
	}
}

func (f *AMQPFeed) consume(ctx context.Context, sub *subscription, flt filter, bo *backoff) error {
	conn, err := amqp.Dial(f.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	sub.setStatus(StatusSubscribed)
	bo.reset()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}

			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				f.log.Warn("changefeed: bad message", zap.Error(err))
				continue
			}
			if flt.match(ev) {
				sub.emit(ctx, ev)
			}
		}
	}
}

// ======================================================
// PUBLISHER
// ======================================================

// AMQPPublisher keeps one connection and reopens it lazily after a failure.
type AMQPPublisher struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.Warn("changefeed: publisher unavailable", zap.Error(err))
		return err
	}

	err = ch.PublishWithContext(ctx, Exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		p.log.Warn("changefeed: publish failed", zap.Error(err), zap.Uint("appointment_id", ev.AppointmentID))
		p.closeLocked()
	}
	return err
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
