package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PgFeed listens on a NOTIFY channel with a dedicated pgx connection and
// reconnects with exponential backoff.
type PgFeed struct {
	dsn     string
	channel string
	log     *zap.Logger
}

func NewPgFeed(dsn, channel string, log *zap.Logger) *PgFeed {
	return &PgFeed{dsn: dsn, channel: channel, log: log}
}

func (f *PgFeed) Subscribe(ctx context.Context, table string, types ...EventType) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)
	go f.pump(ctx, sub, newFilter(table, types))
	return sub, nil
}

func (f *PgFeed) pump(ctx context.Context, sub *subscription, flt filter) {
	defer sub.finish()
	bo := newBackoff()

	for ctx.Err() == nil {
		sub.setStatus(StatusConnecting)

		err := f.listen(ctx, sub, flt, bo)
		if ctx.Err() != nil {
			return
		}

		sub.setStatus(StatusOffline)
		wait := bo.next()
		f.log.Warn("changefeed: listen ended, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait),
		)
		if !sleep(ctx, wait) {
			return
		}
	}
}

func (f *PgFeed) listen(ctx context.Context, sub *subscription, flt filter, bo *backoff) error {
	conn, err := pgx.Connect(ctx, f.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	sub.setStatus(StatusSubscribed)
	bo.reset()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var ev Event
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			f.log.Warn("changefeed: bad payload", zap.Error(err), zap.String("payload", n.Payload))
			continue
		}
		if flt.match(ev) {
			sub.emit(ctx, ev)
		}
	}
}
