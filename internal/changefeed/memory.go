package changefeed

import (
	"context"
	"sync"
)

// MemoryFeed is an in-process Feed and Publisher for single-instance
// deployments: whatever is published is delivered to every live subscriber.
type MemoryFeed struct {
	mu   sync.RWMutex
	subs map[*subscription]memorySub
}

type memorySub struct {
	ctx context.Context
	flt filter
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: map[*subscription]memorySub{}}
}

func (f *MemoryFeed) Subscribe(ctx context.Context, table string, types ...EventType) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	f.mu.Lock()
	f.subs[sub] = memorySub{ctx: ctx, flt: newFilter(table, types)}
	f.mu.Unlock()

	sub.setStatus(StatusSubscribed)

	go func() {
		<-ctx.Done()
		// publishers hold the read lock while sending
		f.mu.Lock()
		delete(f.subs, sub)
		sub.finish()
		f.mu.Unlock()
	}()

	return sub, nil
}

func (f *MemoryFeed) Publish(ctx context.Context, ev Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub, ms := range f.subs {
		if !ms.flt.match(ev) {
			continue
		}
		select {
		case sub.events <- ev:
		case <-ms.ctx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
