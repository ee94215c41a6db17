package realtime

import "time"

const dedupeCap = 512

// dedupe remembers appointment ids already alerted on. Entries expire after
// retention; past the cap the oldest entry is evicted.
type dedupe struct {
	retention time.Duration
	seen      map[uint]time.Time
}

func newDedupe(retention time.Duration) *dedupe {
	return &dedupe{retention: retention, seen: make(map[uint]time.Time)}
}

// firstSeen records id and reports whether it was new.
func (d *dedupe) firstSeen(id uint, now time.Time) bool {
	d.prune(now)
	if _, ok := d.seen[id]; ok {
		return false
	}
	if len(d.seen) >= dedupeCap {
		d.evictOldest()
	}
	d.seen[id] = now
	return true
}

func (d *dedupe) prune(now time.Time) {
	for id, at := range d.seen {
		if now.Sub(at) >= d.retention {
			delete(d.seen, id)
		}
	}
}

func (d *dedupe) evictOldest() {
	var (
		oldest   uint
		oldestAt time.Time
		first    = true
	)
	for id, at := range d.seen {
		if first || at.Before(oldestAt) {
			oldest, oldestAt, first = id, at, false
		}
	}
	delete(d.seen, oldest)
}
