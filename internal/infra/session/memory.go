package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/domain/booking"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps flows in process. Used when REDIS_ADDR is empty and in
// tests; flows do not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	flows map[string]memoryEntry
	locks map[string]bool
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		flows: make(map[string]memoryEntry),
		locks: make(map[string]bool),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*booking.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.flows[id]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.flows, id)
		return nil, httperr.ErrNotFound("booking_not_found")
	}

	// copia via JSON, igual ao redis
	var f booking.Flow
	if err := json.Unmarshal(e.data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *MemoryStore) Save(_ context.Context, f *booking.Flow) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.flows[f.ID] = memoryEntry{data: b, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[id]; !ok {
		return httperr.ErrNotFound("booking_not_found")
	}
	delete(s.flows, id)
	return nil
}

func (s *MemoryStore) Lock(_ context.Context, id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[id] {
		return nil, httperr.ErrConflict("booking_in_progress")
	}
	s.locks[id] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.locks, id)
			s.mu.Unlock()
		})
	}, nil
}

// caller holds mu
func (s *MemoryStore) sweep() {
	now := s.now()
	for id, e := range s.flows {
		if !now.Before(e.expiresAt) {
			delete(s.flows, id)
		}
	}
}
