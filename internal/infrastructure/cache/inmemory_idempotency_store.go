package cache

import (
	"context"
	"sync"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps Idempotency-Key reservations in a map with
// per-key expiry. State is per process.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiries  map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts a goroutine that
// sweeps expired keys every sweepInterval
func NewInMemoryIdempotencyStore(sweepInterval time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expiries: make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	s.wg.Add(1)
	go s.sweepLoop(sweepInterval)
	return s
}

// MarkProcessed reserves key for ttl. It reports false if a live reservation
// already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiries[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiries[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key holds a live reservation
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiries[key]
	return ok && s.now().Before(exp), nil
}

// Release drops the reservation for key
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.expiries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored keys, expired ones included
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiries)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, exp := range s.expiries {
		if !now.Before(exp) {
			delete(s.expiries, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
