package price

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yourorg/tokenapi/types"
)

// ErrCacheMiss indicates the currency has no fresh quote in the store
var ErrCacheMiss = errors.New("cache miss")

// Store keeps quotes until their TTL expires
type Store interface {
	Get(ctx context.Context, c types.Currency) (*Quote, error)
	Set(ctx context.Context, q *Quote, ttl time.Duration) error
	Delete(ctx context.Context, currencies ...types.Currency) error
	Clear(ctx context.Context) error
}

type memoryEntry struct {
	quote   Quote
	expires time.Time
}

// MemoryStore is a process local Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[types.Currency]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[types.Currency]memoryEntry),
		now:     now,
	}
}

func (s *MemoryStore) Get(_ context.Context, c types.Currency) (*Quote, error) {
	s.mu.RLock()
	e, ok := s.entries[c]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expires) {
		return nil, ErrCacheMiss
	}
	q := e.quote
	return &q, nil
}

func (s *MemoryStore) Set(_ context.Context, q *Quote, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[q.Currency] = memoryEntry{quote: *q, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, currencies ...types.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range currencies {
		delete(s.entries, c)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
	return nil
}
