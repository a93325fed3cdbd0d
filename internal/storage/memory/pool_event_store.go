package memory

import (
	"context"
	"sync"

	"solana-pool-tracker/internal/domain"
	"solana-pool-tracker/internal/storage"
)

// PoolEventStore is an in-memory implementation of storage.PoolEventStore.
// Insertion order is tracked separately from the lookup map so Recent can
// return events newest first without sorting.
type PoolEventStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.PoolEvent // keyed by tx signature
	order []string                     // signatures in insertion order
}

// NewPoolEventStore creates a new in-memory pool event store.
func NewPoolEventStore() *PoolEventStore {
	return &PoolEventStore{
		data: make(map[string]*domain.PoolEvent),
	}
}

// Insert adds a new pool event. Returns ErrDuplicateKey if the signature exists.
func (s *PoolEventStore) Insert(_ context.Context, e *domain.PoolEvent) error {
	if e == nil || e.TxSignature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.TxSignature]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[e.TxSignature] = &eventCopy
	s.order = append(s.order, e.TxSignature)
	return nil
}

// GetBySignature retrieves an event by signature. Returns ErrNotFound if absent.
func (s *PoolEventStore) GetBySignature(_ context.Context, signature string) (*domain.PoolEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[signature]
	if !ok {
		return nil, storage.ErrNotFound
	}

	eventCopy := *e
	return &eventCopy, nil
}

// Recent returns up to n events, newest first.
func (s *PoolEventStore) Recent(_ context.Context, n int) ([]*domain.PoolEvent, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.order) {
		n = len(s.order)
	}

	result := make([]*domain.PoolEvent, 0, n)
	for i := len(s.order) - 1; i >= len(s.order)-n; i-- {
		eventCopy := *s.data[s.order[i]]
		result = append(result, &eventCopy)
	}
	return result, nil
}

// Len returns the number of stored events.
func (s *PoolEventStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

var _ storage.PoolEventStore = (*PoolEventStore)(nil)
