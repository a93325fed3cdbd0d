package memory

import (
	"context"
	"sync"

	"solana-pool-tracker/internal/domain"
	"solana-pool-tracker/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of storage.TokenMetadataStore.
type TokenMetadataStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenMetadata // keyed by mint address
}

// NewTokenMetadataStore creates a new in-memory token metadata store.
func NewTokenMetadataStore() *TokenMetadataStore {
	return &TokenMetadataStore{
		data: make(map[string]*domain.TokenMetadata),
	}
}

// Upsert inserts or replaces metadata for a mint.
func (s *TokenMetadataStore) Upsert(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metaCopy := *m
	s.data[m.Address] = &metaCopy
	return nil
}

// GetByAddress retrieves metadata by mint address. Returns ErrNotFound if absent.
func (s *TokenMetadataStore) GetByAddress(_ context.Context, address string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[address]
	if !ok {
		return nil, storage.ErrNotFound
	}

	metaCopy := *m
	return &metaCopy, nil
}

var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)
