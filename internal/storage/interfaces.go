package storage

import (
	"context"

	"solana-pool-tracker/internal/domain"
)

// PoolEventStore provides access to detected pool-creation events.
// Events are append-only and keyed by transaction signature for the
// lifetime of the process.
type PoolEventStore interface {
	// Insert adds a new pool event. Returns ErrDuplicateKey if the
	// signature was already stored.
	Insert(ctx context.Context, e *domain.PoolEvent) error

	// GetBySignature retrieves an event by its transaction signature.
	// Returns ErrNotFound if not present.
	GetBySignature(ctx context.Context, signature string) (*domain.PoolEvent, error)

	// Recent returns up to n events, newest first. Used to replay pool
	// history to freshly connected subscribers.
	Recent(ctx context.Context, n int) ([]*domain.PoolEvent, error)

	// Len returns the number of stored events.
	Len(ctx context.Context) (int, error)
}

// TokenMetadataStore caches token display metadata keyed by mint address.
type TokenMetadataStore interface {
	// Upsert inserts or replaces metadata for a mint.
	Upsert(ctx context.Context, m *domain.TokenMetadata) error

	// GetByAddress retrieves metadata by mint address.
	// Returns ErrNotFound if not cached.
	GetByAddress(ctx context.Context, address string) (*domain.TokenMetadata, error)
}
