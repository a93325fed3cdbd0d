// Package resolver fetches confirmed transactions for notification
// signatures, falling back across RPC endpoints when the primary cannot
// serve them.
package resolver

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"solana-pool-tracker/internal/solana"
)

// Defaults per endpoint.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 1 * time.Second
)

// Resolver retries getTransaction against a primary endpoint, then walks
// the backup endpoints in order.
type Resolver struct {
	primary   solana.RPCClient
	backups   []solana.RPCClient
	attempts  int
	baseDelay time.Duration
	logger    zerolog.Logger

	// OnRetry, if set, is invoked for each retry after a failed attempt.
	OnRetry func()
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAttempts sets the per-endpoint attempt count.
func WithAttempts(n int) Option {
	return func(r *Resolver) {
		r.attempts = n
	}
}

// WithBaseDelay sets the base of the linear retry delay.
func WithBaseDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.baseDelay = d
	}
}

// New creates a Resolver over the primary client and ordered backups.
func New(primary solana.RPCClient, backups []solana.RPCClient, logger zerolog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		primary:   primary,
		backups:   backups,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		logger:    logger.With().Str("component", "resolver").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the transaction for the signature. It tries the primary
// endpoint up to the attempt budget with linearly growing delays, then each
// backup the same way. A transaction the network does not know about is not
// an error: Resolve returns (nil, nil) once every endpoint is exhausted.
func (r *Resolver) Resolve(ctx context.Context, signature string) (*solana.Transaction, error) {
	clients := append([]solana.RPCClient{r.primary}, r.backups...)

	for i, client := range clients {
		tx, err := r.resolveOn(ctx, client, signature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn().Err(err).Int("endpoint", i).Str("signature", signature).
				Msg("endpoint exhausted, trying next")
			continue
		}
		if tx != nil {
			return tx, nil
		}
	}

	r.logger.Warn().Str("signature", signature).Msg("transaction unresolved on all endpoints")
	return nil, nil
}

// resolveOn runs the per-endpoint retry loop. Delay before attempt n is
// n * baseDelay.
func (r *Resolver) resolveOn(ctx context.Context, client solana.RPCClient, signature string) (*solana.Transaction, error) {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			if r.OnRetry != nil {
				r.OnRetry()
			}
			delay := time.Duration(attempt-1) * r.baseDelay
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		tx, err := client.GetTransaction(ctx, signature)
		if err != nil {
			lastErr = err
			continue
		}
		if tx != nil {
			return tx, nil
		}
		// Not found yet; the node may still be behind the notification.
		lastErr = nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}
