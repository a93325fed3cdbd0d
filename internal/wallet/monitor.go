package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"solana-pool-tracker/internal/domain"
	"solana-pool-tracker/internal/resolver"
	"solana-pool-tracker/internal/stream"
)

// Monitor subscribes to log notifications mentioning each tracked wallet,
// resolves the underlying transactions, and emits summaries.
type Monitor struct {
	wsURL    string
	wallets  []string
	resolver *resolver.Resolver
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[string]*stream.Client

	// OnTransaction receives each analyzed wallet transaction.
	OnTransaction func(*domain.WalletTransaction)

	wg sync.WaitGroup
}

// NewMonitor creates a monitor for the given wallet addresses.
func NewMonitor(wsURL string, wallets []string, res *resolver.Resolver, logger zerolog.Logger) *Monitor {
	return &Monitor{
		wsURL:    wsURL,
		wallets:  wallets,
		resolver: res,
		logger:   logger.With().Str("component", "wallet").Logger(),
		clients:  make(map[string]*stream.Client),
	}
}

// Start opens one subscription per wallet and begins processing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.wallets {
		client := stream.NewClient(stream.Config{
			URL:       m.wsURL,
			ProgramID: w,
		}, m.logger)
		client.Start(ctx)
		m.clients[w] = client

		m.wg.Add(1)
		go m.consume(ctx, w, client)
	}
}

// Stop shuts down all wallet subscriptions and waits for processing to
// finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	clients := make([]*stream.Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.Stop()
	}
	m.wg.Wait()
}

// Status reports the connection state per tracked wallet.
func (m *Monitor) Status() []domain.WalletStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]domain.WalletStatus, 0, len(m.wallets))
	for _, w := range m.wallets {
		connected := false
		if c, ok := m.clients[w]; ok {
			connected = c.State() == stream.StateConnected
		}
		statuses = append(statuses, domain.WalletStatus{Wallet: w, Connected: connected})
	}
	return statuses
}

func (m *Monitor) consume(ctx context.Context, wallet string, client *stream.Client) {
	defer m.wg.Done()

	for ev := range client.Events() {
		tx, err := m.resolver.Resolve(ctx, ev.Signature)
		if err != nil || tx == nil {
			if err != nil && ctx.Err() != nil {
				return
			}
			continue
		}

		wt, err := Analyze(tx, wallet)
		if err != nil {
			if !errors.Is(err, ErrWalletNotInTransaction) {
				m.logger.Warn().Err(err).Str("signature", ev.Signature).Msg("analyze failed")
			}
			continue
		}

		m.logger.Info().
			Str("wallet", wallet).
			Str("signature", wt.Signature).
			Str("type", wt.Type).
			Float64("amount_sol", wt.AmountSOL).
			Msg("wallet transaction")

		if m.OnTransaction != nil {
			m.OnTransaction(wt)
		}
	}
}
