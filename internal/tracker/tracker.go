// Package tracker wires the notification stream, dedup gate, transaction
// resolver, metrics engine, and fan-out into the pool detection pipeline.
package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"solana-pool-tracker/internal/dedup"
	"solana-pool-tracker/internal/domain"
	"solana-pool-tracker/internal/hub"
	"solana-pool-tracker/internal/logging"
	"solana-pool-tracker/internal/observability"
	"solana-pool-tracker/internal/poolmath"
	"solana-pool-tracker/internal/resolver"
	"solana-pool-tracker/internal/solana"
	"solana-pool-tracker/internal/storage"
	"solana-pool-tracker/internal/stream"
	"solana-pool-tracker/internal/tokenmeta"
)

// DefaultMarker is the Raydium AMM log line that identifies pool creation.
const DefaultMarker = "initialize2"

// TxResolver resolves a signature into a confirmed transaction.
type TxResolver interface {
	Resolve(ctx context.Context, signature string) (*solana.Transaction, error)
}

// PriceSource serves the cached SOL/USD reference price.
type PriceSource interface {
	Price() (float64, bool)
}

// Broadcaster fans events out to subscribers.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// RiskChecker reports the authority risk analysis for a token mint, or nil
// when no report is available.
type RiskChecker interface {
	Check(ctx context.Context, mint string) *domain.RiskAnalysis
}

// Config tunes the detection pipeline.
type Config struct {
	// Markers are the log substrings that identify pool creation. A
	// notification matches when any marker appears in any log line.
	Markers []string
	// BaseMint identifies the base asset leg of tracked pools.
	BaseMint string
	// DedupRetention is the cron spec for clearing processed signatures.
	DedupRetention string
	// HistoryCap bounds the per-pool metrics history. Zero uses the
	// poolmath default.
	HistoryCap int
}

func (c *Config) applyDefaults() {
	if len(c.Markers) == 0 {
		c.Markers = []string{DefaultMarker}
	}
	if c.BaseMint == "" {
		c.BaseMint = resolver.WSOLMint
	}
	if c.DedupRetention == "" {
		c.DedupRetention = dedup.DefaultRetention
	}
}

// Deps are the collaborators the tracker drives.
type Deps struct {
	Events   <-chan stream.LogEvent
	Resolver TxResolver
	Prices   PriceSource
	Store    storage.PoolEventStore
	Hub      Broadcaster

	// Meta, Risk, and Sink are optional enrichment and audit collaborators.
	Meta *tokenmeta.Lookup
	Risk RiskChecker
	Sink *logging.CategorySink
}

// Tracker consumes log notifications and produces pool events.
type Tracker struct {
	cfg    Config
	deps   Deps
	dedup  *dedup.SignatureSet
	hist   *poolmath.History
	cron   *cron.Cron
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// New creates a tracker. Call Run to start consuming.
func New(cfg Config, deps Deps, logger zerolog.Logger) *Tracker {
	cfg.applyDefaults()
	return &Tracker{
		cfg:    cfg,
		deps:   deps,
		dedup:  dedup.NewSignatureSet(),
		hist:   poolmath.NewHistory(cfg.HistoryCap),
		logger: logger.With().Str("component", "tracker").Logger(),
	}
}

// History exposes the rolling metrics history, mainly for status reporting.
func (t *Tracker) History() *poolmath.History {
	return t.hist
}

// Run consumes notifications until the events channel closes or ctx is
// cancelled, then waits for in-flight resolutions to finish.
func (t *Tracker) Run(ctx context.Context) error {
	t.cron = cron.New()
	if _, err := t.cron.AddFunc(t.cfg.DedupRetention, func() {
		n := t.dedup.Clear()
		t.logger.Info().Int("cleared", n).Msg("dedup retention window elapsed")
	}); err != nil {
		return err
	}
	t.cron.Start()
	defer t.cron.Stop()

	for {
		select {
		case ev, ok := <-t.deps.Events:
			if !ok {
				t.wg.Wait()
				return nil
			}
			t.handle(ctx, ev)
		case <-ctx.Done():
			t.wg.Wait()
			return ctx.Err()
		}
	}
}

// handle applies the cheap filters inline and hands survivors to a
// resolution goroutine.
func (t *Tracker) handle(ctx context.Context, ev stream.LogEvent) {
	observability.RecordNotification()

	if ev.Err != nil {
		observability.RecordFiltered("failed_tx")
		return
	}
	if !matchesMarker(ev.Logs, t.cfg.Markers) {
		observability.RecordFiltered("no_marker")
		return
	}
	if !t.dedup.Begin(ev.Signature) {
		observability.RecordDuplicate()
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.process(ctx, ev.Signature)
	}()
}

// process resolves one claimed signature through to an emitted pool event.
func (t *Tracker) process(ctx context.Context, signature string) {
	start := time.Now()

	tx, err := t.deps.Resolver.Resolve(ctx, signature)
	if err != nil || tx == nil {
		// Unresolved now may resolve on a repeat notification.
		t.dedup.Release(signature)
		if err != nil {
			t.logger.Warn().Err(err).Str("signature", signature).Msg("resolution failed")
		}
		observability.DefaultMetrics.ResolverFailures.Inc()
		return
	}
	observability.DefaultMetrics.ResolveLatency.Observe(time.Since(start).Seconds())

	if tx.Meta != nil && tx.Meta.Err != nil {
		t.dedup.Mark(signature)
		observability.RecordFiltered("failed_tx")
		return
	}

	balances, err := resolver.ExtractPoolBalances(tx, t.cfg.BaseMint)
	if err != nil {
		// Matched the marker but carries no readable pool legs. It never
		// will, so remember it as processed.
		t.dedup.Mark(signature)
		observability.RecordFiltered("no_balances")
		t.logger.Debug().Err(err).Str("signature", signature).Msg("no pool balances")
		return
	}

	event := t.buildEvent(signature, balances)

	if t.deps.Risk != nil {
		event.RiskAnalysis = t.deps.Risk.Check(ctx, event.TokenAccount)
	}

	if t.deps.Store != nil {
		if err := t.deps.Store.Insert(ctx, event); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			t.logger.Warn().Err(err).Str("signature", signature).Msg("store insert failed")
		}
	}

	if t.deps.Sink != nil {
		t.deps.Sink.Write(logging.CategoryPoolTracking, event)
	}
	if t.deps.Hub != nil {
		t.deps.Hub.Broadcast(hub.EventNewPool, event)
	}

	t.dedup.Mark(signature)
	observability.RecordPoolDetected(time.Now().Unix())
	observability.DefaultMetrics.TrackedPools.Set(float64(t.hist.Pools()))

	log := t.logger.Info().
		Str("signature", signature).
		Str("tokenAccount", event.TokenAccount).
		Float64("solanaAmount", event.BaseAmount).
		Float64("usdValue", event.USDValue)
	if t.deps.Meta != nil {
		log = log.Str("symbol", t.deps.Meta.Get(ctx, event.TokenAccount).Symbol)
	}
	log.Msg("new pool detected")
}

// buildEvent values the pool and attaches point-in-time metrics plus the
// delta against the previous observation when one exists.
func (t *Tracker) buildEvent(signature string, balances *resolver.PoolBalances) *domain.PoolEvent {
	now := time.Now()

	var usdValue float64
	if price, ok := t.deps.Prices.Price(); ok {
		usdValue = balances.BaseAmount * price
	}

	poolID := balances.TokenAccount
	if poolID == "" {
		poolID = balances.TokenMint
	}

	event := &domain.PoolEvent{
		TokenAccount: balances.TokenMint,
		TokenAmount:  balances.TokenAmount,
		BaseAmount:   balances.BaseAmount,
		USDValue:     usdValue,
		Timestamp:    now.UTC().Format(time.RFC3339),
		TxSignature:  signature,
	}

	metrics, err := poolmath.Compute(balances.TokenAmount, balances.BaseAmount, usdValue, now.UnixMilli())
	if err != nil {
		return event
	}
	event.Metrics = metrics
	event.Changes = t.hist.Append(poolID, metrics)
	return event
}

func matchesMarker(logs []string, markers []string) bool {
	for _, line := range logs {
		for _, marker := range markers {
			if marker != "" && strings.Contains(line, marker) {
				return true
			}
		}
	}
	return false
}
