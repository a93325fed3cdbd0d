// Package main runs the liquidity-pool tracker: it subscribes to DEX
// program logs, resolves pool-creation transactions, computes rolling pool
// metrics, and fans events out to WebSocket subscribers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-pool-tracker/internal/config"
	"solana-pool-tracker/internal/domain"
	"solana-pool-tracker/internal/hub"
	"solana-pool-tracker/internal/logging"
	"solana-pool-tracker/internal/observability"
	"solana-pool-tracker/internal/oracle"
	"solana-pool-tracker/internal/resolver"
	"solana-pool-tracker/internal/risk"
	"solana-pool-tracker/internal/solana"
	"solana-pool-tracker/internal/storage/memory"
	"solana-pool-tracker/internal/stream"
	"solana-pool-tracker/internal/swap"
	"solana-pool-tracker/internal/tokenmeta"
	"solana-pool-tracker/internal/tracker"
	"solana-pool-tracker/internal/wallet"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", os.Getenv("TRACKER_CONFIG"), "Path to YAML config file")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().
		Str("program", cfg.ProgramID).
		Str("ws", cfg.WSEndpoint).
		Int("backup_rpcs", len(cfg.BackupRPCs)).
		Msg("starting pool tracker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	eventStore := memory.NewPoolEventStore()
	metadataStore := memory.NewTokenMetadataStore()

	// Solana RPC clients: primary plus ordered backups.
	primary := solana.NewHTTPClient(cfg.RPCEndpoint)
	backups := make([]solana.RPCClient, 0, len(cfg.BackupRPCs))
	for _, url := range cfg.BackupRPCs {
		backups = append(backups, solana.NewHTTPClient(url))
	}

	res := resolver.New(primary, backups, logger,
		resolver.WithAttempts(cfg.Resolver.Attempts),
		resolver.WithBaseDelay(cfg.Resolver.BaseDelay))
	res.OnRetry = func() { observability.DefaultMetrics.ResolverRetries.Inc() }

	// Price oracle
	oracleOpts := []oracle.Option{oracle.WithRefreshInterval(cfg.PriceRefresh)}
	if cfg.PriceURL != "" {
		oracleOpts = append(oracleOpts, oracle.WithURL(cfg.PriceURL))
	}
	if cfg.PricePath != "" {
		oracleOpts = append(oracleOpts, oracle.WithPath(cfg.PricePath))
	}
	prices := oracle.New(logger, oracleOpts...)
	prices.OnRefresh = func(ok bool) {
		price, _ := prices.Price()
		observability.RecordPriceRefresh(ok, price)
	}
	prices.Start(ctx)

	// Token metadata
	metaOpts := []tokenmeta.Option{}
	if cfg.MetadataURL != "" {
		metaOpts = append(metaOpts, tokenmeta.WithURL(cfg.MetadataURL))
	}
	meta := tokenmeta.New(metadataStore, logger, metaOpts...)

	// Token risk reports, attached to each emitted pool.
	riskOpts := []risk.Option{}
	if cfg.RugcheckURL != "" {
		riskOpts = append(riskOpts, risk.WithURL(cfg.RugcheckURL))
	}
	risks := risk.New(logger, riskOpts...)

	// Swap quoter, exposed through /api/quote.
	quoteOpts := []swap.JupiterOption{swap.WithSlippageBps(cfg.SlippageBps)}
	if cfg.QuoteURL != "" {
		quoteOpts = append(quoteOpts, swap.WithQuoteURL(cfg.QuoteURL))
	}
	quoter := swap.NewJupiterQuoter(quoteOpts...)

	// Fan-out hub with last-pools replay for new subscribers.
	h := hub.New(logger, func() interface{} {
		events, err := eventStore.Recent(context.Background(), cfg.ReplayCount)
		if err != nil {
			return nil
		}
		return events
	})
	h.OnSubscribersChanged = func(n int) { observability.DefaultMetrics.Subscribers.Set(float64(n)) }
	h.OnBroadcast = observability.RecordBroadcast
	h.OnSlowClient = func() { observability.DefaultMetrics.SlowClientsKicked.Inc() }

	// Event audit trail
	sink := logging.NewCategorySink(cfg.EventLogDir)
	defer sink.Close()

	// Notification stream
	streamClient := stream.NewClient(stream.Config{
		URL:             cfg.WSEndpoint,
		ProgramID:       cfg.ProgramID,
		BaseDelay:       cfg.Stream.BaseDelay,
		MaxDelay:        cfg.Stream.MaxDelay,
		MaxAttempts:     cfg.Stream.MaxAttempts,
		CooldownPeriod:  cfg.Stream.CooldownPeriod,
		PingInterval:    cfg.Stream.PingInterval,
		LivenessTimeout: cfg.Stream.LivenessTimeout,
	}, logger)
	streamClient.OnReconnect = func() {
		observability.DefaultMetrics.StreamReconnects.Inc()
		sink.Write(logging.CategoryStream, map[string]string{"event": "reconnect"})
	}
	streamClient.OnCooldown = func() {
		observability.DefaultMetrics.StreamCooldowns.Inc()
		sink.Write(logging.CategoryStream, map[string]string{"event": "cooldown"})
	}

	// Detection pipeline
	tr := tracker.New(tracker.Config{
		Markers:        cfg.Markers,
		BaseMint:       cfg.BaseMint,
		DedupRetention: cfg.DedupRetention,
		HistoryCap:     cfg.HistoryCap,
	}, tracker.Deps{
		Events:   streamClient.Events(),
		Resolver: res,
		Prices:   prices,
		Store:    eventStore,
		Hub:      h,
		Meta:     meta,
		Risk:     risks,
		Sink:     sink,
	}, logger)

	// Wallet monitoring
	var monitor *wallet.Monitor
	if len(cfg.TrackedWallets) > 0 {
		monitor = wallet.NewMonitor(cfg.WSEndpoint, cfg.TrackedWallets, res, logger)
		monitor.OnTransaction = func(wt *domain.WalletTransaction) {
			sink.Write(logging.CategoryTransaction, wt)
			h.Broadcast(hub.EventNewTransaction, wt)
			h.Broadcast(hub.EventWalletUpdate, monitor.Status())
		}
		monitor.Start(ctx)
	}

	started := time.Now()
	buildStatus := func(ctx context.Context) statusResponse {
		n, _ := eventStore.Len(ctx)
		price, _ := prices.Price()
		resp := statusResponse{
			Status:       "running",
			Uptime:       time.Since(started).String(),
			StreamState:  streamClient.State().String(),
			Subscribers:  h.Subscribers(),
			TrackedPools: tr.History().Pools(),
			StoredEvents: n,
			SolPriceUSD:  price,
		}
		if t := prices.LastUpdated(); !t.IsZero() {
			resp.PriceUpdated = t.UTC().Format(time.RFC3339)
		}
		if monitor != nil {
			resp.Wallets = monitor.Status()
		}
		return resp
	}

	// Periodic status heartbeat for subscribers.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Broadcast(hub.EventTrackerStatus, buildStatus(ctx))
			}
		}
	}()

	// HTTP surface
	srv := newHTTPServer(cfg, eventStore, buildStatus, h, quoter, logger)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server failed")
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
		streamClient.Stop()

		select {
		case sig := <-sigCh:
			logger.Error().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error().Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	streamClient.Start(ctx)
	err = tr.Run(ctx)

	if monitor != nil {
		monitor.Stop()
	}
	h.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	if err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("tracker error")
	}
	logger.Info().Msg("shutdown complete")
}

// loadEnvFile loads .env into the environment without overriding existing
// variables.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// statusResponse is the JSON response for the /status endpoint.
type statusResponse struct {
	Status       string                `json:"status"`
	Uptime       string                `json:"uptime"`
	StreamState  string                `json:"stream_state"`
	Subscribers  int                   `json:"subscribers"`
	TrackedPools int                   `json:"tracked_pools"`
	StoredEvents int                   `json:"stored_events"`
	SolPriceUSD  float64               `json:"sol_price_usd"`
	PriceUpdated string                `json:"price_updated,omitempty"`
	Wallets      []domain.WalletStatus `json:"wallets,omitempty"`
}

func newHTTPServer(
	cfg *config.Config,
	eventStore *memory.PoolEventStore,
	buildStatus func(context.Context) statusResponse,
	h *hub.Hub,
	quoter swap.Quoter,
	logger zerolog.Logger,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(buildStatus(r.Context()))
	})

	mux.HandleFunc("/api/pools", func(w http.ResponseWriter, r *http.Request) {
		events, err := eventStore.Recent(r.Context(), cfg.ReplayCount)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	})

	mux.HandleFunc("/api/quote", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		inputMint := q.Get("inputMint")
		outputMint := q.Get("outputMint")
		amount, err := decimal.NewFromString(q.Get("amount"))
		if inputMint == "" || outputMint == "" || err != nil {
			http.Error(w, "inputMint, outputMint and amount are required", http.StatusBadRequest)
			return
		}
		quote, err := quoter.Quote(r.Context(), inputMint, outputMint, amount)
		if err != nil {
			logger.Warn().Err(err).Msg("quote failed")
			http.Error(w, "quote unavailable", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(quote)
	})

	mux.HandleFunc("/ws", h.ServeWS)

	return &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
}
