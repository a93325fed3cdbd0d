// Package config loads tracker configuration from defaults, an optional
// YAML file, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Well-known addresses.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program whose logs announce new
	// pools.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// WSOLMint is the wrapped SOL mint, the base leg of tracked pools.
	WSOLMint = "So11111111111111111111111111111111111111112"
)

// Config is the full tracker configuration.
type Config struct {
	RPCEndpoint    string   `yaml:"rpc_endpoint"`
	BackupRPCs     []string `yaml:"backup_rpc_endpoints"`
	WSEndpoint     string   `yaml:"ws_endpoint"`
	ProgramID      string   `yaml:"program_id"`
	BaseMint       string   `yaml:"base_mint"`
	Markers        []string `yaml:"markers"`
	TrackedWallets []string `yaml:"tracked_wallets"`

	HTTPAddr    string `yaml:"http_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	EventLogDir string `yaml:"event_log_dir"`

	PriceURL        string        `yaml:"price_url"`
	PricePath       string        `yaml:"price_path"`
	PriceRefresh    time.Duration `yaml:"price_refresh"`
	MetadataURL     string        `yaml:"metadata_url"`
	RugcheckURL     string        `yaml:"rugcheck_url"`
	QuoteURL        string        `yaml:"quote_url"`
	SlippageBps     int           `yaml:"slippage_bps"`
	HistoryCap      int           `yaml:"history_cap"`
	ReplayCount     int           `yaml:"replay_count"`
	DedupRetention  string        `yaml:"dedup_retention"`

	Stream   StreamConfig   `yaml:"stream"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// StreamConfig tunes the WebSocket reconnect behavior.
type StreamConfig struct {
	BaseDelay       time.Duration `yaml:"base_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	MaxAttempts     int           `yaml:"max_attempts"`
	CooldownPeriod  time.Duration `yaml:"cooldown_period"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	LivenessTimeout time.Duration `yaml:"liveness_timeout"`
}

// ResolverConfig tunes per-endpoint transaction resolution.
type ResolverConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RPCEndpoint:    "https://api.mainnet-beta.solana.com",
		WSEndpoint:     "wss://api.mainnet-beta.solana.com",
		ProgramID:      RaydiumAMMV4,
		BaseMint:       WSOLMint,
		Markers:        []string{"initialize2"},
		HTTPAddr:       ":8080",
		LogLevel:       "info",
		LogFormat:      "json",
		EventLogDir:    "logs",
		PriceRefresh:   30 * time.Second,
		SlippageBps:    50,
		HistoryCap:     100,
		ReplayCount:    100,
		DedupRetention: "@every 1h",
		Stream: StreamConfig{
			BaseDelay:       1 * time.Second,
			MaxDelay:        30 * time.Second,
			MaxAttempts:     5,
			CooldownPeriod:  5 * time.Minute,
			PingInterval:    30 * time.Second,
			LivenessTimeout: 45 * time.Second,
		},
		Resolver: ResolverConfig{
			Attempts:  3,
			BaseDelay: 1 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file when path is
// non-empty, then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from TRACKER_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("TRACKER_RPC_ENDPOINT"); v != "" {
		c.RPCEndpoint = v
	}
	if v := os.Getenv("TRACKER_BACKUP_RPC_ENDPOINTS"); v != "" {
		c.BackupRPCs = splitList(v)
	}
	if v := os.Getenv("TRACKER_WS_ENDPOINT"); v != "" {
		c.WSEndpoint = v
	}
	if v := os.Getenv("TRACKER_PROGRAM_ID"); v != "" {
		c.ProgramID = v
	}
	if v := os.Getenv("TRACKER_TRACKED_WALLETS"); v != "" {
		c.TrackedWallets = splitList(v)
	}
	if v := os.Getenv("TRACKER_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("TRACKER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TRACKER_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("TRACKER_EVENT_LOG_DIR"); v != "" {
		c.EventLogDir = v
	}
	if v := os.Getenv("TRACKER_PRICE_URL"); v != "" {
		c.PriceURL = v
	}
	if v := os.Getenv("TRACKER_HISTORY_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HistoryCap = n
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks endpoints and addresses.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if c.WSEndpoint == "" {
		return fmt.Errorf("ws_endpoint is required")
	}
	if !strings.HasPrefix(c.WSEndpoint, "ws://") && !strings.HasPrefix(c.WSEndpoint, "wss://") {
		return fmt.Errorf("ws_endpoint must be a ws:// or wss:// URL")
	}

	if err := ValidateAddress(c.ProgramID); err != nil {
		return fmt.Errorf("program_id: %w", err)
	}
	if err := ValidateAddress(c.BaseMint); err != nil {
		return fmt.Errorf("base_mint: %w", err)
	}
	for _, w := range c.TrackedWallets {
		if err := ValidateWalletAddress(w); err != nil {
			return fmt.Errorf("tracked wallet %s: %w", w, err)
		}
	}

	if len(c.Markers) == 0 {
		return fmt.Errorf("at least one marker is required")
	}
	if c.HistoryCap <= 0 {
		return fmt.Errorf("history_cap must be positive")
	}
	return nil
}
