// Package risk fetches token risk reports and condenses them into the
// authority flags that matter for a freshly created pool. A failed lookup
// yields nil rather than an error so enrichment never blocks an emit.
package risk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"solana-pool-tracker/internal/domain"
)

// DefaultURL is the Rugcheck report endpoint; the mint address and report
// path are appended.
const DefaultURL = "https://api.rugcheck.xyz/v1/tokens/"

const requestTimeout = 5 * time.Second

// Risk names as the report API spells them.
const (
	riskMutableMetadata = "Mutable metadata"
	riskFreezeAuthority = "Freeze Authority still enabled"
	riskMintAuthority   = "Mint Authority still enabled"
)

// Checker fetches and condenses risk reports for token mints.
type Checker struct {
	client *http.Client
	url    string
	logger zerolog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithURL overrides the report API base URL.
func WithURL(url string) Option {
	return func(c *Checker) {
		c.url = url
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client = client
	}
}

// New creates a risk checker.
func New(logger zerolog.Logger, opts ...Option) *Checker {
	c := &Checker{
		client: &http.Client{Timeout: requestTimeout},
		url:    DefaultURL,
		logger: logger.With().Str("component", "risk").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check fetches the risk report for the mint and condenses it into
// authority flags. Any failure returns nil; the pool event is emitted
// without a risk analysis rather than delayed or dropped.
func (c *Checker) Check(ctx context.Context, mint string) *domain.RiskAnalysis {
	risks, err := c.fetch(ctx, mint)
	if err != nil {
		c.logger.Warn().Err(err).Str("mint", mint).Msg("risk report fetch failed")
		return nil
	}
	return analyze(risks)
}

func (c *Checker) fetch(ctx context.Context, mint string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+mint+"/report", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var names []string
	for _, r := range gjson.GetBytes(body, "risks.#.name").Array() {
		names = append(names, r.String())
	}
	return names, nil
}

// analyze maps the reported risk names onto the authority flags. Unknown
// risk names are ignored.
func analyze(risks []string) *domain.RiskAnalysis {
	var flags domain.RiskFlags
	for _, name := range risks {
		switch name {
		case riskMutableMetadata:
			flags.MutableMetadata = true
		case riskFreezeAuthority:
			flags.FreezeAuthorityEnabled = true
		case riskMintAuthority:
			flags.MintAuthorityEnabled = true
		}
	}
	return &domain.RiskAnalysis{
		Flags:       flags,
		IsSafeToBuy: !flags.MutableMetadata && !flags.FreezeAuthorityEnabled && !flags.MintAuthorityEnabled,
	}
}
