package swap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// DefaultQuoteURL is the Jupiter v6 quote endpoint.
const DefaultQuoteURL = "https://quote-api.jup.ag/v6/quote"

const (
	defaultSlippageBps = 50
	requestTimeout     = 10 * time.Second
)

// JupiterQuoter implements Quoter against the Jupiter aggregator API.
type JupiterQuoter struct {
	client      *http.Client
	url         string
	slippageBps int
}

// JupiterOption configures a JupiterQuoter.
type JupiterOption func(*JupiterQuoter)

// WithQuoteURL overrides the quote endpoint.
func WithQuoteURL(u string) JupiterOption {
	return func(q *JupiterQuoter) {
		q.url = u
	}
}

// WithSlippageBps sets the slippage tolerance in basis points.
func WithSlippageBps(bps int) JupiterOption {
	return func(q *JupiterQuoter) {
		q.slippageBps = bps
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) JupiterOption {
	return func(q *JupiterQuoter) {
		q.client = client
	}
}

// NewJupiterQuoter creates a quoter against the Jupiter API.
func NewJupiterQuoter(opts ...JupiterOption) *JupiterQuoter {
	q := &JupiterQuoter{
		client:      &http.Client{Timeout: requestTimeout},
		url:         DefaultQuoteURL,
		slippageBps: defaultSlippageBps,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Quote prices the swap. Amounts are raw base units and pass through as
// decimals so no precision is lost on large supplies.
func (q *JupiterQuoter) Quote(ctx context.Context, inputMint, outputMint string, amount decimal.Decimal) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", amount.String())
	params.Set("slippageBps", fmt.Sprintf("%d", q.slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := q.client.Do(req)
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

	outAmount := gjson.GetBytes(body, "outAmount").String()
	if outAmount == "" {
		return nil, fmt.Errorf("no outAmount in response")
	}

	out, err := decimal.NewFromString(outAmount)
	if err != nil {
		return nil, fmt.Errorf("parse outAmount %q: %w", outAmount, err)
	}

	quote := &Quote{
		InputMint:  inputMint,
		OutputMint: outputMint,
		InAmount:   amount,
		OutAmount:  out,
	}

	if impact := gjson.GetBytes(body, "priceImpactPct").String(); impact != "" {
		if v, err := decimal.NewFromString(impact); err == nil {
			quote.PriceImpactPct = v
		}
	}

	return quote, nil
}

var _ Quoter = (*JupiterQuoter)(nil)
