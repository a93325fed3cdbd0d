// Package tokenmeta resolves token symbol and name for mint addresses,
// caching results and degrading to a truncated address when the metadata
// API cannot serve.
package tokenmeta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"solana-pool-tracker/internal/domain"
	"solana-pool-tracker/internal/storage"
)

// DefaultURL is the Jupiter token metadata endpoint; the mint address is
// appended to the path.
const DefaultURL = "https://tokens.jup.ag/token/"

const requestTimeout = 10 * time.Second

// Lookup fetches token metadata with a cache in front of the HTTP API.
type Lookup struct {
	client *http.Client
	url    string
	store  storage.TokenMetadataStore
	logger zerolog.Logger
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithURL overrides the metadata API base URL.
func WithURL(url string) Option {
	return func(l *Lookup) {
		l.url = url
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Lookup) {
		l.client = client
	}
}

// New creates a Lookup backed by the given cache store.
func New(store storage.TokenMetadataStore, logger zerolog.Logger, opts ...Option) *Lookup {
	l := &Lookup{
		client: &http.Client{Timeout: requestTimeout},
		url:    DefaultURL,
		store:  store,
		logger: logger.With().Str("component", "tokenmeta").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns metadata for the mint. Cache first, then the API; when the
// API cannot serve, the result carries a truncated address as symbol so
// callers always get something displayable. Fallback results are not
// cached, so a later call may still pick up real metadata.
func (l *Lookup) Get(ctx context.Context, address string) *domain.TokenMetadata {
	if cached, err := l.store.GetByAddress(ctx, address); err == nil {
		return cached
	}

	meta, err := l.fetch(ctx, address)
	if err != nil {
		l.logger.Debug().Err(err).Str("address", address).Msg("metadata fetch failed, using fallback")
		return &domain.TokenMetadata{
			Address:   address,
			Symbol:    Truncate(address),
			Name:      Truncate(address),
			FetchedAt: time.Now().UnixMilli(),
		}
	}

	if err := l.store.Upsert(ctx, meta); err != nil {
		l.logger.Warn().Err(err).Str("address", address).Msg("metadata cache write failed")
	}
	return meta
}

func (l *Lookup) fetch(ctx context.Context, address string) (*domain.TokenMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url+address, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.client.Do(req)
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

	symbol := gjson.GetBytes(body, "symbol").String()
	if symbol == "" {
		return nil, fmt.Errorf("no symbol in response")
	}

	meta := &domain.TokenMetadata{
		Address:   address,
		Symbol:    symbol,
		Name:      gjson.GetBytes(body, "name").String(),
		FetchedAt: time.Now().UnixMilli(),
	}
	if meta.Name == "" {
		meta.Name = symbol
	}
	if price := gjson.GetBytes(body, "price"); price.Exists() {
		v := price.Float()
		meta.PriceUSD = &v
	}
	return meta, nil
}

// Truncate shortens a mint address to its familiar display form.
func Truncate(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}
