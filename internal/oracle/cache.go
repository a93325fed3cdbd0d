// Package oracle caches the SOL/USD price from an external HTTP price API.
// Reads never block on the network: callers get the last refreshed value.
package oracle

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Defaults for the public CoinGecko simple price endpoint.
const (
	DefaultURL             = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"
	DefaultPath            = "solana.usd"
	DefaultRefreshInterval = 30 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
)

// Cache periodically refreshes the price and serves it from memory.
type Cache struct {
	client   *http.Client
	url      string
	path     string
	interval time.Duration
	logger   zerolog.Logger

	priceBits atomic.Uint64 // float64 bits; zero means never fetched
	fetchedAt atomic.Int64  // unix milliseconds
	inflight  atomic.Bool

	// OnRefresh, if set, is invoked after each refresh attempt with its
	// outcome. Used for observability counters.
	OnRefresh func(ok bool)
}

// Option configures a Cache.
type Option func(*Cache)

// WithURL overrides the price API endpoint.
func WithURL(url string) Option {
	return func(c *Cache) {
		c.url = url
	}
}

// WithPath overrides the JSON path the price is read from.
func WithPath(path string) Option {
	return func(c *Cache) {
		c.path = path
	}
}

// WithRefreshInterval overrides the refresh period.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.interval = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		c.client = client
	}
}

// New creates a price cache. Call Start to begin refreshing.
func New(logger zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		client:   &http.Client{Timeout: DefaultRequestTimeout},
		url:      DefaultURL,
		path:     DefaultPath,
		interval: DefaultRefreshInterval,
		logger:   logger.With().Str("component", "oracle").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start refreshes once immediately, then on the configured interval until
// ctx is cancelled.
func (c *Cache) Start(ctx context.Context) {
	c.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Refresh(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Price returns the cached price. ok is false until the first successful
// refresh; after that the value stays available even when refreshes fail,
// growing stale rather than disappearing.
func (c *Cache) Price() (price float64, ok bool) {
	bits := c.priceBits.Load()
	if bits == 0 {
		return 0, false
	}
	return math.Float64frombits(bits), true
}

// LastUpdated returns when the price was last refreshed successfully, or
// the zero time if never.
func (c *Cache) LastUpdated() time.Time {
	ms := c.fetchedAt.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Refresh fetches the price once. Concurrent calls collapse to one fetch;
// the losers return immediately. Failures leave the cached value untouched.
func (c *Cache) Refresh(ctx context.Context) {
	if !c.inflight.CompareAndSwap(false, true) {
		return
	}
	defer c.inflight.Store(false)

	price, err := c.fetch(ctx)
	ok := err == nil
	if ok {
		c.priceBits.Store(math.Float64bits(price))
		c.fetchedAt.Store(time.Now().UnixMilli())
		c.logger.Debug().Float64("price", price).Msg("price refreshed")
	} else {
		c.logger.Warn().Err(err).Msg("price refresh failed, keeping cached value")
	}

	if c.OnRefresh != nil {
		c.OnRefresh(ok)
	}
}

func (c *Cache) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	result := gjson.GetBytes(body, c.path)
	if !result.Exists() {
		return 0, fmt.Errorf("price path %q not found in response", c.path)
	}

	price := result.Float()
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %f", price)
	}
	return price, nil
}
