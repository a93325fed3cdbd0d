package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCache_RefreshAndPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"solana": {"usd": 150.25}}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), WithURL(server.URL))

	if _, ok := c.Price(); ok {
		t.Fatal("price must be unavailable before first refresh")
	}

	c.Refresh(context.Background())

	price, ok := c.Price()
	if !ok {
		t.Fatal("expected price after refresh")
	}
	if price != 150.25 {
		t.Errorf("expected price 150.25, got %f", price)
	}
	if c.LastUpdated().IsZero() {
		t.Error("expected LastUpdated to be set")
	}
}

func TestCache_FailedRefreshKeepsStaleValue(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"solana": {"usd": 150}}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), WithURL(server.URL))
	c.Refresh(context.Background())

	fail.Store(true)
	c.Refresh(context.Background())

	price, ok := c.Price()
	if !ok || price != 150 {
		t.Errorf("stale price must survive a failed refresh, got (%f, %v)", price, ok)
	}
}

func TestCache_BadResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing path", `{"bitcoin": {"usd": 60000}}`},
		{"not json", `oops`},
		{"zero price", `{"solana": {"usd": 0}}`},
		{"negative price", `{"solana": {"usd": -5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := New(zerolog.Nop(), WithURL(server.URL))

			var outcome atomic.Bool
			outcome.Store(true)
			c.OnRefresh = func(ok bool) { outcome.Store(ok) }

			c.Refresh(context.Background())

			if _, ok := c.Price(); ok {
				t.Error("bad response must not populate the cache")
			}
			if outcome.Load() {
				t.Error("OnRefresh must report failure")
			}
		})
	}
}

func TestCache_ConcurrentRefreshCollapses(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		w.Write([]byte(`{"solana": {"usd": 150}}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), WithURL(server.URL))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Refresh(context.Background())
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if requests.Load() != 1 {
		t.Errorf("expected 1 in-flight fetch, got %d", requests.Load())
	}
}

func TestCache_StartRefreshesImmediatelyAndPeriodically(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"solana": {"usd": 150}}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), WithURL(server.URL), WithRefreshInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	if _, ok := c.Price(); !ok {
		t.Fatal("Start must refresh before returning")
	}

	deadline := time.Now().Add(2 * time.Second)
	for requests.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if requests.Load() < 3 {
		t.Errorf("expected periodic refreshes, got %d requests", requests.Load())
	}
}
