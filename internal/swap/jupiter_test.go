package swap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestJupiterQuoter_Quote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("inputMint") != "mintA" || q.Get("outputMint") != "mintB" {
			t.Errorf("unexpected mints: %s -> %s", q.Get("inputMint"), q.Get("outputMint"))
		}
		if q.Get("amount") != "1000000000" {
			t.Errorf("unexpected amount: %s", q.Get("amount"))
		}
		if q.Get("slippageBps") != "100" {
			t.Errorf("unexpected slippageBps: %s", q.Get("slippageBps"))
		}
		w.Write([]byte(`{
			"inAmount": "1000000000",
			"outAmount": "123456789012345678901234567890",
			"priceImpactPct": "0.0012"
		}`))
	}))
	defer server.Close()

	quoter := NewJupiterQuoter(WithQuoteURL(server.URL), WithSlippageBps(100))

	amount := decimal.NewFromInt(1000000000)
	quote, err := quoter.Quote(context.Background(), "mintA", "mintB", amount)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	// Amounts past float64 precision must survive exactly.
	wantOut, _ := decimal.NewFromString("123456789012345678901234567890")
	if !quote.OutAmount.Equal(wantOut) {
		t.Errorf("expected outAmount %s, got %s", wantOut, quote.OutAmount)
	}
	if !quote.InAmount.Equal(amount) {
		t.Errorf("expected inAmount %s, got %s", amount, quote.InAmount)
	}

	wantImpact, _ := decimal.NewFromString("0.0012")
	if !quote.PriceImpactPct.Equal(wantImpact) {
		t.Errorf("expected priceImpactPct %s, got %s", wantImpact, quote.PriceImpactPct)
	}
}

func TestJupiterQuoter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	quoter := NewJupiterQuoter(WithQuoteURL(server.URL))

	_, err := quoter.Quote(context.Background(), "mintA", "mintB", decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("expected error on API failure")
	}
}

func TestJupiterQuoter_MissingOutAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"inAmount": "1"}`))
	}))
	defer server.Close()

	quoter := NewJupiterQuoter(WithQuoteURL(server.URL))

	_, err := quoter.Quote(context.Background(), "mintA", "mintB", decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("expected error on malformed response")
	}
}
