package risk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"solana-pool-tracker/internal/domain"
)

func TestChecker_FlagsReportedRisks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/MintA/report" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"risks": [
			{"name": "Mutable metadata", "level": "warn"},
			{"name": "Mint Authority still enabled", "level": "danger"},
			{"name": "Low Liquidity", "level": "warn"}
		]}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), WithURL(server.URL+"/"))
	got := c.Check(context.Background(), "MintA")
	if got == nil {
		t.Fatal("expected a risk analysis")
	}

	if !got.Flags.MutableMetadata {
		t.Error("mutable metadata flag must be set")
	}
	if !got.Flags.MintAuthorityEnabled {
		t.Error("mint authority flag must be set")
	}
	if got.Flags.FreezeAuthorityEnabled {
		t.Error("freeze authority flag must not be set")
	}
	if got.IsSafeToBuy {
		t.Error("flagged token must not be safe to buy")
	}
}

func TestChecker_NoRisksIsSafe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"risks": []}`))
	}))
	defer server.Close()

	c := New(zerolog.Nop(), WithURL(server.URL+"/"))
	got := c.Check(context.Background(), "MintA")
	if got == nil {
		t.Fatal("expected a risk analysis")
	}
	if !got.IsSafeToBuy {
		t.Error("token without flags must be safe to buy")
	}
	if got.Flags != (domain.RiskFlags{}) {
		t.Errorf("expected zero flags, got %+v", got.Flags)
	}
}

func TestChecker_APIFailureYieldsNil(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(zerolog.Nop(), WithURL(server.URL+"/"))
	if got := c.Check(context.Background(), "MintA"); got != nil {
		t.Errorf("failed lookup must yield nil, got %+v", got)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
}

func TestAnalyze_UnknownRisksIgnored(t *testing.T) {
	got := analyze([]string{"Low Liquidity", "Top holders concentration"})
	if !got.IsSafeToBuy {
		t.Error("unknown risk names must not raise flags")
	}
}
