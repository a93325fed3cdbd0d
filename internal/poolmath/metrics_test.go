package poolmath

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestCompute_KnownValues(t *testing.T) {
	// tokenAmount=1000, baseAmount=50, usdValue=5000
	m, err := Compute(1000, 50, 5000, 1700000000000)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !almostEqual(m.PricePerTokenBase, 0.05) {
		t.Errorf("expected pricePerTokenBase 0.05, got %f", m.PricePerTokenBase)
	}
	if !almostEqual(m.PricePerTokenUSD, 5.0) {
		t.Errorf("expected pricePerTokenUSD 5.0, got %f", m.PricePerTokenUSD)
	}

	expectedDepth := math.Sqrt(50000) // ≈ 223.607
	if !almostEqual(m.PoolDepth, expectedDepth) {
		t.Errorf("expected poolDepth %f, got %f", expectedDepth, m.PoolDepth)
	}

	expectedLiquidity := 5000 / expectedDepth // ≈ 22.36
	if !almostEqual(m.NormalizedLiquidity, expectedLiquidity) {
		t.Errorf("expected normalizedLiquidity %f, got %f", expectedLiquidity, m.NormalizedLiquidity)
	}

	if m.TimestampMs != 1700000000000 {
		t.Errorf("expected timestamp 1700000000000, got %d", m.TimestampMs)
	}
}

func TestCompute_ZeroTokenAmount(t *testing.T) {
	// Zero token reserve makes price and depth undefined.
	m, err := Compute(0, 50, 5000, 0)
	if !errors.Is(err, ErrZeroTokenAmount) {
		t.Fatalf("expected ErrZeroTokenAmount, got %v", err)
	}
	if m != nil {
		t.Errorf("expected nil metrics on error, got %+v", m)
	}
}

func TestCompute_ZeroBaseAmount(t *testing.T) {
	// Depth is zero but the computation itself is defined; normalized
	// liquidity must not become Inf.
	m, err := Compute(1000, 0, 0, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if m.PoolDepth != 0 {
		t.Errorf("expected poolDepth 0, got %f", m.PoolDepth)
	}
	if m.NormalizedLiquidity != 0 {
		t.Errorf("expected normalizedLiquidity 0, got %f", m.NormalizedLiquidity)
	}
	if math.IsInf(m.NormalizedLiquidity, 0) || math.IsNaN(m.NormalizedLiquidity) {
		t.Errorf("normalizedLiquidity must be finite, got %f", m.NormalizedLiquidity)
	}
}

func TestPctChange(t *testing.T) {
	tests := []struct {
		name string
		cur  float64
		prev float64
		want float64
		ok   bool
	}{
		{"increase", 110, 100, 10.0, true},
		{"decrease", 90, 100, -10.0, true},
		{"unchanged", 100, 100, 0.0, true},
		{"zero previous", 100, 0, 0, false},
		{"negative to positive", 50, -100, -150.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pctChange(tt.cur, tt.prev)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}
