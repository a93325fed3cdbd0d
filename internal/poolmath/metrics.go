// Package poolmath computes point-in-time financial metrics for detected
// liquidity pools and maintains a bounded per-pool observation history for
// trend deltas.
package poolmath

import (
	"errors"
	"math"

	"solana-pool-tracker/internal/domain"
)

// Computation errors.
var (
	// ErrZeroTokenAmount is returned when the token reserve is zero and
	// price/depth are undefined. Callers treat this as "metrics
	// unavailable" for the event, not as a failure of the pipeline.
	ErrZeroTokenAmount = errors.New("zero token amount: metrics undefined")
)

// Compute calculates the metrics sample for one pool observation.
//
//	pricePerTokenBase   = baseAmount / tokenAmount
//	pricePerTokenUsd    = usdValue / tokenAmount
//	poolDepth           = sqrt(tokenAmount * baseAmount)
//	normalizedLiquidity = usdValue / poolDepth
func Compute(tokenAmount, baseAmount, usdValue float64, timestampMs int64) (*domain.PoolMetrics, error) {
	if tokenAmount == 0 {
		return nil, ErrZeroTokenAmount
	}

	depth := math.Sqrt(tokenAmount * baseAmount)

	m := &domain.PoolMetrics{
		PricePerTokenBase: baseAmount / tokenAmount,
		PricePerTokenUSD:  usdValue / tokenAmount,
		PoolDepth:         depth,
		TimestampMs:       timestampMs,
	}
	if depth != 0 {
		m.NormalizedLiquidity = usdValue / depth
	}
	return m, nil
}

// pctChange returns the signed percentage change from prev to cur.
// The second return is false when prev is zero and the change is undefined.
func pctChange(cur, prev float64) (float64, bool) {
	if prev == 0 {
		return 0, false
	}
	return (cur - prev) / prev * 100, true
}
