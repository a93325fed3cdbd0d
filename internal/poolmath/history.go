package poolmath

import (
	"sync"

	"solana-pool-tracker/internal/domain"
)

// DefaultHistoryCap is the per-pool sample cap. Oldest samples are evicted
// first once the cap is reached.
const DefaultHistoryCap = 100

// History maintains a bounded rolling sequence of metrics samples per pool
// and the latest delta computed from the two most recent samples.
// Safe for concurrent use.
type History struct {
	cap int

	mu      sync.RWMutex
	samples map[string][]*domain.PoolMetrics // poolID -> samples, oldest first
	deltas  map[string]*domain.PoolChanges   // poolID -> latest delta only
}

// NewHistory creates a History with the given per-pool cap.
// A cap <= 0 falls back to DefaultHistoryCap.
func NewHistory(sampleCap int) *History {
	if sampleCap <= 0 {
		sampleCap = DefaultHistoryCap
	}
	return &History{
		cap:     sampleCap,
		samples: make(map[string][]*domain.PoolMetrics),
		deltas:  make(map[string]*domain.PoolChanges),
	}
}

// Append adds a sample for the pool and returns the delta against the
// previous sample, or nil when fewer than two samples exist or any of the
// previous values is zero (division undefined — all three percentage
// changes are guarded uniformly).
func (h *History) Append(poolID string, sample *domain.PoolMetrics) *domain.PoolChanges {
	if sample == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seq := append(h.samples[poolID], sample)
	if len(seq) > h.cap {
		seq = seq[len(seq)-h.cap:]
	}
	h.samples[poolID] = seq

	if len(seq) < 2 {
		delete(h.deltas, poolID)
		return nil
	}

	prev := seq[len(seq)-2]

	priceBase, okBase := pctChange(sample.PricePerTokenBase, prev.PricePerTokenBase)
	priceUSD, okUSD := pctChange(sample.PricePerTokenUSD, prev.PricePerTokenUSD)
	liquidity, okLiq := pctChange(sample.NormalizedLiquidity, prev.NormalizedLiquidity)
	if !okBase || !okUSD || !okLiq {
		// A suppressed delta must not leave an older one behind: LatestDelta
		// always refers to the most recent append.
		delete(h.deltas, poolID)
		return nil
	}

	delta := &domain.PoolChanges{
		PriceChangeBase: priceBase,
		PriceChangeUSD:  priceUSD,
		LiquidityChange: liquidity,
		TimeframeMs:     sample.TimestampMs - prev.TimestampMs,
	}
	h.deltas[poolID] = delta
	return delta
}

// Samples returns a copy of the sample sequence for a pool, oldest first.
func (h *History) Samples(poolID string) []*domain.PoolMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seq := h.samples[poolID]
	out := make([]*domain.PoolMetrics, len(seq))
	copy(out, seq)
	return out
}

// LatestDelta returns the most recent delta for a pool, or nil.
func (h *History) LatestDelta(poolID string) *domain.PoolChanges {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deltas[poolID]
}

// Pools returns the number of pools with at least one sample.
func (h *History) Pools() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}
