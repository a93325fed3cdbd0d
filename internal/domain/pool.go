package domain

// PoolEvent represents a detected liquidity-pool creation on a DEX.
// One event is produced per unique transaction signature that passes the
// initialization-marker filter and resolves successfully.
type PoolEvent struct {
	// TokenAccount is the mint address of the non-base token side.
	TokenAccount string `json:"tokenAccount"`
	// TokenAmount is the token-side reserve from post-transaction balances.
	TokenAmount float64 `json:"tokenAmount"`
	// BaseAmount is the wrapped-SOL side reserve.
	BaseAmount float64 `json:"solanaAmount"`
	// USDValue is BaseAmount valued at the cached SOL/USD reference price.
	USDValue float64 `json:"usdValue"`
	// Timestamp is the detection time in RFC 3339 format.
	Timestamp string `json:"timestamp"`
	// TxSignature uniquely identifies the creation transaction.
	TxSignature string `json:"txId"`

	// Metrics is nil when the point-in-time computation was unavailable
	// (zero token amount).
	Metrics *PoolMetrics `json:"metrics,omitempty"`
	// Changes is nil until a second observation exists for the pool.
	Changes *PoolChanges `json:"changes,omitempty"`
	// RiskAnalysis is nil when the risk report could not be fetched.
	RiskAnalysis *RiskAnalysis `json:"riskAnalysis,omitempty"`
}

// RiskFlags are the token authority risks reported for a mint.
type RiskFlags struct {
	MutableMetadata        bool `json:"mutable_metadata"`
	FreezeAuthorityEnabled bool `json:"freeze_authority_enabled"`
	MintAuthorityEnabled   bool `json:"mint_authority_enabled"`
}

// RiskAnalysis summarizes a token risk report. IsSafeToBuy is true only
// when no flag is raised.
type RiskAnalysis struct {
	Flags       RiskFlags `json:"flags"`
	IsSafeToBuy bool      `json:"isSafeToBuy"`
}

// PoolMetrics is one point-in-time metrics observation for a pool.
type PoolMetrics struct {
	PricePerTokenBase   float64 `json:"pricePerTokenSOL"`
	PricePerTokenUSD    float64 `json:"pricePerTokenUSD"`
	PoolDepth           float64 `json:"poolDepth"`
	NormalizedLiquidity float64 `json:"normalizedLiquidity"`
	// TimestampMs is the observation time in Unix milliseconds.
	TimestampMs int64 `json:"timestamp"`
}

// PoolChanges holds signed percentage deltas against the immediately
// preceding observation of the same pool.
type PoolChanges struct {
	PriceChangeBase float64 `json:"priceChangeSOL"`
	PriceChangeUSD  float64 `json:"priceChangeUSD"`
	LiquidityChange float64 `json:"liquidityChange"`
	// TimeframeMs is the gap between the two compared observations.
	TimeframeMs int64 `json:"timeframe"`
}
