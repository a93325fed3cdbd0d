// Package swap exposes the swap quote boundary. The tracker itself never
// trades; it asks a quoter what a trade would return so downstream
// consumers can judge pool quality.
package swap

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is the result of pricing a hypothetical swap.
type Quote struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	// InAmount and OutAmount are raw base units.
	InAmount       decimal.Decimal `json:"inAmount"`
	OutAmount      decimal.Decimal `json:"outAmount"`
	PriceImpactPct decimal.Decimal `json:"priceImpactPct"`
}

// Quoter prices a swap of amount raw base units of inputMint into
// outputMint.
type Quoter interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount decimal.Decimal) (*Quote, error)
}
