package resolver

import (
	"errors"
	"strconv"

	"solana-pool-tracker/internal/solana"
)

// WSOLMint is the wrapped SOL mint, the base asset of the pools we track.
const WSOLMint = "So11111111111111111111111111111111111111112"

var (
	// ErrNoTokenBalances means the transaction metadata carries no post
	// token balances to read reserves from.
	ErrNoTokenBalances = errors.New("transaction has no post token balances")
	// ErrNoBaseLeg means no balance entry matches the base mint.
	ErrNoBaseLeg = errors.New("no base asset leg in token balances")
	// ErrNoTokenLeg means every balance entry is the base mint.
	ErrNoTokenLeg = errors.New("no non-base token leg in token balances")
)

// PoolBalances are the initial reserves read from a pool creation
// transaction.
type PoolBalances struct {
	TokenMint    string
	TokenAccount string
	TokenAmount  float64
	BaseAmount   float64
}

// ExtractPoolBalances reads the two pool legs from the post token balances:
// the base leg is the first entry whose mint equals baseMint, the token leg
// is the first entry with any other mint. Amounts come from the
// ui-normalized string so decimals are already applied.
func ExtractPoolBalances(tx *solana.Transaction, baseMint string) (*PoolBalances, error) {
	if tx == nil || tx.Meta == nil || len(tx.Meta.PostTokenBalances) == 0 {
		return nil, ErrNoTokenBalances
	}

	var (
		base     *solana.TokenBalance
		token    *solana.TokenBalance
		balances = tx.Meta.PostTokenBalances
	)
	for i := range balances {
		b := &balances[i]
		switch {
		case b.Mint == baseMint && base == nil:
			base = b
		case b.Mint != baseMint && token == nil:
			token = b
		}
		if base != nil && token != nil {
			break
		}
	}

	if base == nil {
		return nil, ErrNoBaseLeg
	}
	if token == nil {
		return nil, ErrNoTokenLeg
	}

	baseAmount, err := parseUIAmount(base.UITokenAmt)
	if err != nil {
		return nil, err
	}
	tokenAmount, err := parseUIAmount(token.UITokenAmt)
	if err != nil {
		return nil, err
	}

	pb := &PoolBalances{
		TokenMint:   token.Mint,
		TokenAmount: tokenAmount,
		BaseAmount:  baseAmount,
	}
	if tx.Message != nil && token.AccountIndex >= 0 && token.AccountIndex < len(tx.Message.AccountKeys) {
		pb.TokenAccount = tx.Message.AccountKeys[token.AccountIndex]
	}
	return pb, nil
}

func parseUIAmount(a solana.UITokenAmount) (float64, error) {
	if a.UIAmountString == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(a.UIAmountString, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
