// Package wallet monitors tracked wallet addresses and summarizes their
// confirmed transactions.
package wallet

import (
	"errors"

	"solana-pool-tracker/internal/domain"
	"solana-pool-tracker/internal/solana"
)

const lamportsPerSOL = 1e9

// ErrWalletNotInTransaction means the wallet address is not among the
// transaction's account keys.
var ErrWalletNotInTransaction = errors.New("wallet not in transaction accounts")

// Analyze summarizes what the transaction did to the wallet: the SOL delta
// with its direction, and every wallet-owned token balance that moved.
func Analyze(tx *solana.Transaction, wallet string) (*domain.WalletTransaction, error) {
	if tx == nil || tx.Message == nil || tx.Meta == nil {
		return nil, ErrWalletNotInTransaction
	}

	idx := -1
	for i, key := range tx.Message.AccountKeys {
		if key == wallet {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrWalletNotInTransaction
	}

	wt := &domain.WalletTransaction{
		Signature:   tx.Signature,
		Wallet:      wallet,
		TimestampMs: tx.BlockTime * 1000,
		Success:     tx.Meta.Err == nil,
	}

	if idx < len(tx.Meta.PreBalances) && idx < len(tx.Meta.PostBalances) {
		delta := float64(tx.Meta.PostBalances[idx]-tx.Meta.PreBalances[idx]) / lamportsPerSOL
		if delta >= 0 {
			wt.Type = domain.WalletTxReceive
			wt.AmountSOL = delta
		} else {
			wt.Type = domain.WalletTxSend
			wt.AmountSOL = -delta
		}
	} else {
		wt.Type = domain.WalletTxReceive
	}

	wt.TokenChanges = tokenChanges(tx.Meta, wallet)
	return wt, nil
}

// tokenChanges diffs pre/post token balances owned by the wallet, keyed by
// account index so paired legs line up even when a side is missing.
func tokenChanges(meta *solana.TransactionMeta, wallet string) []domain.TokenChange {
	type side struct {
		pre  *solana.TokenBalance
		post *solana.TokenBalance
	}
	byIndex := make(map[int]*side)

	for i := range meta.PreTokenBalances {
		b := &meta.PreTokenBalances[i]
		if b.Owner != wallet {
			continue
		}
		byIndex[b.AccountIndex] = &side{pre: b}
	}
	for i := range meta.PostTokenBalances {
		b := &meta.PostTokenBalances[i]
		if b.Owner != wallet {
			continue
		}
		if s, ok := byIndex[b.AccountIndex]; ok {
			s.post = b
		} else {
			byIndex[b.AccountIndex] = &side{post: b}
		}
	}

	var changes []domain.TokenChange
	for _, s := range byIndex {
		var change domain.TokenChange
		switch {
		case s.pre != nil && s.post != nil:
			if s.pre.UITokenAmt.Amount == s.post.UITokenAmt.Amount {
				continue
			}
			change = domain.TokenChange{
				TokenAddress: s.post.Mint,
				PreAmount:    s.pre.UITokenAmt.Amount,
				PostAmount:   s.post.UITokenAmt.Amount,
				Decimals:     s.post.UITokenAmt.Decimals,
			}
		case s.post != nil:
			change = domain.TokenChange{
				TokenAddress: s.post.Mint,
				PreAmount:    "0",
				PostAmount:   s.post.UITokenAmt.Amount,
				Decimals:     s.post.UITokenAmt.Decimals,
			}
		default:
			change = domain.TokenChange{
				TokenAddress: s.pre.Mint,
				PreAmount:    s.pre.UITokenAmt.Amount,
				PostAmount:   "0",
				Decimals:     s.pre.UITokenAmt.Decimals,
			}
		}
		changes = append(changes, change)
	}
	return changes
}
