package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface consumed by the tracker.
type RPCClient interface {
	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns (nil, nil) when the transaction is not yet available.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string

	// PreBalances and PostBalances are lamport balances per account index.
	PreBalances  []int64
	PostBalances []int64

	// PreTokenBalances and PostTokenBalances are SPL token balances
	// before and after execution.
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// TokenBalance is one SPL token balance entry from transaction metadata.
type TokenBalance struct {
	AccountIndex int           `json:"accountIndex"`
	Mint         string        `json:"mint"`
	Owner        string        `json:"owner"`
	UITokenAmt   UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount is the ui-normalized token amount from RPC.
type UITokenAmount struct {
	Amount         string `json:"amount"` // raw base units as decimal string
	Decimals       int    `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}
