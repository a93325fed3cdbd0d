package domain

// Wallet transaction direction constants.
const (
	WalletTxReceive = "RECEIVE"
	WalletTxSend    = "SEND"
)

// WalletTransaction summarizes a confirmed transaction touching a tracked wallet.
type WalletTransaction struct {
	Signature string `json:"signature"`
	Wallet    string `json:"wallet"`
	// TimestampMs is the block time in Unix milliseconds.
	TimestampMs int64 `json:"timestamp"`
	// Type is RECEIVE or SEND based on the wallet's lamport delta sign.
	Type string `json:"type"`
	// AmountSOL is the absolute lamport delta converted to SOL.
	AmountSOL float64 `json:"amount_sol"`
	Success   bool    `json:"success"`

	TokenChanges []TokenChange `json:"tokenChanges,omitempty"`
}

// TokenChange records a wallet-owned token balance moving within a transaction.
type TokenChange struct {
	TokenAddress string `json:"tokenAddress"`
	// PreAmount and PostAmount are raw base-unit amounts as decimal strings.
	PreAmount  string `json:"preAmount"`
	PostAmount string `json:"postAmount"`
	Decimals   int    `json:"decimals"`
}

// WalletStatus reports the monitoring state of one tracked wallet.
type WalletStatus struct {
	Wallet    string `json:"wallet"`
	Connected bool   `json:"connected"`
}
