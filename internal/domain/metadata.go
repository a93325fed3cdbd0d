package domain

// TokenMetadata holds display metadata for a token mint fetched from an
// external lookup service. PriceUSD is nil when the service had no price.
type TokenMetadata struct {
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name,omitempty"`
	PriceUSD *float64 `json:"priceUsd,omitempty"`
	// FetchedAt is the lookup timestamp in Unix milliseconds.
	FetchedAt int64 `json:"fetchedAt"`
}
