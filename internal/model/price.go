package model

// PriceQuote is the single price snapshot used for every conversion in a report.
type PriceQuote struct {
	EthUSD  float64 `json:"ethUsd"`
	UsdcUSD float64 `json:"usdcUsd"`
}

// DefaultPriceQuote is used when the price API cannot be reached.
func DefaultPriceQuote() PriceQuote {
	return PriceQuote{EthUSD: 0, UsdcUSD: 1}
}
