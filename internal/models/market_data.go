package models

import (
	"github.com/shopspring/decimal"
)

// Swap is one entry of a token's global market feed. Field names mirror the
// provider's compact wire keys.
type Swap struct {
	Ts             int64           `json:"ts"`
	Height         int64           `json:"h"`
	TxHash         string          `json:"tx"`
	Maker          string          `json:"ma"`
	Token0         string          `json:"t0a"`
	Token1         string          `json:"t1a"`
	Token0PriceUSD decimal.Decimal `json:"t0pu"`
	Token1PriceUSD decimal.Decimal `json:"t1pu"`
}

// PriceOf returns the unit price of the given token inside this swap's pair.
func (s Swap) PriceOf(token string) (decimal.Decimal, bool) {
	switch token {
	case s.Token0:
		return s.Token0PriceUSD, s.Token0PriceUSD.GreaterThan(decimal.Zero)
	case s.Token1:
		return s.Token1PriceUSD, s.Token1PriceUSD.GreaterThan(decimal.Zero)
	}
	return decimal.Zero, false
}

// Before orders swaps by (timestamp, block height) ascending.
func (s Swap) Before(other Swap) bool {
	if s.Ts != other.Ts {
		return s.Ts < other.Ts
	}
	return s.Height < other.Height
}

// Candle is one OHLC bar of the token's price history.
type Candle struct {
	Timestamp int64           `json:"timestamp_ms"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}
