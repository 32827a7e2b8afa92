package models

import (
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Transaction is one on-chain buy or sell of a token, as delivered by the
// data provider. Ordering inside the engine is always by (Timestamp,
// BlockHeight) so that same-millisecond fills resolve deterministically.
type Transaction struct {
	TokenAddress string          `json:"token_address"`
	Side         Side            `json:"side"`
	Amount       decimal.Decimal `json:"amount"`
	USDValue     decimal.Decimal `json:"usd_value"`
	Price        decimal.Decimal `json:"price"`
	Timestamp    int64           `json:"timestamp_ms"`
	TxHash       string          `json:"tx_hash"`
	BlockHeight  int64           `json:"block_height"`
}

// Valid reports whether the transaction carries the fields matching needs.
// Zero-amount and unpriced transactions are excluded from reconstruction.
func (t Transaction) Valid() bool {
	if t.TokenAddress == "" || t.Timestamp <= 0 {
		return false
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return false
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if t.Price.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return true
}

// Before orders transactions by timestamp with block height as tiebreaker.
func (t Transaction) Before(other Transaction) bool {
	if t.Timestamp != other.Timestamp {
		return t.Timestamp < other.Timestamp
	}
	return t.BlockHeight < other.BlockHeight
}
