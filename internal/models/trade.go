package models

import (
	"github.com/shopspring/decimal"
)

// ClosedTrade is a sell quantity matched against one buy lot. A single sell
// consuming several lots produces several ClosedTrades sharing the same exit
// price but carrying each lot's own entry price and timestamp.
type ClosedTrade struct {
	TokenAddress       string          `json:"token_address"`
	Amount             decimal.Decimal `json:"amount"`
	EntryPrice         decimal.Decimal `json:"entry_price"`
	ExitPrice          decimal.Decimal `json:"exit_price"`
	EntryTimestamp     int64           `json:"entry_timestamp"`
	ExitTimestamp      int64           `json:"exit_timestamp"`
	EntryValueUSD      decimal.Decimal `json:"entry_value_usd"`
	ExitValueUSD       decimal.Decimal `json:"exit_value_usd"`
	RealizedPnL        decimal.Decimal `json:"realized_pnl"`
	RealizedROI        decimal.Decimal `json:"realized_roi"`
	HoldingTimeSeconds int64           `json:"holding_time_seconds"`
	EntryTxHash        string          `json:"entry_tx_hash"`
	ExitTxHash         string          `json:"exit_tx_hash"`

	Rug  *RugStatus       `json:"rug,omitempty"`
	Copy *CopyTradeResult `json:"copy_trade,omitempty"`
}

// OpenPosition is the unconsumed remainder of a token's buy lots after all
// transactions in the window are processed, collapsed to one record.
type OpenPosition struct {
	TokenAddress   string          `json:"token_address"`
	Amount         decimal.Decimal `json:"amount"`
	EntryPrice     decimal.Decimal `json:"entry_price"`
	EntryTimestamp int64           `json:"entry_timestamp"`
	EntryValueUSD  decimal.Decimal `json:"entry_value_usd"`
	EntryTxHash    string          `json:"entry_tx_hash"`

	Rug  *RugStatus       `json:"rug,omitempty"`
	Copy *CopyTradeResult `json:"copy_trade,omitempty"`
}

// UnmatchedSell records sell quantity that exceeded every queued buy lot
// (airdropped or pre-window tokens). The excess is flagged, never matched
// against zero-priced lots.
type UnmatchedSell struct {
	TokenAddress string          `json:"token_address"`
	Amount       decimal.Decimal `json:"amount"`
	Timestamp    int64           `json:"timestamp"`
	TxHash       string          `json:"tx_hash"`
}
