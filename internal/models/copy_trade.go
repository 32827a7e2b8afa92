package models

import (
	"github.com/shopspring/decimal"
)

// CopyTradeResult estimates what an observer copying the trade one market
// tick late would have seen. Every field is nullable: "no swap or candle
// data" and "zero gain" are different answers and are never conflated.
type CopyTradeResult struct {
	CopyEntryPrice   *decimal.Decimal `json:"copy_entry_price"`
	PossibleGain1h   *decimal.Decimal `json:"possible_gain_1h"`
	PossibleGainFull *decimal.Decimal `json:"possible_gain_full"`
	PossibleLoss1h   *decimal.Decimal `json:"possible_loss_1h"`
	PossibleLossFull *decimal.Decimal `json:"possible_loss_full"`

	// Epoch ms of the first candle crossing +25% / +50% over the copy entry,
	// nil when the level was never reached in available data.
	TimeTo25Percent *int64 `json:"time_to_25_percent"`
	TimeTo50Percent *int64 `json:"time_to_50_percent"`
}
