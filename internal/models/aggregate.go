package models

import (
	"github.com/shopspring/decimal"
)

// TokenStatus is the display classification of one traded token, derived
// purely from counts and flags.
type TokenStatus string

const (
	TokenStatusRugged  TokenStatus = "RUGGED"
	TokenStatusHolding TokenStatus = "HOLDING"
	TokenStatusExited  TokenStatus = "EXITED"
	TokenStatusEscaped TokenStatus = "ESCAPED"
	TokenStatusPartial TokenStatus = "PARTIAL"
	TokenStatusUnknown TokenStatus = "UNKNOWN"
)

type TokenAggregate struct {
	TokenAddress  string `json:"token_address"`
	TotalTrades   int    `json:"total_trades"`
	ClosedTrades  int    `json:"closed_trades"`
	OpenPositions int    `json:"open_positions"`

	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalReturned decimal.Decimal `json:"total_returned"`
	NetPnL        decimal.Decimal `json:"net_pnl"`

	// WinRate is nil for tokens with only open positions: undefined, not zero.
	WinRate *decimal.Decimal `json:"win_rate"`

	IsHeld         bool `json:"is_held"`
	IsRugged       bool `json:"is_rugged"`
	TradedRugToken bool `json:"traded_rug_token"`

	TradingWindowHours decimal.Decimal `json:"trading_window_hours"`
	AvgHoldingHours    decimal.Decimal `json:"avg_holding_hours"`

	Status TokenStatus `json:"status"`
}

// Verification carries the two independent consistency checks over the
// report. A mismatch is surfaced here, never swallowed: it signals a bug in
// matching or capital tracking.
type Verification struct {
	SimpleSumPnL     decimal.Decimal `json:"simple_sum_pnl"`
	LedgerPnL        decimal.Decimal `json:"ledger_pnl"`
	NetRealizedPnL   decimal.Decimal `json:"net_realized_pnl"`
	SimpleSumMatches bool            `json:"simple_sum_matches"`
	LedgerMatches    bool            `json:"ledger_matches"`
	SimpleSumDelta   decimal.Decimal `json:"simple_sum_delta"`
	LedgerDelta      decimal.Decimal `json:"ledger_delta"`
}

type OverviewAggregate struct {
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`
	ClosedTrades  int `json:"closed_trades"`
	OpenPositions int `json:"open_positions"`
	TokensTraded  int `json:"tokens_traded"`

	// Simple-sum capital figures (per-trade sums, order-independent).
	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalReturned decimal.Decimal `json:"total_returned"`

	// Chronological capital figures from the ledger.
	StartingCapital decimal.Decimal `json:"starting_capital"`
	PeakDeployed    decimal.Decimal `json:"peak_deployed"`
	FinalCapital    decimal.Decimal `json:"final_capital"`

	NetRealizedPnL decimal.Decimal  `json:"net_realized_pnl"`
	UnrealizedMark decimal.Decimal  `json:"unrealized_mark"`
	WinRate        *decimal.Decimal `json:"win_rate"`

	WalletGrowthROI       decimal.Decimal `json:"wallet_growth_roi"`
	TradingPerformanceROI decimal.Decimal `json:"trading_performance_roi"`

	RugTokensTraded     int             `json:"rug_tokens_traded"`
	RugTokensHeld       int             `json:"rug_tokens_held"`
	ConfirmedRugLossUSD decimal.Decimal `json:"confirmed_rug_loss_usd"`

	Verification Verification `json:"verification"`
}
