package models

import (
	"github.com/shopspring/decimal"
)

type CapitalEventKind string

const (
	CapitalEntry CapitalEventKind = "entry"
	CapitalExit  CapitalEventKind = "exit"
)

// CapitalSnapshot is one ledger entry: capital deployed or returned at one
// chronological event. Read-only after construction.
type CapitalSnapshot struct {
	Timestamp            int64            `json:"timestamp"`
	Kind                 CapitalEventKind `json:"kind"`
	TokenAddress         string           `json:"token_address"`
	CapitalDeployedDelta decimal.Decimal  `json:"capital_deployed_delta"`
	RunningDeployed      decimal.Decimal  `json:"running_deployed"`
	RunningRealizedPnL   decimal.Decimal  `json:"running_realized_pnl"`
}

// CapitalLedger is the chronological capital accounting for one wallet
// report. WalletGrowthROI and TradingPerformanceROI answer different
// questions and are never collapsed into one number.
type CapitalLedger struct {
	Snapshots []CapitalSnapshot `json:"snapshots"`

	StartingCapital decimal.Decimal `json:"starting_capital"`
	PeakDeployed    decimal.Decimal `json:"peak_deployed"`
	FinalCapital    decimal.Decimal `json:"final_capital"`
	NetRealizedPnL  decimal.Decimal `json:"net_realized_pnl"`
	UnrealizedMark  decimal.Decimal `json:"unrealized_mark"`

	WalletGrowthROI       decimal.Decimal `json:"wallet_growth_roi"`
	TradingPerformanceROI decimal.Decimal `json:"trading_performance_roi"`

	// Clamped is set when running deployed capital would have gone negative,
	// indicating inconsistent input data. Verification fails downstream.
	Clamped bool `json:"clamped"`
}
