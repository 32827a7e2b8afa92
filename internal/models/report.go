package models

// WalletReport is the full output of one analysis run. It is assembled once
// by the engine and serialized as-is by the HTTP layer.
type WalletReport struct {
	ReportID      string `json:"report_id"`
	WalletAddress string `json:"wallet_address"`
	Chain         string `json:"chain"`
	WindowDays    int    `json:"window_days"`
	GeneratedAt   int64  `json:"generated_at"`

	ClosedTrades  []ClosedTrade     `json:"closed_trades"`
	OpenPositions []OpenPosition    `json:"open_positions"`
	Tokens        []TokenAggregate  `json:"tokens"`
	Overview      OverviewAggregate `json:"overview"`
	Capital       CapitalLedger     `json:"capital"`

	UnmatchedSells      []UnmatchedSell `json:"unmatched_sells,omitempty"`
	SkippedTransactions int             `json:"skipped_transactions"`
}
