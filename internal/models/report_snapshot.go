package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ReportSnapshot is one persisted analysis run. Summary figures are lifted
// into columns for listing queries; the full report travels as JSON.
type ReportSnapshot struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	ReportID string `gorm:"type:varchar(40);not null;uniqueIndex"`

	WalletAddress string `gorm:"type:varchar(100);not null;index:idx_snapshot_key"`
	Chain         string `gorm:"type:varchar(20);not null;index:idx_snapshot_key"`
	WindowDays    int    `gorm:"not null;index:idx_snapshot_key"`

	TotalTrades   int `gorm:"not null;default:0"`
	ClosedTrades  int `gorm:"not null;default:0"`
	OpenPositions int `gorm:"not null;default:0"`

	NetRealizedPnL        decimal.Decimal  `gorm:"column:net_realized_pnl;type:numeric(30,10);not null;default:0"`
	WalletGrowthROI       decimal.Decimal  `gorm:"column:wallet_growth_roi;type:numeric(20,10);not null;default:0"`
	TradingPerformanceROI decimal.Decimal  `gorm:"column:trading_performance_roi;type:numeric(20,10);not null;default:0"`
	WinRate               *decimal.Decimal `gorm:"type:numeric(10,6)"`

	VerificationPassed bool `gorm:"not null;default:false"`

	Payload datatypes.JSON `gorm:"type:jsonb;not null"`

	GeneratedAt time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (ReportSnapshot) TableName() string {
	return "report_snapshots"
}
