package models

import (
	"time"
)

// TrackedWallet is a wallet whose report the cron refresher keeps warm.
type TrackedWallet struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Address    string `gorm:"type:varchar(100);not null;uniqueIndex:idx_wallet_chain"`
	Chain      string `gorm:"type:varchar(20);not null;uniqueIndex:idx_wallet_chain"`
	Label      string `gorm:"type:varchar(100)"`
	WindowDays int    `gorm:"not null;default:30"`
	Enabled    bool   `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (TrackedWallet) TableName() string {
	return "tracked_wallets"
}
