package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"walletlens/internal/models"
)

type ListTrackedWalletsParams struct {
	Chain       *string
	EnabledOnly bool
	Limit       int
	Offset      int
}

type ListSnapshotsParams struct {
	WalletAddress *string
	Chain         *string
	WindowDays    *int
	Since         *time.Time
	Limit         int
	Offset        int
	OrderBy       string
	Asc           *bool
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	UpsertTrackedWallet(ctx context.Context, item *models.TrackedWallet) error
	ListTrackedWallets(ctx context.Context, params ListTrackedWalletsParams) ([]models.TrackedWallet, error)
	GetTrackedWallet(ctx context.Context, address, chain string) (*models.TrackedWallet, error)
	DeleteTrackedWallet(ctx context.Context, address, chain string) error

	InsertReportSnapshot(ctx context.Context, item *models.ReportSnapshot) error
	GetLatestReportSnapshot(ctx context.Context, wallet, chain string, windowDays int) (*models.ReportSnapshot, error)
	ListReportSnapshots(ctx context.Context, params ListSnapshotsParams) ([]models.ReportSnapshot, error)
	CountReportSnapshots(ctx context.Context, params ListSnapshotsParams) (int64, error)
	DeleteSnapshotsBefore(ctx context.Context, before time.Time) (int64, error)
}
