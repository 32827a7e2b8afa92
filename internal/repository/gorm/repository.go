package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"walletlens/internal/models"
	"walletlens/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- tracked wallets --------------------------------------------------------

func (s *Store) UpsertTrackedWallet(ctx context.Context, item *models.TrackedWallet) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Address) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}, {Name: "chain"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"label",
			"window_days",
			"enabled",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListTrackedWallets(ctx context.Context, params repository.ListTrackedWalletsParams) ([]models.TrackedWallet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.TrackedWallet{})
	if params.Chain != nil && strings.TrimSpace(*params.Chain) != "" {
		query = query.Where("chain = ?", strings.TrimSpace(*params.Chain))
	}
	if params.EnabledOnly {
		query = query.Where("enabled = ?", true)
	}
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.TrackedWallet
	if err := query.Order("address asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetTrackedWallet(ctx context.Context, address, chain string) (*models.TrackedWallet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.TrackedWallet
	err := s.db.WithContext(ctx).
		Where("address = ?", address).
		Where("chain = ?", chain).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteTrackedWallet(ctx context.Context, address, chain string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("address = ?", address).
		Where("chain = ?", chain).
		Delete(&models.TrackedWallet{}).Error
}

// --- report snapshots -------------------------------------------------------

func (s *Store) InsertReportSnapshot(ctx context.Context, item *models.ReportSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetLatestReportSnapshot(ctx context.Context, wallet, chain string, windowDays int) (*models.ReportSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.ReportSnapshot
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Where("chain = ?", chain).
		Where("window_days = ?", windowDays).
		Order("generated_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListReportSnapshots(ctx context.Context, params repository.ListSnapshotsParams) ([]models.ReportSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.snapshotQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "generated_at")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.ReportSnapshot
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountReportSnapshots(ctx context.Context, params repository.ListSnapshotsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.snapshotQuery(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) DeleteSnapshotsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("generated_at < ?", before).
		Delete(&models.ReportSnapshot{})
	return res.RowsAffected, res.Error
}

func (s *Store) snapshotQuery(ctx context.Context, params repository.ListSnapshotsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.ReportSnapshot{})
	if params.WalletAddress != nil && strings.TrimSpace(*params.WalletAddress) != "" {
		query = query.Where("wallet_address = ?", strings.TrimSpace(*params.WalletAddress))
	}
	if params.Chain != nil && strings.TrimSpace(*params.Chain) != "" {
		query = query.Where("chain = ?", strings.TrimSpace(*params.Chain))
	}
	if params.WindowDays != nil && *params.WindowDays > 0 {
		query = query.Where("window_days = ?", *params.WindowDays)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("generated_at >= ?", *params.Since)
	}
	return query
}

// --- helpers ----------------------------------------------------------------

var allowedOrderColumns = map[string]bool{
	"generated_at":     true,
	"created_at":       true,
	"net_realized_pnl": true,
	"wallet_address":   true,
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" || !allowedOrderColumns[column] {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
