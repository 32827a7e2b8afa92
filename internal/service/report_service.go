package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"walletlens/internal/cache"
	"walletlens/internal/config"
	"walletlens/internal/engine"
	"walletlens/internal/market"
	"walletlens/internal/models"
	"walletlens/internal/repository"
)

const dayMs = 24 * 60 * 60 * 1000

// ReportService generates wallet reports: fetch the wallet's transactions,
// run the analysis pipeline, persist a snapshot and memoize the result.
type ReportService struct {
	Repo   repository.Repository
	Source market.DataSource
	Engine *engine.Engine
	Cache  *cache.ReportCache
	Config config.EngineConfig
	Logger *zap.Logger
}

// GenerateReport builds the report for one wallet. The second return reports
// whether the result came from cache. force bypasses the cache read.
func (s *ReportService) GenerateReport(ctx context.Context, wallet, chain string, windowDays int, force bool) (*models.WalletReport, bool, error) {
	if windowDays <= 0 {
		windowDays = s.Config.DefaultWindowDays
	}
	if windowDays <= 0 {
		windowDays = 30
	}

	key := cache.Fingerprint(wallet, chain, windowDays)
	if force {
		// Drop the stale entry up front so a failed rebuild cannot keep
		// serving it.
		if err := s.Cache.Invalidate(ctx, key); err != nil && s.Logger != nil {
			s.Logger.Warn("report cache invalidate failed", zap.Error(err))
		}
	} else {
		cached, err := s.Cache.Get(ctx, key)
		if err != nil && s.Logger != nil {
			s.Logger.Warn("report cache read failed", zap.Error(err))
		}
		if cached != nil {
			return cached, true, nil
		}
	}

	toTs := time.Now().UTC().UnixMilli()
	fromTs := toTs - int64(windowDays)*dayMs

	txs, err := s.Source.WalletTransactions(ctx, wallet, chain, fromTs, toTs)
	if err != nil {
		return nil, false, err
	}

	report, err := s.Engine.Analyze(ctx, engine.AnalyzeInput{
		WalletAddress: wallet,
		Chain:         chain,
		WindowDays:    windowDays,
		FromTs:        fromTs,
		ToTs:          toTs,
		Transactions:  txs,
	})
	if err != nil {
		return nil, false, err
	}

	if err := s.persistSnapshot(ctx, report); err != nil && s.Logger != nil {
		s.Logger.Warn("snapshot persist failed",
			zap.String("wallet", wallet), zap.Error(err))
	}
	if err := s.Cache.Set(ctx, key, report); err != nil && s.Logger != nil {
		s.Logger.Warn("report cache write failed", zap.Error(err))
	}
	return report, false, nil
}

func (s *ReportService) persistSnapshot(ctx context.Context, report *models.WalletReport) error {
	if s.Repo == nil || report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	snap := &models.ReportSnapshot{
		ReportID:      report.ReportID,
		WalletAddress: report.WalletAddress,
		Chain:         report.Chain,
		WindowDays:    report.WindowDays,

		TotalTrades:   report.Overview.TotalTrades,
		ClosedTrades:  report.Overview.ClosedTrades,
		OpenPositions: report.Overview.OpenPositions,

		NetRealizedPnL:        report.Overview.NetRealizedPnL,
		WalletGrowthROI:       report.Overview.WalletGrowthROI,
		TradingPerformanceROI: report.Overview.TradingPerformanceROI,
		WinRate:               report.Overview.WinRate,

		VerificationPassed: report.Overview.Verification.SimpleSumMatches &&
			report.Overview.Verification.LedgerMatches,

		Payload:     datatypes.JSON(payload),
		GeneratedAt: time.UnixMilli(report.GeneratedAt).UTC(),
	}
	return s.Repo.InsertReportSnapshot(ctx, snap)
}

// LatestSnapshot returns the most recent persisted report, nil when none.
func (s *ReportService) LatestSnapshot(ctx context.Context, wallet, chain string, windowDays int) (*models.ReportSnapshot, error) {
	if s.Repo == nil {
		return nil, nil
	}
	if windowDays <= 0 {
		windowDays = s.Config.DefaultWindowDays
	}
	return s.Repo.GetLatestReportSnapshot(ctx, wallet, chain, windowDays)
}

// RefreshTrackedWallets regenerates the report of every enabled tracked
// wallet. One wallet's failure never stops the sweep.
func (s *ReportService) RefreshTrackedWallets(ctx context.Context) error {
	if s.Repo == nil {
		return nil
	}
	wallets, err := s.Repo.ListTrackedWallets(ctx, repository.ListTrackedWalletsParams{EnabledOnly: true})
	if err != nil {
		return err
	}
	for _, w := range wallets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, _, err := s.GenerateReport(ctx, w.Address, w.Chain, w.WindowDays, true); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("tracked wallet refresh failed",
					zap.String("wallet", w.Address),
					zap.String("chain", w.Chain),
					zap.Error(err))
			}
			continue
		}
		if s.Logger != nil {
			s.Logger.Info("tracked wallet refreshed",
				zap.String("wallet", w.Address),
				zap.String("chain", w.Chain))
		}
	}
	return nil
}
