package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"walletlens/internal/config"
	"walletlens/internal/engine"
	"walletlens/internal/market"
	"walletlens/internal/models"
	"walletlens/internal/repository"
)

type stubRepo struct {
	wallets   []models.TrackedWallet
	snapshots []*models.ReportSnapshot
}

func (r *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (r *stubRepo) UpsertTrackedWallet(ctx context.Context, item *models.TrackedWallet) error {
	r.wallets = append(r.wallets, *item)
	return nil
}

func (r *stubRepo) ListTrackedWallets(ctx context.Context, params repository.ListTrackedWalletsParams) ([]models.TrackedWallet, error) {
	out := make([]models.TrackedWallet, 0, len(r.wallets))
	for _, w := range r.wallets {
		if params.EnabledOnly && !w.Enabled {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *stubRepo) GetTrackedWallet(ctx context.Context, address, chain string) (*models.TrackedWallet, error) {
	for i := range r.wallets {
		if r.wallets[i].Address == address && r.wallets[i].Chain == chain {
			return &r.wallets[i], nil
		}
	}
	return nil, nil
}

func (r *stubRepo) DeleteTrackedWallet(ctx context.Context, address, chain string) error {
	return nil
}

func (r *stubRepo) InsertReportSnapshot(ctx context.Context, item *models.ReportSnapshot) error {
	r.snapshots = append(r.snapshots, item)
	return nil
}

func (r *stubRepo) GetLatestReportSnapshot(ctx context.Context, wallet, chain string, windowDays int) (*models.ReportSnapshot, error) {
	if len(r.snapshots) == 0 {
		return nil, nil
	}
	return r.snapshots[len(r.snapshots)-1], nil
}

func (r *stubRepo) ListReportSnapshots(ctx context.Context, params repository.ListSnapshotsParams) ([]models.ReportSnapshot, error) {
	return nil, nil
}

func (r *stubRepo) CountReportSnapshots(ctx context.Context, params repository.ListSnapshotsParams) (int64, error) {
	return int64(len(r.snapshots)), nil
}

func (r *stubRepo) DeleteSnapshotsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

var (
	_ market.DataSource = (*stubSource)(nil)
	_ market.DataSource = (*sequencedSource)(nil)
)

type stubSource struct {
	txs   []models.Transaction
	err   error
	calls int
}

func (s *stubSource) WalletTransactions(ctx context.Context, wallet, chain string, fromTs, toTs int64) ([]models.Transaction, error) {
	s.calls++
	return s.txs, s.err
}

func (s *stubSource) TokenSwaps(ctx context.Context, token string, fromTs, toTs int64) ([]models.Swap, error) {
	return nil, nil
}

func (s *stubSource) TokenCandles(ctx context.Context, token string, fromTs int64) ([]models.Candle, error) {
	return nil, nil
}

func (s *stubSource) TokenState(ctx context.Context, token string) (*models.TokenState, error) {
	return nil, errors.New("no state")
}

func tradeTx(token string, side models.Side, amount, price float64, ts int64) models.Transaction {
	a := decimal.NewFromFloat(amount)
	p := decimal.NewFromFloat(price)
	return models.Transaction{
		TokenAddress: token,
		Side:         side,
		Amount:       a,
		Price:        p,
		USDValue:     a.Mul(p),
		Timestamp:    ts,
		TxHash:       "hash",
		BlockHeight:  ts,
	}
}

func newTestService(repo *stubRepo, source market.DataSource) *ReportService {
	cfg := config.EngineConfig{
		DefaultWindowDays:      30,
		Workers:                2,
		EscapedPnLThresholdUSD: -50,
		LiquidityLowUSD:        1000,
		LiquidityDrainedUSD:    50,
		HolderConcentrationMax: 0.5,
		PriceCollapseRatio:     0.01,
		RugMinSignals:          2,
		VerificationTolerance:  1e-6,
	}
	return &ReportService{
		Repo:   repo,
		Source: source,
		Engine: &engine.Engine{Config: cfg},
		Config: cfg,
	}
}

func TestGenerateReport_PersistsSnapshot(t *testing.T) {
	now := time.Now().UTC().UnixMilli()
	repo := &stubRepo{}
	source := &stubSource{txs: []models.Transaction{
		tradeTx("mint1", models.SideBuy, 100, 1, now-10_000),
		tradeTx("mint1", models.SideSell, 100, 2, now-5_000),
	}}
	svc := newTestService(repo, source)

	report, cached, err := svc.GenerateReport(context.Background(), "wallet1", "solana", 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached {
		t.Fatal("nothing was cached yet")
	}
	if report.WindowDays != 30 {
		t.Fatalf("window=%d want default 30", report.WindowDays)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshots=%d want 1", len(repo.snapshots))
	}
	snap := repo.snapshots[0]
	if snap.ReportID != report.ReportID || snap.WalletAddress != "wallet1" {
		t.Fatalf("snapshot does not match report: %+v", snap)
	}
	if !snap.NetRealizedPnL.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("snapshot pnl=%s want 100", snap.NetRealizedPnL)
	}
	if !snap.VerificationPassed {
		t.Fatal("consistent round trip must pass verification")
	}
	if len(snap.Payload) == 0 {
		t.Fatal("snapshot payload is empty")
	}
}

func TestGenerateReport_SourceErrorPropagates(t *testing.T) {
	repo := &stubRepo{}
	source := &stubSource{err: errors.New("provider down")}
	svc := newTestService(repo, source)

	_, _, err := svc.GenerateReport(context.Background(), "wallet1", "solana", 7, false)
	if err == nil {
		t.Fatal("want provider error")
	}
	if len(repo.snapshots) != 0 {
		t.Fatal("no snapshot should persist on failure")
	}
}

func TestGenerateReport_NoValidTransactions(t *testing.T) {
	repo := &stubRepo{}
	source := &stubSource{} // empty feed
	svc := newTestService(repo, source)

	_, _, err := svc.GenerateReport(context.Background(), "wallet1", "solana", 7, false)
	if !errors.Is(err, engine.ErrNoValidTransactions) {
		t.Fatalf("err=%v want ErrNoValidTransactions", err)
	}
}

func TestRefreshTrackedWallets_SkipsFailures(t *testing.T) {
	now := time.Now().UTC().UnixMilli()
	repo := &stubRepo{wallets: []models.TrackedWallet{
		{Address: "wallet1", Chain: "solana", WindowDays: 7, Enabled: true},
		{Address: "wallet2", Chain: "solana", WindowDays: 7, Enabled: true},
		{Address: "disabled", Chain: "solana", WindowDays: 7, Enabled: false},
	}}
	// wallet1 gets a valid feed on the first call, wallet2 an empty one.
	source := &sequencedSource{feeds: [][]models.Transaction{
		{
			tradeTx("mint1", models.SideBuy, 10, 1, now-10_000),
		},
		nil,
	}}
	svc := newTestService(repo, source)

	if err := svc.RefreshTrackedWallets(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// wallet2's empty feed fails its run but not the sweep; only wallet1
	// produced a snapshot, and the disabled wallet was never touched.
	if source.calls != 2 {
		t.Fatalf("source calls=%d want 2", source.calls)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshots=%d want 1", len(repo.snapshots))
	}
}

type sequencedSource struct {
	feeds [][]models.Transaction
	calls int
}

func (s *sequencedSource) WalletTransactions(ctx context.Context, wallet, chain string, fromTs, toTs int64) ([]models.Transaction, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.feeds) {
		return s.feeds[idx], nil
	}
	return nil, nil
}

func (s *sequencedSource) TokenSwaps(ctx context.Context, token string, fromTs, toTs int64) ([]models.Swap, error) {
	return nil, nil
}

func (s *sequencedSource) TokenCandles(ctx context.Context, token string, fromTs int64) ([]models.Candle, error) {
	return nil, nil
}

func (s *sequencedSource) TokenState(ctx context.Context, token string) (*models.TokenState, error) {
	return nil, errors.New("no state")
}
