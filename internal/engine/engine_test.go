package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"walletlens/internal/models"
)

type stubPerTokenLookup struct {
	states map[string]*models.TokenState
}

func (s *stubPerTokenLookup) TokenState(ctx context.Context, tokenAddress string) (*models.TokenState, error) {
	st, ok := s.states[tokenAddress]
	if !ok {
		return nil, errors.New("no state")
	}
	return st, nil
}

type stubMarket struct {
	swaps   map[string][]models.Swap
	candles map[string][]models.Candle
	err     error
}

func (s *stubMarket) TokenSwaps(ctx context.Context, token string, fromTs, toTs int64) ([]models.Swap, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.swaps[token], nil
}

func (s *stubMarket) TokenCandles(ctx context.Context, token string, fromTs int64) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candles[token], nil
}

func TestAnalyze_EndToEnd(t *testing.T) {
	healthy := &models.TokenState{
		LiquidityUSD:        decimal.NewFromInt(50_000),
		Price:               decimal.NewFromInt(2),
		HolderConcentration: decimal.NewFromFloat(0.1),
	}
	eng := &Engine{
		Config: testEngineConfig(),
		States: &stubPerTokenLookup{states: map[string]*models.TokenState{"mint1": healthy}},
		Market: &stubMarket{
			swaps: map[string][]models.Swap{"mint1": {
				swap("mint1", "mint1-buy-1000", "wallet1", 1.0, 1000),
				swap("mint1", "tick", "someone", 1.1, 1500),
			}},
			candles: map[string][]models.Candle{"mint1": {
				candle(2000, 1.1, 2.2, 1.0, 2.0),
			}},
		},
	}

	report, err := eng.Analyze(context.Background(), AnalyzeInput{
		WalletAddress: "wallet1",
		Chain:         "solana",
		WindowDays:    30,
		Transactions: []models.Transaction{
			tx("mint1", models.SideBuy, 100, 1, 1000),
			tx("mint1", models.SideSell, 60, 2, 5000),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ReportID == "" || report.GeneratedAt == 0 {
		t.Fatal("report missing identity fields")
	}
	if len(report.ClosedTrades) != 1 || len(report.OpenPositions) != 1 {
		t.Fatalf("closed=%d open=%d want 1/1", len(report.ClosedTrades), len(report.OpenPositions))
	}

	ct := report.ClosedTrades[0]
	if ct.Rug == nil || ct.Rug.IsRugNow {
		t.Fatalf("healthy token misclassified: %+v", ct.Rug)
	}
	if ct.Copy == nil || ct.Copy.CopyEntryPrice == nil {
		t.Fatal("closed trade missing copy simulation")
	}
	if !ct.Copy.CopyEntryPrice.Equal(decimal.NewFromFloat(1.1)) {
		t.Fatalf("copy entry=%s want 1.1", ct.Copy.CopyEntryPrice)
	}

	op := report.OpenPositions[0]
	if op.Rug == nil || op.Rug.CurrentValueUSD == nil {
		t.Fatal("open position missing enrichment")
	}
	// 40 tokens still held at the current price of 2.
	if !op.Rug.CurrentValueUSD.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("current value=%s want 80", op.Rug.CurrentValueUSD)
	}

	if len(report.Tokens) != 1 || report.Tokens[0].Status != models.TokenStatusPartial {
		t.Fatalf("token aggregates=%+v want one partial", report.Tokens)
	}
	if !report.Overview.Verification.SimpleSumMatches || !report.Overview.Verification.LedgerMatches {
		t.Fatalf("verification failed: %+v", report.Overview.Verification)
	}
}

func TestAnalyze_OneTokenFailureDoesNotPoisonOthers(t *testing.T) {
	healthy := &models.TokenState{
		LiquidityUSD:        decimal.NewFromInt(50_000),
		Price:               decimal.NewFromInt(1),
		HolderConcentration: decimal.NewFromFloat(0.1),
	}
	eng := &Engine{
		Config: testEngineConfig(),
		// mint2 has no state: its lookup fails every time.
		States: &stubPerTokenLookup{states: map[string]*models.TokenState{"mint1": healthy}},
		Market: &stubMarket{err: errors.New("feed down")},
	}

	report, err := eng.Analyze(context.Background(), AnalyzeInput{
		WalletAddress: "wallet1",
		Chain:         "solana",
		Transactions: []models.Transaction{
			tx("mint1", models.SideBuy, 10, 1, 1000),
			tx("mint2", models.SideBuy, 10, 1, 2000),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.OpenPositions) != 2 {
		t.Fatalf("open=%d want 2", len(report.OpenPositions))
	}
	var got1, got2 *models.OpenPosition
	for i := range report.OpenPositions {
		switch report.OpenPositions[i].TokenAddress {
		case "mint1":
			got1 = &report.OpenPositions[i]
		case "mint2":
			got2 = &report.OpenPositions[i]
		}
	}
	if got1 == nil || got1.Rug == nil {
		t.Fatal("healthy token lost its enrichment to another token's failure")
	}
	if got2 == nil || got2.Rug != nil {
		t.Fatal("failed lookup must leave the token unannotated")
	}
	if got1.Copy != nil || got2.Copy != nil {
		t.Fatal("dead market feed must leave copy results nil")
	}
}

func TestAnalyze_WindowFiltering(t *testing.T) {
	eng := &Engine{Config: testEngineConfig()}
	report, err := eng.Analyze(context.Background(), AnalyzeInput{
		WalletAddress: "wallet1",
		FromTs:        1000,
		ToTs:          2000,
		Transactions: []models.Transaction{
			tx("mint1", models.SideBuy, 10, 1, 500),  // before window
			tx("mint1", models.SideBuy, 10, 1, 1500), // inside
			tx("mint1", models.SideBuy, 10, 1, 2500), // after window
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.OpenPositions) != 1 || !report.OpenPositions[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("open=%+v want one position of 10", report.OpenPositions)
	}
}

func TestAnalyze_ManyTokensWithBoundedWorkers(t *testing.T) {
	states := make(map[string]*models.TokenState)
	txs := make([]models.Transaction, 0, 20)
	for i := 0; i < 20; i++ {
		token := string(rune('a'+i)) + "-mint"
		states[token] = &models.TokenState{
			LiquidityUSD:        decimal.NewFromInt(50_000),
			Price:               decimal.NewFromInt(1),
			HolderConcentration: decimal.NewFromFloat(0.1),
		}
		txs = append(txs, tx(token, models.SideBuy, 10, 1, int64(1000+i)))
	}
	cfg := testEngineConfig()
	cfg.Workers = 3
	eng := &Engine{
		Config: cfg,
		States: &stubPerTokenLookup{states: states},
	}
	report, err := eng.Analyze(context.Background(), AnalyzeInput{WalletAddress: "wallet1", Transactions: txs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.OpenPositions) != 20 {
		t.Fatalf("open=%d want 20", len(report.OpenPositions))
	}
	for _, p := range report.OpenPositions {
		if p.Rug == nil {
			t.Fatalf("token %s lost enrichment under the worker pool", p.TokenAddress)
		}
	}
	// Ordered by entry time regardless of worker completion order.
	for i := 1; i < len(report.OpenPositions); i++ {
		if report.OpenPositions[i-1].EntryTimestamp > report.OpenPositions[i].EntryTimestamp {
			t.Fatal("open positions out of order")
		}
	}
}
