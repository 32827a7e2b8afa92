package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"walletlens/internal/config"
	"walletlens/internal/models"
)

type stubLookup struct {
	state *models.TokenState
	err   error
}

func (s *stubLookup) TokenState(ctx context.Context, tokenAddress string) (*models.TokenState, error) {
	return s.state, s.err
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		EscapedPnLThresholdUSD: -50,
		LiquidityLowUSD:        1000,
		LiquidityDrainedUSD:    50,
		HolderConcentrationMax: 0.5,
		PriceCollapseRatio:     0.01,
		RugMinSignals:          2,
		VerificationTolerance:  1e-6,
		CopyMatchToleranceMs:   60_000,
		CopyShortWindowMs:      3_600_000,
	}
}

func openPos(token string, amount, entryPrice float64, ts int64) models.OpenPosition {
	a := decimal.NewFromFloat(amount)
	p := decimal.NewFromFloat(entryPrice)
	return models.OpenPosition{
		TokenAddress:   token,
		Amount:         a,
		EntryPrice:     p,
		EntryValueUSD:  a.Mul(p),
		EntryTimestamp: ts,
	}
}

func TestEnrichToken_HardRugOnOpenPosition(t *testing.T) {
	lookup := &stubLookup{state: &models.TokenState{
		LiquidityUSD:        decimal.NewFromInt(10), // below drained cutoff
		Price:               decimal.NewFromFloat(0.000001),
		HolderConcentration: decimal.NewFromFloat(0.1),
	}}
	e := &Enricher{Lookup: lookup, Config: testEngineConfig()}

	open := []models.OpenPosition{openPos("mint1", 1000, 1, 1)}
	_, outOpen := e.EnrichToken(context.Background(), "mint1", nil, open)

	rug := outOpen[0].Rug
	if rug == nil || !rug.IsRug {
		t.Fatalf("want rug annotation, got %+v", rug)
	}
	if rug.RugType != models.RugTypeHard {
		t.Fatalf("type=%s want hard", rug.RugType)
	}
	if !rug.ConfirmedLossUSD.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("confirmed loss=%s want 1000 (full entry value)", rug.ConfirmedLossUSD)
	}
	if rug.CurrentValueUSD == nil || !rug.CurrentValueUSD.Equal(decimal.Zero) {
		t.Fatalf("current value=%v want 0", rug.CurrentValueUSD)
	}
	if rug.CanExit {
		t.Fatal("drained liquidity must not be exitable")
	}
	// Inputs stay untouched.
	if open[0].Rug != nil {
		t.Fatal("enricher mutated its input")
	}
}

func TestEnrichToken_SingleSignalIsNotARug(t *testing.T) {
	// Liquidity low but the price held: one signal, below the bar.
	lookup := &stubLookup{state: &models.TokenState{
		LiquidityUSD:        decimal.NewFromInt(500),
		Price:               decimal.NewFromInt(1),
		HolderConcentration: decimal.NewFromFloat(0.1),
	}}
	e := &Enricher{Lookup: lookup, Config: testEngineConfig()}

	_, outOpen := e.EnrichToken(context.Background(), "mint1", nil, []models.OpenPosition{openPos("mint1", 100, 1, 1)})
	rug := outOpen[0].Rug
	if rug == nil {
		t.Fatal("want annotation even for healthy tokens")
	}
	if rug.IsRug {
		t.Fatalf("one signal flipped the rug flag: %v", rug.RugReasons)
	}
	if rug.LiquidityStatus != models.LiquidityLow {
		t.Fatalf("liquidity status=%s want low", rug.LiquidityStatus)
	}
	if !rug.CanExit {
		t.Fatal("low liquidity is still exitable")
	}
	if rug.CurrentValueUSD == nil || !rug.CurrentValueUSD.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("current value=%v want 100", rug.CurrentValueUSD)
	}
}

func TestEnrichToken_SoftRugWithoutDrain(t *testing.T) {
	// Dev history plus extreme concentration, liquidity intact.
	lookup := &stubLookup{state: &models.TokenState{
		LiquidityUSD:        decimal.NewFromInt(5000),
		Price:               decimal.NewFromInt(1),
		DevRugHistoryCount:  2,
		HolderConcentration: decimal.NewFromFloat(0.9),
	}}
	e := &Enricher{Lookup: lookup, Config: testEngineConfig()}

	_, outOpen := e.EnrichToken(context.Background(), "mint1", nil, []models.OpenPosition{openPos("mint1", 100, 1, 1)})
	rug := outOpen[0].Rug
	if rug == nil || !rug.IsRug {
		t.Fatalf("want soft rug, got %+v", rug)
	}
	if rug.RugType != models.RugTypeSoft {
		t.Fatalf("type=%s want soft", rug.RugType)
	}
	if !rug.CanExit {
		t.Fatal("soft rug with intact liquidity should stay exitable")
	}
}

func TestEnrichToken_LookupFailureLeavesItemsUnannotated(t *testing.T) {
	lookup := &stubLookup{err: errors.New("provider down")}
	e := &Enricher{Lookup: lookup, Config: testEngineConfig()}

	closed := []models.ClosedTrade{{TokenAddress: "mint1", RealizedPnL: decimal.NewFromInt(5)}}
	open := []models.OpenPosition{openPos("mint1", 100, 1, 1)}
	outClosed, outOpen := e.EnrichToken(context.Background(), "mint1", closed, open)
	if outClosed[0].Rug != nil || outOpen[0].Rug != nil {
		t.Fatal("lookup failure must leave items unannotated, not half-annotated")
	}
}

func TestEnrichToken_ClosedTradeKeepsRealizedPnL(t *testing.T) {
	lookup := &stubLookup{state: &models.TokenState{
		LiquidityUSD:        decimal.NewFromInt(10),
		Price:               decimal.NewFromFloat(0.000001),
		HolderConcentration: decimal.NewFromFloat(0.9),
	}}
	e := &Enricher{Lookup: lookup, Config: testEngineConfig()}

	closed := []models.ClosedTrade{{
		TokenAddress: "mint1",
		EntryPrice:   decimal.NewFromInt(1),
		RealizedPnL:  decimal.NewFromInt(250),
	}}
	outClosed, _ := e.EnrichToken(context.Background(), "mint1", closed, nil)
	rug := outClosed[0].Rug
	if rug == nil || !rug.IsRugNow {
		t.Fatalf("want is_rug_now on closed trade, got %+v", rug)
	}
	if rug.RugWarning == "" {
		t.Fatal("want warning on trades that exited before the rug")
	}
	if !outClosed[0].RealizedPnL.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("realized pnl changed to %s, must stay untouched", outClosed[0].RealizedPnL)
	}
}

func TestEnrichToken_PriceCollapseSignal(t *testing.T) {
	// Price at 0.1% of the entry with low liquidity: two signals, soft rug.
	lookup := &stubLookup{state: &models.TokenState{
		LiquidityUSD:        decimal.NewFromInt(500),
		Price:               decimal.NewFromFloat(0.001),
		HolderConcentration: decimal.NewFromFloat(0.1),
	}}
	e := &Enricher{Lookup: lookup, Config: testEngineConfig()}

	_, outOpen := e.EnrichToken(context.Background(), "mint1", nil, []models.OpenPosition{openPos("mint1", 100, 1, 1)})
	rug := outOpen[0].Rug
	if rug == nil || !rug.IsRug {
		t.Fatalf("want rug from collapse + low liquidity, got %+v", rug)
	}
	found := false
	for _, r := range rug.RugReasons {
		if r == "price_collapsed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("reasons=%v want price_collapsed", rug.RugReasons)
	}
}
