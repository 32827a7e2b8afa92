package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"walletlens/internal/config"
	"walletlens/internal/models"
)

// StateLookup provides the current on-chain state of a token. Implementations
// live at the orchestration boundary (internal/market); the enricher only
// sees the contract.
type StateLookup interface {
	TokenState(ctx context.Context, tokenAddress string) (*models.TokenState, error)
}

// Enricher annotates trades and positions with rug/liquidity classification.
// It never mutates its inputs and never fails a batch: a lookup error leaves
// the affected token's items unannotated.
type Enricher struct {
	Lookup StateLookup
	Config config.EngineConfig
	Logger *zap.Logger
}

// EnrichToken returns annotated copies of one token's trades and positions.
func (e *Enricher) EnrichToken(ctx context.Context, token string, closed []models.ClosedTrade, open []models.OpenPosition) ([]models.ClosedTrade, []models.OpenPosition) {
	outClosed := append([]models.ClosedTrade(nil), closed...)
	outOpen := append([]models.OpenPosition(nil), open...)
	if e == nil || e.Lookup == nil {
		return outClosed, outOpen
	}

	state, err := e.Lookup.TokenState(ctx, token)
	if err != nil || state == nil {
		if e.Logger != nil {
			e.Logger.Debug("token state lookup failed, skipping enrichment",
				zap.String("token", token), zap.Error(err))
		}
		return outClosed, outOpen
	}

	refEntry := referenceEntryPrice(closed, open)
	verdict := e.classify(*state, refEntry)

	for i := range outClosed {
		outClosed[i].Rug = e.annotateClosed(verdict, *state)
	}
	for i := range outOpen {
		outOpen[i].Rug = e.annotateOpen(outOpen[i], verdict, *state)
	}
	return outClosed, outOpen
}

type rugVerdict struct {
	isRug     bool
	rugType   models.RugType
	reasons   []string
	liqStatus models.LiquidityStatus
}

// classify combines independent signals. A single weak signal never flips
// the rug flag on its own; RugMinSignals controls the bar.
func (e *Enricher) classify(state models.TokenState, refEntryPrice decimal.Decimal) rugVerdict {
	v := rugVerdict{rugType: models.RugTypeNone, liqStatus: models.LiquidityOK}

	drained := decimal.NewFromFloat(e.Config.LiquidityDrainedUSD)
	low := decimal.NewFromFloat(e.Config.LiquidityLowUSD)
	switch {
	case state.LiquidityUSD.LessThan(drained):
		v.liqStatus = models.LiquidityDrained
		v.reasons = append(v.reasons, "liquidity_drained")
	case state.LiquidityUSD.LessThan(low):
		v.liqStatus = models.LiquidityLow
		v.reasons = append(v.reasons, "liquidity_low")
	}

	if state.DevRugHistoryCount > 0 {
		v.reasons = append(v.reasons, "dev_rug_history")
	}
	if state.HolderConcentration.GreaterThan(decimal.NewFromFloat(e.Config.HolderConcentrationMax)) {
		v.reasons = append(v.reasons, "holder_concentration")
	}
	if refEntryPrice.GreaterThan(decimal.Zero) {
		floor := refEntryPrice.Mul(decimal.NewFromFloat(e.Config.PriceCollapseRatio))
		if state.Price.LessThan(floor) {
			v.reasons = append(v.reasons, "price_collapsed")
		}
	}

	minSignals := e.Config.RugMinSignals
	if minSignals <= 0 {
		minSignals = 2
	}
	if len(v.reasons) >= minSignals {
		v.isRug = true
		if v.liqStatus == models.LiquidityDrained {
			v.rugType = models.RugTypeHard
		} else {
			v.rugType = models.RugTypeSoft
		}
	}
	return v
}

// annotateClosed marks a closed trade whose token is rugged now. Realized
// PnL stays untouched: the rug happened after the exit.
func (e *Enricher) annotateClosed(v rugVerdict, state models.TokenState) *models.RugStatus {
	liq := state.LiquidityUSD
	rs := &models.RugStatus{
		RugType:             v.rugType,
		RugReasons:          v.reasons,
		IsRugNow:            v.isRug,
		CurrentLiquidityUSD: &liq,
		LiquidityStatus:     v.liqStatus,
		CanExit:             v.liqStatus != models.LiquidityDrained,
	}
	if v.isRug {
		rs.RugWarning = "token rugged after exit"
	}
	return rs
}

func (e *Enricher) annotateOpen(p models.OpenPosition, v rugVerdict, state models.TokenState) *models.RugStatus {
	liq := state.LiquidityUSD
	rs := &models.RugStatus{
		IsRug:               v.isRug,
		RugType:             v.rugType,
		RugReasons:          v.reasons,
		CurrentLiquidityUSD: &liq,
		LiquidityStatus:     v.liqStatus,
		CanExit:             v.liqStatus != models.LiquidityDrained,
	}
	if v.isRug {
		// Held through the rug: the entry value is an unrecoverable loss.
		rs.ConfirmedLossUSD = p.EntryValueUSD
		zero := decimal.Zero
		rs.CurrentValueUSD = &zero
		return rs
	}
	current := state.Price.Mul(p.Amount)
	rs.CurrentValueUSD = &current
	return rs
}

// referenceEntryPrice picks the price the collapse signal compares against:
// open position entry first, else the most recent closed trade entry.
func referenceEntryPrice(closed []models.ClosedTrade, open []models.OpenPosition) decimal.Decimal {
	if len(open) > 0 {
		return open[0].EntryPrice
	}
	ref := decimal.Zero
	var latest int64
	for _, t := range closed {
		if t.ExitTimestamp >= latest {
			latest = t.ExitTimestamp
			ref = t.EntryPrice
		}
	}
	return ref
}
