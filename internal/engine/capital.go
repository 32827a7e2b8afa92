package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"walletlens/internal/models"
)

type capitalEvent struct {
	ts    int64
	kind  models.CapitalEventKind
	token string
	value decimal.Decimal // entry value deployed or returned
	pnl   decimal.Decimal // realized pnl accruing at exit
}

// Track builds the chronological capital ledger from closed trades and open
// positions. Each closed trade contributes an entry and an exit event; each
// open position contributes only an entry. On exact timestamp ties entries
// sort before exits: capital is deployed before it can be returned.
//
// Open positions may already carry enrichment; a known current value is used
// as the unrealized mark, a confirmed rug marks at zero, and an unenriched
// position marks at its entry value.
func Track(closed []models.ClosedTrade, open []models.OpenPosition) models.CapitalLedger {
	events := make([]capitalEvent, 0, 2*len(closed)+len(open))
	for _, t := range closed {
		events = append(events, capitalEvent{
			ts: t.EntryTimestamp, kind: models.CapitalEntry, token: t.TokenAddress, value: t.EntryValueUSD,
		})
		events = append(events, capitalEvent{
			ts: t.ExitTimestamp, kind: models.CapitalExit, token: t.TokenAddress, value: t.EntryValueUSD, pnl: t.RealizedPnL,
		})
	}
	openEntryTotal := decimal.Zero
	unrealizedMark := decimal.Zero
	for _, p := range open {
		events = append(events, capitalEvent{
			ts: p.EntryTimestamp, kind: models.CapitalEntry, token: p.TokenAddress, value: p.EntryValueUSD,
		})
		openEntryTotal = openEntryTotal.Add(p.EntryValueUSD)
		unrealizedMark = unrealizedMark.Add(markValue(p))
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].ts != events[j].ts {
			return events[i].ts < events[j].ts
		}
		return kindRank(events[i].kind) < kindRank(events[j].kind)
	})

	ledger := models.CapitalLedger{}
	running := decimal.Zero
	realized := decimal.Zero
	peak := decimal.Zero
	started := false

	for _, ev := range events {
		delta := ev.value
		if ev.kind == models.CapitalExit {
			delta = delta.Neg()
			realized = realized.Add(ev.pnl)
		} else if !started {
			ledger.StartingCapital = ev.value
			started = true
		}
		running = running.Add(delta)
		if running.LessThan(decimal.Zero) {
			// Inconsistent input: more capital returned than was deployed.
			running = decimal.Zero
			ledger.Clamped = true
		}
		if running.GreaterThan(peak) {
			peak = running
		}
		ledger.Snapshots = append(ledger.Snapshots, models.CapitalSnapshot{
			Timestamp:            ev.ts,
			Kind:                 ev.kind,
			TokenAddress:         ev.token,
			CapitalDeployedDelta: delta,
			RunningDeployed:      running,
			RunningRealizedPnL:   realized,
		})
	}

	ledger.PeakDeployed = peak
	ledger.NetRealizedPnL = realized
	ledger.UnrealizedMark = unrealizedMark
	ledger.FinalCapital = ledger.StartingCapital.
		Add(realized).
		Sub(openEntryTotal).
		Add(unrealizedMark)

	if ledger.StartingCapital.GreaterThan(decimal.Zero) {
		ledger.WalletGrowthROI = ledger.FinalCapital.Sub(ledger.StartingCapital).
			Div(ledger.StartingCapital).Mul(decimal.NewFromInt(100))
	}
	if peak.GreaterThan(decimal.Zero) {
		ledger.TradingPerformanceROI = realized.Div(peak).Mul(decimal.NewFromInt(100))
	}
	return ledger
}

func kindRank(k models.CapitalEventKind) int {
	if k == models.CapitalEntry {
		return 0
	}
	return 1
}

// markValue is the unrealized mark of one open position: current value when
// enrichment knows it, zero for confirmed rugs, entry value otherwise.
func markValue(p models.OpenPosition) decimal.Decimal {
	if p.Rug == nil {
		return p.EntryValueUSD
	}
	if p.Rug.IsRug {
		return decimal.Zero
	}
	if p.Rug.CurrentValueUSD != nil {
		return *p.Rug.CurrentValueUSD
	}
	return p.EntryValueUSD
}
