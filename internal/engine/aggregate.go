package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"walletlens/internal/config"
	"walletlens/internal/models"
)

// Aggregator rolls enriched trades and positions into per-token and
// portfolio-level summaries, and runs the two internal consistency checks.
type Aggregator struct {
	Config config.EngineConfig
}

func (a *Aggregator) Aggregate(closed []models.ClosedTrade, open []models.OpenPosition, ledger models.CapitalLedger) ([]models.TokenAggregate, models.OverviewAggregate) {
	tokens := a.tokenAggregates(closed, open)
	overview := a.overview(tokens, closed, open, ledger)
	return tokens, overview
}

type tokenBucket struct {
	closed []models.ClosedTrade
	open   []models.OpenPosition
}

func (a *Aggregator) tokenAggregates(closed []models.ClosedTrade, open []models.OpenPosition) []models.TokenAggregate {
	order := make([]string, 0)
	buckets := make(map[string]*tokenBucket)
	get := func(token string) *tokenBucket {
		b, ok := buckets[token]
		if !ok {
			b = &tokenBucket{}
			buckets[token] = b
			order = append(order, token)
		}
		return b
	}
	for _, t := range closed {
		b := get(t.TokenAddress)
		b.closed = append(b.closed, t)
	}
	for _, p := range open {
		b := get(p.TokenAddress)
		b.open = append(b.open, p)
	}

	out := make([]models.TokenAggregate, 0, len(order))
	for _, token := range order {
		out = append(out, a.aggregateToken(token, buckets[token]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].NetPnL.Equal(out[j].NetPnL) {
			return out[i].NetPnL.GreaterThan(out[j].NetPnL)
		}
		return out[i].TokenAddress < out[j].TokenAddress
	})
	return out
}

func (a *Aggregator) aggregateToken(token string, b *tokenBucket) models.TokenAggregate {
	agg := models.TokenAggregate{
		TokenAddress:  token,
		ClosedTrades:  len(b.closed),
		OpenPositions: len(b.open),
		TotalTrades:   len(b.closed) + len(b.open),
	}

	var (
		firstTs, lastTs int64
		wins            int
		holdingSec      int64
	)
	observe := func(ts int64) {
		if ts <= 0 {
			return
		}
		if firstTs == 0 || ts < firstTs {
			firstTs = ts
		}
		if ts > lastTs {
			lastTs = ts
		}
	}

	for _, t := range b.closed {
		agg.TotalInvested = agg.TotalInvested.Add(t.EntryValueUSD)
		agg.TotalReturned = agg.TotalReturned.Add(t.ExitValueUSD)
		observe(t.EntryTimestamp)
		observe(t.ExitTimestamp)
		holdingSec += t.HoldingTimeSeconds
		if t.RealizedPnL.GreaterThan(decimal.Zero) {
			wins++
		}
		if t.Rug != nil && t.Rug.IsRugNow {
			agg.TradedRugToken = true
		}
	}
	for _, p := range b.open {
		agg.TotalInvested = agg.TotalInvested.Add(p.EntryValueUSD)
		observe(p.EntryTimestamp)
		agg.IsHeld = true
		if p.Rug != nil && p.Rug.IsRug {
			agg.IsRugged = true
			agg.TradedRugToken = true
		}
	}
	// Open entry cost is not a realized loss; NetPnL is realized-only.
	for _, t := range b.closed {
		agg.NetPnL = agg.NetPnL.Add(t.RealizedPnL)
	}

	if len(b.closed) > 0 {
		rate := decimal.NewFromInt(int64(wins)).
			Div(decimal.NewFromInt(int64(len(b.closed)))).
			Mul(decimal.NewFromInt(100))
		agg.WinRate = &rate
		avg := decimal.NewFromInt(holdingSec).
			Div(decimal.NewFromInt(int64(len(b.closed)))).
			Div(decimal.NewFromInt(3600))
		agg.AvgHoldingHours = avg
	}
	if lastTs > firstTs {
		agg.TradingWindowHours = decimal.NewFromInt(lastTs - firstTs).
			Div(decimal.NewFromInt(3_600_000))
	}

	agg.Status = classifyToken(agg.IsRugged, len(b.open), len(b.closed), agg.NetPnL, a.escapedThreshold())
	return agg
}

// classifyToken derives the display status purely from counts and flags.
func classifyToken(isRugged bool, openCount, closedCount int, realizedPnL decimal.Decimal, escapedThreshold decimal.Decimal) models.TokenStatus {
	switch {
	case isRugged && openCount > 0:
		return models.TokenStatusRugged
	case openCount > 0 && closedCount == 0:
		return models.TokenStatusHolding
	case closedCount > 0 && openCount == 0 && realizedPnL.GreaterThanOrEqual(escapedThreshold):
		return models.TokenStatusExited
	case closedCount > 0 && openCount == 0:
		return models.TokenStatusEscaped
	case closedCount > 0 && openCount > 0:
		return models.TokenStatusPartial
	default:
		return models.TokenStatusUnknown
	}
}

// escapedThreshold honors the configured value as-is; zero is a legitimate
// threshold, not "unset". Defaults come from config loading.
func (a *Aggregator) escapedThreshold() decimal.Decimal {
	if a == nil {
		return decimal.NewFromInt(-50)
	}
	return decimal.NewFromFloat(a.Config.EscapedPnLThresholdUSD)
}

func (a *Aggregator) overview(tokens []models.TokenAggregate, closed []models.ClosedTrade, open []models.OpenPosition, ledger models.CapitalLedger) models.OverviewAggregate {
	ov := models.OverviewAggregate{
		ClosedTrades:  len(closed),
		OpenPositions: len(open),
		TotalTrades:   len(closed) + len(open),
		TokensTraded:  len(tokens),

		StartingCapital: ledger.StartingCapital,
		PeakDeployed:    ledger.PeakDeployed,
		FinalCapital:    ledger.FinalCapital,
		UnrealizedMark:  ledger.UnrealizedMark,

		WalletGrowthROI:       ledger.WalletGrowthROI,
		TradingPerformanceROI: ledger.TradingPerformanceROI,
	}

	simpleSum := decimal.Zero
	netRealized := decimal.Zero
	for _, t := range closed {
		ov.TotalInvested = ov.TotalInvested.Add(t.EntryValueUSD)
		ov.TotalReturned = ov.TotalReturned.Add(t.ExitValueUSD)
		simpleSum = simpleSum.Add(t.ExitValueUSD.Sub(t.EntryValueUSD))
		netRealized = netRealized.Add(t.RealizedPnL)
		if t.RealizedPnL.GreaterThan(decimal.Zero) {
			ov.WinningTrades++
		} else if t.RealizedPnL.LessThan(decimal.Zero) {
			ov.LosingTrades++
		}
	}
	openEntryTotal := decimal.Zero
	for _, p := range open {
		ov.TotalInvested = ov.TotalInvested.Add(p.EntryValueUSD)
		openEntryTotal = openEntryTotal.Add(p.EntryValueUSD)
		if p.Rug != nil && p.Rug.IsRug {
			ov.RugTokensHeld++
			ov.ConfirmedRugLossUSD = ov.ConfirmedRugLossUSD.Add(p.Rug.ConfirmedLossUSD)
		}
	}
	for _, tok := range tokens {
		if tok.TradedRugToken {
			ov.RugTokensTraded++
		}
	}
	ov.NetRealizedPnL = netRealized

	if len(closed) > 0 {
		rate := decimal.NewFromInt(int64(ov.WinningTrades)).
			Div(decimal.NewFromInt(int64(len(closed)))).
			Mul(decimal.NewFromInt(100))
		ov.WinRate = &rate
	}

	// Two independent checks; both must pass for the report to be trusted.
	// (a) order-independent per-trade sums, (b) the chronological ledger's
	// implied net PnL once the unrealized mark is backed out.
	ledgerPnL := ledger.FinalCapital.Sub(ledger.StartingCapital).
		Sub(ledger.UnrealizedMark).Add(openEntryTotal)
	tol := a.tolerance()
	ov.Verification = models.Verification{
		SimpleSumPnL:   simpleSum,
		LedgerPnL:      ledgerPnL,
		NetRealizedPnL: netRealized,
		SimpleSumDelta: simpleSum.Sub(netRealized).Abs(),
		LedgerDelta:    ledgerPnL.Sub(netRealized).Abs(),
	}
	ov.Verification.SimpleSumMatches = withinTolerance(simpleSum, netRealized, tol) && !ledger.Clamped
	ov.Verification.LedgerMatches = withinTolerance(ledgerPnL, netRealized, tol) && !ledger.Clamped
	return ov
}

// tolerance honors the configured value; zero demands exact equality. Only a
// nonsensical negative value is clamped.
func (a *Aggregator) tolerance() decimal.Decimal {
	if a == nil {
		return decimal.NewFromFloat(1e-6)
	}
	if a.Config.VerificationTolerance < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(a.Config.VerificationTolerance)
}

// withinTolerance compares with relative tolerance against the larger
// magnitude, falling back to absolute tolerance near zero.
func withinTolerance(got, want, tol decimal.Decimal) bool {
	diff := got.Sub(want).Abs()
	scale := want.Abs()
	if got.Abs().GreaterThan(scale) {
		scale = got.Abs()
	}
	if scale.LessThan(decimal.NewFromInt(1)) {
		scale = decimal.NewFromInt(1)
	}
	return diff.LessThanOrEqual(tol.Mul(scale))
}
