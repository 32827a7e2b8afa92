package engine

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"walletlens/internal/config"
	"walletlens/internal/models"
)

// TradeRef identifies one of the wallet's entries inside a token's global
// swap feed. Closed trades and open positions both reduce to this.
type TradeRef struct {
	TokenAddress   string
	TxHash         string
	EntryPrice     decimal.Decimal
	EntryTimestamp int64
}

// Simulator estimates the outcome for an observer who copied a trade one
// market tick after the wallet. All simulation is retrospective; no orders
// are ever placed.
type Simulator struct {
	Config config.EngineConfig
	Logger *zap.Logger
}

// Simulate locates the wallet's trade in the swap feed, takes the next swap
// strictly after it as the copy entry, applies a conservative price floor,
// and derives forward-looking gain/loss figures from the candle history.
// A nil result means no usable swap data; nil fields inside a result mean
// no candle data. Neither is ever conflated with a zero outcome.
func (s *Simulator) Simulate(wallet string, trade TradeRef, swaps []models.Swap, candles []models.Candle) *models.CopyTradeResult {
	if len(swaps) == 0 {
		return nil
	}

	feed := append([]models.Swap(nil), swaps...)
	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Before(feed[j]) })

	idx := s.locate(wallet, trade, feed)
	if idx < 0 || idx+1 >= len(feed) {
		// No swap after the trade: nothing an observer could have copied.
		return nil
	}

	next := feed[idx+1]
	nextPrice, ok := next.PriceOf(trade.TokenAddress)
	if !ok {
		if s.Logger != nil {
			s.Logger.Debug("copy entry swap has no usable price",
				zap.String("token", trade.TokenAddress), zap.String("tx", next.TxHash))
		}
		return nil
	}

	// Copying can never be assumed to beat the original fill, even when the
	// next tick momentarily quotes lower.
	copyPrice := nextPrice
	if trade.EntryPrice.GreaterThan(copyPrice) {
		copyPrice = trade.EntryPrice
	}

	res := &models.CopyTradeResult{CopyEntryPrice: &copyPrice}
	s.applyCandles(res, copyPrice, trade.EntryTimestamp, candles)
	return res
}

// locate tries progressively weaker signals: exact tx hash, wallet address
// within the configured timestamp tolerance, nearest swap by timestamp.
func (s *Simulator) locate(wallet string, trade TradeRef, feed []models.Swap) int {
	for i, sw := range feed {
		if trade.TxHash != "" && sw.TxHash == trade.TxHash {
			return i
		}
	}

	tolerance := s.Config.CopyMatchToleranceMs
	if tolerance <= 0 {
		tolerance = 60_000
	}
	best := -1
	var bestDist int64
	for i, sw := range feed {
		if wallet == "" || sw.Maker != wallet {
			continue
		}
		dist := absInt64(sw.Ts - trade.EntryTimestamp)
		if dist > tolerance {
			continue
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best >= 0 {
		return best
	}

	for i, sw := range feed {
		dist := absInt64(sw.Ts - trade.EntryTimestamp)
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

func (s *Simulator) applyCandles(res *models.CopyTradeResult, copyPrice decimal.Decimal, entryTs int64, candles []models.Candle) {
	window := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if c.Timestamp >= entryTs {
			window = append(window, c)
		}
	}
	if len(window) == 0 {
		return
	}
	sort.SliceStable(window, func(i, j int) bool { return window[i].Timestamp < window[j].Timestamp })

	shortWindow := s.Config.CopyShortWindowMs
	if shortWindow <= 0 {
		shortWindow = 3_600_000
	}
	cutoff := entryTs + shortWindow

	hundred := decimal.NewFromInt(100)
	target25 := copyPrice.Mul(decimal.NewFromFloat(1.25))
	target50 := copyPrice.Mul(decimal.NewFromFloat(1.50))

	var (
		hiShort, loShort, hiFull, loFull decimal.Decimal
		haveShort                        bool
	)
	for i, c := range window {
		if i == 0 {
			hiFull, loFull = c.High, c.Low
		} else {
			if c.High.GreaterThan(hiFull) {
				hiFull = c.High
			}
			if c.Low.LessThan(loFull) {
				loFull = c.Low
			}
		}
		if c.Timestamp < cutoff {
			if !haveShort {
				hiShort, loShort = c.High, c.Low
				haveShort = true
			} else {
				if c.High.GreaterThan(hiShort) {
					hiShort = c.High
				}
				if c.Low.LessThan(loShort) {
					loShort = c.Low
				}
			}
		}
		if res.TimeTo25Percent == nil && c.High.GreaterThanOrEqual(target25) {
			ts := c.Timestamp
			res.TimeTo25Percent = &ts
		}
		if res.TimeTo50Percent == nil && c.High.GreaterThanOrEqual(target50) {
			ts := c.Timestamp
			res.TimeTo50Percent = &ts
		}
	}

	pct := func(p decimal.Decimal) *decimal.Decimal {
		v := p.Sub(copyPrice).Div(copyPrice).Mul(hundred)
		return &v
	}
	drawdown := func(p decimal.Decimal) *decimal.Decimal {
		v := copyPrice.Sub(p).Div(copyPrice).Mul(hundred)
		return &v
	}
	res.PossibleGainFull = pct(hiFull)
	res.PossibleLossFull = drawdown(loFull)
	if haveShort {
		res.PossibleGain1h = pct(hiShort)
		res.PossibleLoss1h = drawdown(loShort)
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
