package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"walletlens/internal/config"
	"walletlens/internal/models"
)

// MarketData provides a token's global swap feed and candle history.
// Implementations live at the orchestration boundary (internal/market).
type MarketData interface {
	TokenSwaps(ctx context.Context, tokenAddress string, fromTs, toTs int64) ([]models.Swap, error)
	TokenCandles(ctx context.Context, tokenAddress string, fromTs int64) ([]models.Candle, error)
}

// Engine runs the full analysis pipeline: FIFO reconstruction, per-token
// rug enrichment and copy-trade simulation (fanned out across a bounded
// worker pool), then the sequential capital ledger and aggregation. It holds
// no state across calls; every invocation builds a fresh report.
type Engine struct {
	Config config.EngineConfig
	States StateLookup
	Market MarketData
	Logger *zap.Logger
}

type AnalyzeInput struct {
	WalletAddress string
	Chain         string
	WindowDays    int

	// Optional window bounds in epoch ms. Transactions outside are excluded
	// before matching.
	FromTs int64
	ToTs   int64

	Transactions []models.Transaction
}

func (e *Engine) Analyze(ctx context.Context, in AnalyzeInput) (*models.WalletReport, error) {
	txs := in.Transactions
	if in.FromTs > 0 || in.ToTs > 0 {
		txs = filterWindow(txs, in.FromTs, in.ToTs)
	}

	match, err := Reconstruct(txs)
	if err != nil {
		return nil, err
	}

	closed, open := e.fanOutTokens(ctx, in.WalletAddress, match)

	ledger := Track(closed, open)
	agg := &Aggregator{Config: e.Config}
	tokens, overview := agg.Aggregate(closed, open, ledger)

	return &models.WalletReport{
		ReportID:            uuid.NewString(),
		WalletAddress:       in.WalletAddress,
		Chain:               in.Chain,
		WindowDays:          in.WindowDays,
		GeneratedAt:         time.Now().UTC().UnixMilli(),
		ClosedTrades:        closed,
		OpenPositions:       open,
		Tokens:              tokens,
		Overview:            overview,
		Capital:             ledger,
		UnmatchedSells:      match.UnmatchedSells,
		SkippedTransactions: match.SkippedCount,
	}, nil
}

type tokenWork struct {
	token  string
	closed []models.ClosedTrade
	open   []models.OpenPosition
}

// fanOutTokens enriches and simulates each token independently. Tokens are
// disjoint, so no shared state is touched across workers; one token's lookup
// failure or timeout degrades that token only.
func (e *Engine) fanOutTokens(ctx context.Context, wallet string, match MatchResult) ([]models.ClosedTrade, []models.OpenPosition) {
	order := make([]string, 0)
	work := make(map[string]*tokenWork)
	get := func(token string) *tokenWork {
		w, ok := work[token]
		if !ok {
			w = &tokenWork{token: token}
			work[token] = w
			order = append(order, token)
		}
		return w
	}
	for _, t := range match.Closed {
		w := get(t.TokenAddress)
		w.closed = append(w.closed, t)
	}
	for _, p := range match.Open {
		w := get(p.TokenAddress)
		w.open = append(w.open, p)
	}

	workers := e.Config.Workers
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, token := range order {
		w := work[token]
		wg.Add(1)
		sem <- struct{}{}
		go func(w *tokenWork) {
			defer wg.Done()
			defer func() { <-sem }()
			closed, open := e.processToken(ctx, wallet, w)
			mu.Lock()
			w.closed = closed
			w.open = open
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	var (
		closed []models.ClosedTrade
		open   []models.OpenPosition
	)
	for _, token := range order {
		closed = append(closed, work[token].closed...)
		open = append(open, work[token].open...)
	}
	sort.SliceStable(closed, func(i, j int) bool {
		if closed[i].ExitTimestamp != closed[j].ExitTimestamp {
			return closed[i].ExitTimestamp < closed[j].ExitTimestamp
		}
		return closed[i].EntryTimestamp < closed[j].EntryTimestamp
	})
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].EntryTimestamp < open[j].EntryTimestamp
	})
	return closed, open
}

func (e *Engine) processToken(ctx context.Context, wallet string, w *tokenWork) ([]models.ClosedTrade, []models.OpenPosition) {
	timeout := e.Config.LookupTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	enricher := &Enricher{Lookup: e.States, Config: e.Config, Logger: e.Logger}
	closed, open := enricher.EnrichToken(tctx, w.token, w.closed, w.open)

	if e.Market == nil {
		return closed, open
	}
	fromTs := earliestEntry(closed, open)
	if fromTs == 0 {
		return closed, open
	}
	swaps, err := e.Market.TokenSwaps(tctx, w.token, fromTs, 0)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Debug("swap feed unavailable", zap.String("token", w.token), zap.Error(err))
		}
		swaps = nil
	}
	candles, err := e.Market.TokenCandles(tctx, w.token, fromTs)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Debug("candles unavailable", zap.String("token", w.token), zap.Error(err))
		}
		candles = nil
	}

	sim := &Simulator{Config: e.Config, Logger: e.Logger}
	for i := range closed {
		closed[i].Copy = sim.Simulate(wallet, TradeRef{
			TokenAddress:   w.token,
			TxHash:         closed[i].EntryTxHash,
			EntryPrice:     closed[i].EntryPrice,
			EntryTimestamp: closed[i].EntryTimestamp,
		}, swaps, candles)
	}
	for i := range open {
		open[i].Copy = sim.Simulate(wallet, TradeRef{
			TokenAddress:   w.token,
			TxHash:         open[i].EntryTxHash,
			EntryPrice:     open[i].EntryPrice,
			EntryTimestamp: open[i].EntryTimestamp,
		}, swaps, candles)
	}
	return closed, open
}

func earliestEntry(closed []models.ClosedTrade, open []models.OpenPosition) int64 {
	var ts int64
	for _, t := range closed {
		if ts == 0 || t.EntryTimestamp < ts {
			ts = t.EntryTimestamp
		}
	}
	for _, p := range open {
		if ts == 0 || p.EntryTimestamp < ts {
			ts = p.EntryTimestamp
		}
	}
	return ts
}

func filterWindow(txs []models.Transaction, fromTs, toTs int64) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if fromTs > 0 && tx.Timestamp < fromTs {
			continue
		}
		if toTs > 0 && tx.Timestamp > toTs {
			continue
		}
		out = append(out, tx)
	}
	return out
}
