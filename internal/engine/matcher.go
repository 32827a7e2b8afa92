package engine

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"walletlens/internal/models"
)

// ErrNoValidTransactions is returned when the input contains nothing the
// matcher can work with. Anything less severe travels as data, not errors.
var ErrNoValidTransactions = errors.New("no valid transactions to reconstruct")

// lot is an unconsumed slice of a buy transaction. Owned exclusively by the
// per-token FIFO queue during matching, never exposed outside the matcher.
type lot struct {
	remaining decimal.Decimal
	unitPrice decimal.Decimal
	entryTs   int64
	txHash    string
}

// MatchResult is the output of FIFO lot matching over one wallet's window.
type MatchResult struct {
	Closed         []models.ClosedTrade
	Open           []models.OpenPosition
	UnmatchedSells []models.UnmatchedSell

	// SkippedCount is the number of malformed or zero-amount transactions
	// excluded before matching.
	SkippedCount int
}

// Reconstruct turns a raw transaction stream into closed trades and open
// positions. Transactions are grouped per token and processed in ascending
// (timestamp, block height) order against a FIFO queue of buy lots. Sells
// consume the oldest lot first; a partially consumed lot is requeued at the
// front. Sell quantity that exceeds every queued lot is flagged as an
// unmatched sell rather than matched against lots priced at zero.
func Reconstruct(txs []models.Transaction) (MatchResult, error) {
	var res MatchResult

	valid := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Valid() {
			res.SkippedCount++
			continue
		}
		valid = append(valid, tx)
	}
	if len(valid) == 0 {
		return MatchResult{}, ErrNoValidTransactions
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Before(valid[j]) })

	tokenOrder := make([]string, 0)
	byToken := make(map[string][]models.Transaction)
	for _, tx := range valid {
		if _, ok := byToken[tx.TokenAddress]; !ok {
			tokenOrder = append(tokenOrder, tx.TokenAddress)
		}
		byToken[tx.TokenAddress] = append(byToken[tx.TokenAddress], tx)
	}

	for _, token := range tokenOrder {
		closed, open, unmatched := matchToken(token, byToken[token])
		res.Closed = append(res.Closed, closed...)
		if open != nil {
			res.Open = append(res.Open, *open)
		}
		res.UnmatchedSells = append(res.UnmatchedSells, unmatched...)
	}
	return res, nil
}

func matchToken(token string, txs []models.Transaction) ([]models.ClosedTrade, *models.OpenPosition, []models.UnmatchedSell) {
	var (
		queue     []lot
		closed    []models.ClosedTrade
		unmatched []models.UnmatchedSell
	)

	for _, tx := range txs {
		if tx.Side == models.SideBuy {
			queue = append(queue, lot{
				remaining: tx.Amount,
				unitPrice: tx.Price,
				entryTs:   tx.Timestamp,
				txHash:    tx.TxHash,
			})
			continue
		}

		remaining := tx.Amount
		for remaining.GreaterThan(decimal.Zero) && len(queue) > 0 {
			front := &queue[0]
			take := front.remaining
			if remaining.LessThan(take) {
				take = remaining
			}
			closed = append(closed, newClosedTrade(token, take, *front, tx))
			front.remaining = front.remaining.Sub(take)
			remaining = remaining.Sub(take)
			if front.remaining.LessThanOrEqual(decimal.Zero) {
				queue = queue[1:]
			}
		}
		if remaining.GreaterThan(decimal.Zero) {
			unmatched = append(unmatched, models.UnmatchedSell{
				TokenAddress: token,
				Amount:       remaining,
				Timestamp:    tx.Timestamp,
				TxHash:       tx.TxHash,
			})
		}
	}

	return closed, collapseOpen(token, queue), unmatched
}

func newClosedTrade(token string, amount decimal.Decimal, entry lot, exit models.Transaction) models.ClosedTrade {
	entryValue := amount.Mul(entry.unitPrice)
	exitValue := amount.Mul(exit.Price)
	pnl := exitValue.Sub(entryValue)

	trade := models.ClosedTrade{
		TokenAddress:       token,
		Amount:             amount,
		EntryPrice:         entry.unitPrice,
		ExitPrice:          exit.Price,
		EntryTimestamp:     entry.entryTs,
		ExitTimestamp:      exit.Timestamp,
		EntryValueUSD:      entryValue,
		ExitValueUSD:       exitValue,
		RealizedPnL:        pnl,
		HoldingTimeSeconds: (exit.Timestamp - entry.entryTs) / 1000,
		EntryTxHash:        entry.txHash,
		ExitTxHash:         exit.TxHash,
	}
	// entryValue > 0 is guaranteed by transaction validation, so the ROI
	// denominator is never zero here.
	trade.RealizedROI = pnl.Div(entryValue).Mul(decimal.NewFromInt(100))
	return trade
}

// collapseOpen folds surviving lots into one position: quantity-weighted
// average entry price, earliest surviving lot timestamp.
func collapseOpen(token string, queue []lot) *models.OpenPosition {
	var (
		amount   = decimal.Zero
		cost     = decimal.Zero
		earliest int64
		txHash   string
	)
	for _, l := range queue {
		if l.remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount = amount.Add(l.remaining)
		cost = cost.Add(l.remaining.Mul(l.unitPrice))
		if earliest == 0 || l.entryTs < earliest {
			earliest = l.entryTs
			txHash = l.txHash
		}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	return &models.OpenPosition{
		TokenAddress:   token,
		Amount:         amount,
		EntryPrice:     cost.Div(amount),
		EntryTimestamp: earliest,
		EntryValueUSD:  cost,
		EntryTxHash:    txHash,
	}
}
