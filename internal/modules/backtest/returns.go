package backtest

import (
	"math"
	"time"

	"github.com/Soham1117/StockApp/internal/domain"
)

// SplitFactorBetween multiplies the split factors of events falling strictly
// after start and up to and including end. No events means a factor of 1.
func SplitFactorBetween(events []domain.SplitEvent, start, end time.Time) float64 {
	factor := 1.0
	for _, ev := range events {
		if ev.Date.After(start) && !ev.Date.After(end) {
			factor *= ev.Factor
		}
	}
	return factor
}

// SplitAdjustedDividends sums per-share dividends paid in (start, end],
// scaling each payment by the split factor accumulated between the start and
// the payment date. A dividend declared per pre-split share must be scaled to
// the share count held at the start, otherwise payouts around a split are
// double counted or halved.
func SplitAdjustedDividends(dividends []domain.DividendEvent, splits []domain.SplitEvent, start, end time.Time) float64 {
	total := 0.0
	for _, div := range dividends {
		if !div.Date.After(start) || div.Date.After(end) {
			continue
		}
		total += div.Amount * SplitFactorBetween(splits, start, div.Date)
	}
	return total
}

// TotalReturn computes the corporate-action-correct holding-period return.
// The end price is scaled by the split factor accumulated over the period so
// it is comparable with the unadjusted start price, and dividends are split
// adjusted the same way. Returns nil when either price is unusable.
func TotalReturn(startPrice, endPrice *float64, splits []domain.SplitEvent, dividends []domain.DividendEvent, start, end time.Time) (*float64, float64, float64) {
	splitFactor := SplitFactorBetween(splits, start, end)
	divs := SplitAdjustedDividends(dividends, splits, start, end)

	if startPrice == nil || endPrice == nil || *startPrice <= 0 {
		return nil, divs, splitFactor
	}
	tr := (*endPrice*splitFactor + divs) / *startPrice - 1
	if math.IsNaN(tr) || math.IsInf(tr, 0) {
		return nil, divs, splitFactor
	}
	return &tr, divs, splitFactor
}

// SimpleReturn is the price-only return used for benchmarks, whose adjusted
// close series already folds in distributions.
func SimpleReturn(startPrice, endPrice *float64) *float64 {
	if startPrice == nil || endPrice == nil || *startPrice <= 0 {
		return nil
	}
	r := *endPrice / *startPrice - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}
