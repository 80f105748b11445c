package fundamentals

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Soham1117/StockApp/internal/cache"
	"github.com/Soham1117/StockApp/internal/domain"
)

// SnapshotCache memoizes resolved snapshots per symbol and cutoff. A nil
// value records that no aligned snapshot exists for that key, so repeated
// runs do not refetch symbols already known to lack data.
type SnapshotCache = cache.LRU[string, *Snapshot]

// NewSnapshotCache creates the memoization cache for a resolver.
func NewSnapshotCache(capacity int) *SnapshotCache {
	return cache.NewLRU[string, *Snapshot](capacity)
}

// Resolver selects aligned point-in-time snapshots from raw statement rows.
type Resolver struct {
	source    domain.StatementSource
	snapshots *SnapshotCache
	log       zerolog.Logger
}

// NewResolver creates a fundamentals resolver.
func NewResolver(source domain.StatementSource, snapshots *SnapshotCache, log zerolog.Logger) *Resolver {
	return &Resolver{
		source:    source,
		snapshots: snapshots,
		log:       log.With().Str("service", "fundamentals").Logger(),
	}
}

// MinAnnualStatementDate returns the earliest annual report date available in
// the dataset. Used by the calendar to skip windows that predate the data.
func (r *Resolver) MinAnnualStatementDate(ctx context.Context) (*time.Time, error) {
	return r.source.MinAnnualStatementDate(ctx)
}

// Resolve returns, per symbol, the single most recent annual snapshot whose
// report date is <= cutoff and where income and balance rows exist on the
// same date. Symbols with no such aligned date are absent from the result;
// they are excluded from the candidate set, never defaulted to zero.
func (r *Resolver) Resolve(ctx context.Context, symbols []string, cutoff time.Time) (map[string]Snapshot, error) {
	if len(symbols) == 0 {
		return map[string]Snapshot{}, nil
	}

	out := make(map[string]Snapshot)
	missing := symbols
	if r.snapshots != nil {
		missing = make([]string, 0, len(symbols))
		for _, symbol := range symbols {
			snap, ok := r.snapshots.Get(snapshotKey(symbol, cutoff))
			if !ok {
				missing = append(missing, symbol)
				continue
			}
			if snap != nil {
				out[symbol] = *snap
			}
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	rows, err := r.source.AnnualStatements(ctx, missing, cutoff, IncomeItemNames(), BalanceItemNames())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch annual statements: %w", err)
	}

	resolved := alignRows(rows, cutoff)
	for symbol, snap := range resolved {
		out[symbol] = snap
	}
	if r.snapshots != nil {
		for _, symbol := range missing {
			if snap, ok := resolved[symbol]; ok {
				stored := snap
				r.snapshots.Set(snapshotKey(symbol, cutoff), &stored)
			} else {
				r.snapshots.Set(snapshotKey(symbol, cutoff), nil)
			}
		}
	}

	return out, nil
}

func snapshotKey(symbol string, cutoff time.Time) string {
	return symbol + "|" + cutoff.Format("2006-01-02")
}

// dateKey groups rows by report date without time-of-day noise.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// alignRows implements the alignment invariant: per symbol, keep the latest
// report date at which both finance types are present, then collect items.
func alignRows(rows []domain.StatementRow, cutoff time.Time) map[string]Snapshot {
	type statementDay struct {
		date       time.Time
		hasIncome  bool
		hasBalance bool
	}

	days := make(map[string]map[string]*statementDay)
	for _, row := range rows {
		if row.Symbol == "" || row.ReportDate.After(cutoff) {
			continue
		}
		byDate, ok := days[row.Symbol]
		if !ok {
			byDate = make(map[string]*statementDay)
			days[row.Symbol] = byDate
		}
		key := dateKey(row.ReportDate)
		day, ok := byDate[key]
		if !ok {
			day = &statementDay{date: row.ReportDate}
			byDate[key] = day
		}
		switch row.FinanceType {
		case domain.FinanceTypeIncome:
			day.hasIncome = true
		case domain.FinanceTypeBalance:
			day.hasBalance = true
		}
	}

	// Latest aligned date per symbol.
	aligned := make(map[string]time.Time)
	for symbol, byDate := range days {
		var best time.Time
		found := false
		for _, day := range byDate {
			if !day.hasIncome || !day.hasBalance {
				continue
			}
			if !found || day.date.After(best) {
				best = day.date
				found = true
			}
		}
		if found {
			aligned[symbol] = best
		}
	}

	out := make(map[string]Snapshot, len(aligned))
	for _, row := range rows {
		best, ok := aligned[row.Symbol]
		if !ok || dateKey(row.ReportDate) != dateKey(best) {
			continue
		}
		snap, ok := out[row.Symbol]
		if !ok {
			snap = Snapshot{
				Symbol:       row.Symbol,
				ReportDate:   best,
				IncomeItems:  make(map[string]*float64),
				BalanceItems: make(map[string]*float64),
			}
		}
		switch row.FinanceType {
		case domain.FinanceTypeIncome:
			snap.IncomeItems[row.ItemName] = row.Value
		case domain.FinanceTypeBalance:
			snap.BalanceItems[row.ItemName] = row.Value
		}
		out[row.Symbol] = snap
	}

	return out
}
