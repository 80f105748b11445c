package domain

import (
	"context"
	"time"
)

// UniverseProvider resolves a sector to its member symbols.
// Implemented by the universe repository (universe.db).
type UniverseProvider interface {
	// SectorSymbols returns the symbols belonging to a sector, sorted.
	// An unknown sector returns an empty slice, not an error.
	SectorSymbols(sector string) ([]string, error)

	// Sectors returns all known sector names, sorted.
	Sectors() ([]string, error)
}

// MarketDataProvider serves point-in-time price, share-count and
// corporate-action lookups. Implementations batch multi-symbol requests in
// bounded chunks and merge results by symbol; chunk order is not significant.
type MarketDataProvider interface {
	// LatestPrices returns, per symbol, the most recent close <= asOf.
	// Symbols without any price in range are absent from the map.
	LatestPrices(ctx context.Context, symbols []string, asOf time.Time) (map[string]PricePoint, error)

	// LatestShares returns, per symbol, the most recent shares outstanding
	// figure <= asOf.
	LatestShares(ctx context.Context, symbols []string, asOf time.Time) (map[string]SharesPoint, error)

	// SplitEvents returns split events per symbol in (start, end], sorted by
	// date. Every symbol requested has an entry, possibly empty.
	SplitEvents(ctx context.Context, symbols []string, start, end time.Time) (map[string][]SplitEvent, error)

	// DividendEvents returns dividend events per symbol in (start, end],
	// sorted by date. Every symbol requested has an entry, possibly empty.
	DividendEvents(ctx context.Context, symbols []string, start, end time.Time) (map[string][]DividendEvent, error)
}

// StatementSource serves raw annual statement line items. The point-in-time
// alignment of income and balance rows happens in the fundamentals resolver,
// not here.
type StatementSource interface {
	// AnnualStatements returns annual statement rows <= cutoff for the given
	// symbols, restricted to the requested item names per finance type.
	AnnualStatements(ctx context.Context, symbols []string, cutoff time.Time, incomeItems, balanceItems []string) ([]StatementRow, error)

	// MinAnnualStatementDate returns the earliest annual report date in the
	// dataset, or nil when the dataset is empty.
	MinAnnualStatementDate(ctx context.Context) (*time.Time, error)
}

// BenchmarkProvider serves adjusted-close lookups for benchmark ETFs.
type BenchmarkProvider interface {
	// AdjCloseAsOf returns the last adjusted close <= asOf, or nil when the
	// series has no observation in range.
	AdjCloseAsOf(symbol string, asOf time.Time) (*float64, error)

	// Known reports whether any price history exists for the symbol.
	Known(symbol string) (bool, error)
}
