// Package fundamentals resolves point-in-time annual fundamentals. Given a
// cutoff date it selects, per symbol, the single most recent annual report
// where an income statement and a balance sheet exist on the same report
// date, which keeps ratio numerators and denominators from mixing fiscal
// periods.
package fundamentals

import "time"

// Snapshot is one symbol's aligned annual fundamentals at a cutoff date.
// Income and balance items share the same report date by construction.
type Snapshot struct {
	Symbol       string
	ReportDate   time.Time
	IncomeItems  map[string]*float64
	BalanceItems map[string]*float64
}
