// Package domain holds the shared market-data types and provider interfaces
// consumed by the backtest engine. The domain layer is pure: no HTTP, no
// database, no logging.
package domain

import "time"

// PricePoint is the most recent close on or before a requested date.
type PricePoint struct {
	Close     float64
	PriceDate time.Time
}

// SharesPoint is the most recent shares-outstanding figure on or before a
// requested date. Share counts come from filings, so callers lag the request
// date to the fundamentals cutoff; prices are public same-day and are not
// lagged.
type SharesPoint struct {
	Shares     float64
	SharesDate time.Time
}

// SplitEvent is a stock split. Factor is the share multiplier (2.0 for a
// 2-for-1 split); prices divide by the same factor.
type SplitEvent struct {
	Date   time.Time
	Factor float64
}

// DividendEvent is a per-share cash dividend.
type DividendEvent struct {
	Date   time.Time
	Amount float64
}

// StatementRow is one line item of an annual financial statement as delivered
// by the data service. FinanceType distinguishes income-statement rows from
// balance-sheet rows; Value is nil when the source reports a null.
type StatementRow struct {
	Symbol      string
	ReportDate  time.Time
	FinanceType string
	ItemName    string
	Value       *float64
}

// Statement finance types.
const (
	FinanceTypeIncome  = "income_statement"
	FinanceTypeBalance = "balance_sheet"
)
