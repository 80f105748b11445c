package fundamentals

import "math"

// Concept fallback lists. Raw statement item names are snake_case; the
// "pretty" labels appear in some older statement templates, so both are
// queried and tried in order.
var (
	RevenueItems = []string{
		"total_revenue", "Total Revenue",
		"operating_revenue", "Operating Revenue",
	}
	DilutedEPSItems = []string{
		"diluted_eps", "Diluted EPS",
		"basic_eps", "Basic EPS",
	}
	NetIncomeItems = []string{
		"net_income_common_stockholders", "Net Income Common Stockholders",
		"net_income", "Net Income",
	}
	EBITItems   = []string{"ebit", "EBIT"}
	EBITDAItems = []string{"ebitda", "EBITDA"}

	EquityItems = []string{
		"stockholders_equity", "Stockholders Equity",
		"common_stock_equity", "Common Stock Equity",
		"total_equity_gross_minority_interest", "Total Equity Gross Minority Interest",
	}
	CashItems = []string{
		"cash_cash_equivalents_and_short_term_investments", "Cash, Cash Equivalents & Short Term Investments",
		"cash_and_cash_equivalents", "Cash And Cash Equivalents",
	}
	DebtItems = []string{
		"total_debt", "Total Debt",
		"long_term_debt_and_capital_lease_obligation",
		"current_debt_and_capital_lease_obligation",
		"Total Debt & Capital Lease Obligation",
	}
)

// IncomeItemNames is the full income-statement query list.
func IncomeItemNames() []string {
	names := make([]string, 0, 16)
	names = append(names, RevenueItems...)
	names = append(names, DilutedEPSItems...)
	names = append(names, EBITItems...)
	names = append(names, EBITDAItems...)
	names = append(names, NetIncomeItems...)
	return names
}

// BalanceItemNames is the full balance-sheet query list.
func BalanceItemNames() []string {
	names := make([]string, 0, 16)
	names = append(names, DebtItems...)
	names = append(names, CashItems...)
	names = append(names, EquityItems...)
	return names
}

// PickFirst returns the first candidate item that is present, non-nil and
// finite. Order encodes preference: total_revenue beats operating_revenue.
func PickFirst(items map[string]*float64, candidates []string) *float64 {
	for _, name := range candidates {
		v, ok := items[name]
		if !ok || v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		return v
	}
	return nil
}

// Eligible reports whether a snapshot carries enough income data to compute
// P/E and P/S sensibly: revenue plus either EPS or net income.
func Eligible(snap Snapshot) bool {
	if len(snap.IncomeItems) == 0 {
		return false
	}
	if PickFirst(snap.IncomeItems, RevenueItems) == nil {
		return false
	}
	if PickFirst(snap.IncomeItems, DilutedEPSItems) != nil {
		return true
	}
	return PickFirst(snap.IncomeItems, NetIncomeItems) != nil
}
