package dataservice

// Wire DTOs for the market data service API. Dates travel as YYYY-MM-DD
// strings; null numeric values stay nil.

type symbolsRequest struct {
	Symbols []string `json:"symbols"`
	AsOf    string   `json:"as_of,omitempty"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
}

type statementsRequest struct {
	Symbols      []string `json:"symbols"`
	Cutoff       string   `json:"cutoff"`
	Period       string   `json:"period"`
	IncomeItems  []string `json:"income_items"`
	BalanceItems []string `json:"balance_items"`
}

type priceDTO struct {
	Symbol    string  `json:"symbol"`
	Close     float64 `json:"close"`
	PriceDate string  `json:"price_date"`
}

type pricesResponse struct {
	Prices []priceDTO `json:"prices"`
}

type sharesDTO struct {
	Symbol     string  `json:"symbol"`
	Shares     float64 `json:"shares"`
	SharesDate string  `json:"shares_date"`
}

type sharesResponse struct {
	Shares []sharesDTO `json:"shares"`
}

type splitDTO struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
	// Ratio is either "new:old" ("2:1", "1398:1000") or a plain decimal.
	Ratio string `json:"ratio"`
}

type splitsResponse struct {
	Splits []splitDTO `json:"splits"`
}

type dividendDTO struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type dividendsResponse struct {
	Dividends []dividendDTO `json:"dividends"`
}

type statementRowDTO struct {
	Symbol      string   `json:"symbol"`
	ReportDate  string   `json:"report_date"`
	FinanceType string   `json:"finance_type"`
	ItemName    string   `json:"item_name"`
	Value       *float64 `json:"value"`
}

type statementsResponse struct {
	Rows []statementRowDTO `json:"rows"`
}

type minDateResponse struct {
	MinDate *string `json:"min_date"`
}

type adjCloseDTO struct {
	Date     string  `json:"date"`
	AdjClose float64 `json:"adj_close"`
}

type adjClosesResponse struct {
	Prices []adjCloseDTO `json:"prices"`
}
