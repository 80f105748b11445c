// Package backtest implements the walk-forward sector backtesting engine.
// Each rebalance point is evaluated as a pure function of its as-of date, the
// sector universe and the request parameters, which keeps points independent
// and safe to evaluate concurrently.
package backtest

import (
	"fmt"
	"strings"

	"github.com/Soham1117/StockApp/internal/modules/screener"
)

// Parameter bounds.
const (
	minYears        = 1
	maxYears        = 30
	minHoldingYears = 1
	maxHoldingYears = 3
	minTopN         = 1
	maxTopN         = 100
	minLagDays      = 0
	maxLagDays      = 365
)

// Defaults applied by Request.Normalize.
const (
	defaultYears        = 10
	defaultHoldingYears = 1
	defaultTopN         = 10
	defaultBenchmark    = "SPY"
	defaultLagDays      = 90
)

// Rules is the built-in rule set applied after screener filters. The P/E
// toggles default to enabled when omitted, so they are pointers.
type Rules struct {
	PEPositive          *bool                      `json:"pe_positive,omitempty"`
	PEBelowUniverseMean *bool                      `json:"pe_below_universe_mean,omitempty"`
	FundamentalRules    []screener.FundamentalRule `json:"fundamental_rules,omitempty"`
}

// PEPositiveEnabled reports the pe_positive toggle with its default of true.
func (r Rules) PEPositiveEnabled() bool {
	return r.PEPositive == nil || *r.PEPositive
}

// PEBelowMeanEnabled reports the pe_below_universe_mean toggle with its
// default of true.
func (r Rules) PEBelowMeanEnabled() bool {
	return r.PEBelowUniverseMean == nil || *r.PEBelowUniverseMean
}

// Request is a sector backtest request.
type Request struct {
	Sector              string             `json:"sector"`
	Years               int                `json:"years"`
	HoldingYears        int                `json:"holding_years"`
	Rebalance           string             `json:"rebalance,omitempty"`
	TopN                int                `json:"top_n"`
	Benchmark           string             `json:"benchmark"`
	FundamentalsLagDays *int               `json:"fundamentals_lag_days,omitempty"`
	Rules               Rules              `json:"rules"`
	Weights             map[string]float64 `json:"weights,omitempty"`
	Filters             *screener.Filters  `json:"filters,omitempty"`
	RunID               string             `json:"run_id,omitempty"`
}

// Normalize fills defaults in place.
func (r *Request) Normalize() {
	r.Sector = strings.TrimSpace(r.Sector)
	if r.Years == 0 {
		r.Years = defaultYears
	}
	if r.HoldingYears == 0 {
		r.HoldingYears = defaultHoldingYears
	}
	if r.Rebalance == "" {
		r.Rebalance = "annual"
	}
	if r.TopN == 0 {
		r.TopN = defaultTopN
	}
	r.Benchmark = strings.ToUpper(strings.TrimSpace(r.Benchmark))
	if r.Benchmark == "" {
		r.Benchmark = defaultBenchmark
	}
	if r.FundamentalsLagDays == nil {
		lag := defaultLagDays
		r.FundamentalsLagDays = &lag
	}
}

// Validate checks parameter bounds. Configuration errors are reported to the
// caller immediately; nothing is simulated.
func (r *Request) Validate() error {
	if r.Sector == "" {
		return fmt.Errorf("sector must be non-empty")
	}
	if r.Years < minYears || r.Years > maxYears {
		return fmt.Errorf("years must be between %d and %d", minYears, maxYears)
	}
	if r.HoldingYears < minHoldingYears || r.HoldingYears > maxHoldingYears {
		return fmt.Errorf("holding_years must be between %d and %d", minHoldingYears, maxHoldingYears)
	}
	if r.Rebalance != "annual" {
		return fmt.Errorf("rebalance %q is not supported (only annual)", r.Rebalance)
	}
	if r.TopN < minTopN || r.TopN > maxTopN {
		return fmt.Errorf("top_n must be between %d and %d", minTopN, maxTopN)
	}
	if lag := *r.FundamentalsLagDays; lag < minLagDays || lag > maxLagDays {
		return fmt.Errorf("fundamentals_lag_days must be between %d and %d", minLagDays, maxLagDays)
	}
	return nil
}

// Ratios reports the raw (unsanitized) valuation multiples for a selected
// stock. Raw values may be negative; the sanitized counterparts used for
// scoring are never exposed here.
type Ratios struct {
	PE       *float64 `json:"pe"`
	PS       *float64 `json:"ps"`
	PB       *float64 `json:"pb"`
	EVEBIT   *float64 `json:"ev_ebit"`
	EVEBITDA *float64 `json:"ev_ebitda"`
	EVSales  *float64 `json:"ev_sales"`
}

// SelectedStock is one ranked pick at a rebalance point, with its realized
// holding-period outcome.
type SelectedStock struct {
	Symbol              string              `json:"symbol"`
	ValuationScore      *float64            `json:"valuation_score"`
	ValuationComponents map[string]*float64 `json:"valuation_components,omitempty"`
	Ratios              Ratios              `json:"ratios"`
	TotalReturn         *float64            `json:"total_return"`
	Dividends           float64             `json:"dividends"`
	SplitFactor         *float64            `json:"split_factor,omitempty"`
}

// RebalancePoint is the outcome of one walk-forward step. Points lacking
// data still appear in the report with a note; they are never silently
// dropped.
type RebalancePoint struct {
	AsOf                     string          `json:"as_of"`
	EndDate                  string          `json:"end_date"`
	UniverseSize             int             `json:"universe_size"`
	FilteredByFiltersSize    int             `json:"filtered_by_filters_size"`
	FilteredSize             int             `json:"filtered_size"`
	MeanPE                   *float64        `json:"mean_pe,omitempty"`
	Selected                 []SelectedStock `json:"selected"`
	PortfolioTotalReturn     *float64        `json:"portfolio_total_return,omitempty"`
	BenchmarkTotalReturn     *float64        `json:"benchmark_total_return,omitempty"`
	IndustryAvgReturn        *float64        `json:"industry_avg_return,omitempty"`
	IndustryAvgReturnRaw     *float64        `json:"industry_avg_return_raw,omitempty"`
	Note                     string          `json:"note,omitempty"`
	TimingMS                 int64           `json:"timing_ms"`
	UnsupportedFilterMetrics []string        `json:"unsupported_filter_metrics,omitempty"`
}

// Summary aggregates the per-point results. Every average is taken over the
// points where the respective value is defined; win rate counts only points
// where both the portfolio and the benchmark return exist.
type Summary struct {
	Points               int      `json:"points"`
	PointsWithReturns    int      `json:"points_with_returns"`
	WinRate              *float64 `json:"win_rate"`
	AvgPortfolioReturn   *float64 `json:"avg_portfolio_return"`
	AvgBenchmarkReturn   *float64 `json:"avg_benchmark_return"`
	AvgIndustryReturn    *float64 `json:"avg_industry_return"`
	AvgIndustryReturnRaw *float64 `json:"avg_industry_return_raw"`
}

// Report is the full backtest response.
type Report struct {
	Sector         string            `json:"sector"`
	Benchmark      string            `json:"benchmark"`
	RequestID      string            `json:"request_id"`
	ServerTimingMS map[string]int64  `json:"server_timing_ms,omitempty"`
	Params         Request           `json:"params"`
	AppliedFilters *screener.Filters `json:"applied_filters,omitempty"`
	Note           string            `json:"note"`
	Data           []RebalancePoint  `json:"data"`
	Summary        Summary           `json:"summary"`
}
