// Package screener implements the two-tier filter pipeline applied to
// candidate records before ranking: market-cap bucket filtering followed by
// user-defined custom rules, plus the built-in fundamental rules evaluated
// against cap-filtered peer statistics.
package screener

import "math"

// MetricSet is the typed key -> numeric-or-null map consumed by the rule
// engine. Keys are validated against the supported-metrics allow-list at the
// filter boundary instead of being trusted implicitly.
type MetricSet map[string]*float64

// Metric keys supported by the annual backtest. The UI speaks in TTM-style
// keys, so annual ratios are exposed under the same names.
const (
	MetricPE        = "peRatioTTM"
	MetricPS        = "priceToSalesRatioTTM"
	MetricPB        = "priceToBookRatioTTM"
	MetricEVEBIT    = "enterpriseValueOverEBITTTM"
	MetricEVEBITDA  = "enterpriseValueOverEBITDATTM"
	MetricEVSales   = "enterpriseValueToSalesTTM"
	MetricMarketCap = "marketCap"
)

// SupportedMetrics is the allow-list for custom-rule metric keys.
var SupportedMetrics = map[string]bool{
	MetricPE:        true,
	MetricPS:        true,
	MetricPB:        true,
	MetricEVEBIT:    true,
	MetricEVEBITDA:  true,
	MetricEVSales:   true,
	MetricMarketCap: true,
}

// dottedAliases maps the one level of dotted nesting the rule language
// allows onto flat metric keys. Anything not listed here fails the lookup.
var dottedAliases = map[string]string{
	"valuation.pe":        MetricPE,
	"valuation.ps":        MetricPS,
	"valuation.pb":        MetricPB,
	"valuation.ev_ebit":   MetricEVEBIT,
	"valuation.ev_ebitda": MetricEVEBITDA,
	"valuation.ev_sales":  MetricEVSales,
	"valuation.marketCap": MetricMarketCap,
}

// Supported reports whether a metric key (flat or dotted) is known.
func Supported(key string) bool {
	if SupportedMetrics[key] {
		return true
	}
	_, ok := dottedAliases[key]
	return ok
}

// Lookup resolves a metric key against the set, following the dotted-path
// allow-list. Returns nil for unknown keys, missing values and non-finite
// values.
func (m MetricSet) Lookup(key string) *float64 {
	target := key
	if !SupportedMetrics[target] {
		alias, ok := dottedAliases[key]
		if !ok {
			return nil
		}
		target = alias
	}
	v, ok := m[target]
	if !ok || v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
