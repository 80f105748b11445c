package screener

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fundamental-rule metrics (the sanitized valuation multiples).
var FundamentalMetrics = []string{"pe", "ps", "pb", "ev_ebit", "ev_ebitda", "ev_sales"}

// Fundamental-rule operators.
const (
	FundamentalGTZero   = "gt_zero"
	FundamentalLTMean   = "lt_mean"
	FundamentalLTMedian = "lt_median"
)

// FundamentalRule is a built-in rule comparing one valuation multiple either
// to zero or to a peer-set statistic.
type FundamentalRule struct {
	Metric   string `json:"metric"`
	Operator string `json:"operator"`
}

// PeerStats holds per-metric mean and median of a peer set. Computed once per
// rebalance point over the cap-filtered peers and shared across candidates,
// so rule evaluation stays linear in the number of records.
type PeerStats struct {
	Means   map[string]*float64
	Medians map[string]*float64
}

// ComputePeerStats derives mean/median per fundamental metric from peer
// multiples. Metrics with no finite values get nil statistics.
func ComputePeerStats(peersByMetric map[string][]float64) PeerStats {
	stats := PeerStats{
		Means:   make(map[string]*float64, len(FundamentalMetrics)),
		Medians: make(map[string]*float64, len(FundamentalMetrics)),
	}
	for _, metric := range FundamentalMetrics {
		values := finiteValues(peersByMetric[metric])
		if len(values) == 0 {
			stats.Means[metric] = nil
			stats.Medians[metric] = nil
			continue
		}
		mean := stat.Mean(values, nil)
		med := median(values)
		stats.Means[metric] = &mean
		stats.Medians[metric] = &med
	}
	return stats
}

// PassesFundamentalRules evaluates the built-in rules for one candidate.
// The multiples map carries the candidate's sanitized valuation multiples; a
// missing or non-finite value fails the rule. An unavailable peer statistic
// also fails: comparing against nothing is not a pass.
func PassesFundamentalRules(multiples map[string]*float64, rules []FundamentalRule, stats PeerStats) bool {
	for _, rule := range rules {
		value := multiples[rule.Metric]
		if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
			return false
		}
		switch rule.Operator {
		case FundamentalGTZero:
			if *value <= 0 {
				return false
			}
		case FundamentalLTMean:
			mean := stats.Means[rule.Metric]
			if mean == nil || *value >= *mean {
				return false
			}
		case FundamentalLTMedian:
			med := stats.Medians[rule.Metric]
			if med == nil || *value >= *med {
				return false
			}
		}
	}
	return true
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// median averages the two middle values for even-length inputs.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
