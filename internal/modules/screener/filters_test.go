package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func candidate(symbol string, marketCap float64, pe *float64) Candidate {
	return Candidate{
		Symbol:    symbol,
		MarketCap: fp(marketCap),
		Metrics: MetricSet{
			MetricPE:        pe,
			MetricMarketCap: fp(marketCap),
		},
	}
}

func TestCapBucket(t *testing.T) {
	assert.Equal(t, CapLarge, CapBucket(fp(15e9)))
	assert.Equal(t, CapMid, CapBucket(fp(3e9)))
	assert.Equal(t, CapSmall, CapBucket(fp(500e6)))
	assert.Equal(t, "", CapBucket(fp(100e6)), "below small threshold has no bucket")
	assert.Equal(t, "", CapBucket(nil))
}

func TestFilterByCap_MidKeepsOnlyMid(t *testing.T) {
	candidates := []Candidate{
		candidate("TINY", 1e9, nil),
		candidate("MID", 3e9, nil),
		candidate("BIG", 15e9, nil),
	}

	filtered := FilterByCap(candidates, CapMid)

	require.Len(t, filtered, 1)
	assert.Equal(t, "MID", filtered[0].Symbol)
}

func TestFilterByCap_AllPassesEverything(t *testing.T) {
	candidates := []Candidate{
		candidate("A", 1e9, nil),
		{Symbol: "B", MarketCap: nil, Metrics: MetricSet{}},
	}

	assert.Len(t, FilterByCap(candidates, CapAll), 2)
	assert.Len(t, FilterByCap(candidates, ""), 2)
}

func TestFilterByCap_UnknownCapExcluded(t *testing.T) {
	candidates := []Candidate{{Symbol: "NOCAP", MarketCap: nil, Metrics: MetricSet{}}}
	assert.Empty(t, FilterByCap(candidates, CapLarge))
}

func TestMatchesRule_Operators(t *testing.T) {
	metrics := MetricSet{MetricPE: fp(15)}

	cases := []struct {
		name string
		rule CustomRule
		want bool
	}{
		{"lt true", CustomRule{Metric: MetricPE, Operator: OpLT, Value: 20.0, Enabled: true}, true},
		{"lt false", CustomRule{Metric: MetricPE, Operator: OpLT, Value: 10.0, Enabled: true}, false},
		{"le boundary", CustomRule{Metric: MetricPE, Operator: OpLE, Value: 15.0, Enabled: true}, true},
		{"gt true", CustomRule{Metric: MetricPE, Operator: OpGT, Value: 10.0, Enabled: true}, true},
		{"ge boundary", CustomRule{Metric: MetricPE, Operator: OpGE, Value: 15.0, Enabled: true}, true},
		{"eq within tolerance", CustomRule{Metric: MetricPE, Operator: OpEQ, Value: 15.005, Enabled: true}, true},
		{"eq outside tolerance", CustomRule{Metric: MetricPE, Operator: OpEQ, Value: 15.02, Enabled: true}, false},
		{"ne outside tolerance", CustomRule{Metric: MetricPE, Operator: OpNE, Value: 15.02, Enabled: true}, true},
		{"ne within tolerance", CustomRule{Metric: MetricPE, Operator: OpNE, Value: 15.005, Enabled: true}, false},
		{"between inclusive low", CustomRule{Metric: MetricPE, Operator: OpBetween, Value: []any{15.0, 20.0}, Enabled: true}, true},
		{"between inclusive high", CustomRule{Metric: MetricPE, Operator: OpBetween, Value: []any{10.0, 15.0}, Enabled: true}, true},
		{"between outside", CustomRule{Metric: MetricPE, Operator: OpBetween, Value: []any{16.0, 20.0}, Enabled: true}, false},
		{"between malformed fails safe", CustomRule{Metric: MetricPE, Operator: OpBetween, Value: []any{16.0}, Enabled: true}, false},
		{"between non-list fails safe", CustomRule{Metric: MetricPE, Operator: OpBetween, Value: "10-20", Enabled: true}, false},
		{"disabled matches vacuously", CustomRule{Metric: MetricPE, Operator: OpLT, Value: 0.0, Enabled: false}, true},
		{"string scalar tolerated", CustomRule{Metric: MetricPE, Operator: OpLT, Value: "20", Enabled: true}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchesRule(metrics, tc.rule))
		})
	}
}

func TestMatchesRule_MissingValueNeverMatches(t *testing.T) {
	metrics := MetricSet{MetricPE: nil}

	rule := CustomRule{Metric: MetricPE, Operator: OpGT, Value: 0.0, Enabled: true}
	assert.False(t, MatchesRule(metrics, rule))

	rule.Metric = "unknownMetric"
	assert.False(t, MatchesRule(metrics, rule), "unknown metric keys are rejected by the allow-list")
}

func TestMetricSet_DottedAliasLookup(t *testing.T) {
	metrics := MetricSet{MetricPE: fp(12)}

	got := metrics.Lookup("valuation.pe")
	require.NotNil(t, got)
	assert.Equal(t, 12.0, *got)

	assert.Nil(t, metrics.Lookup("valuation.unknown"))
	assert.Nil(t, metrics.Lookup("nested.too.deep"))
}

func TestApply_ANDContradictionNeverPasses(t *testing.T) {
	candidates := []Candidate{
		candidate("A", 5e9, fp(10)),
		candidate("B", 5e9, fp(-5)),
		candidate("C", 5e9, nil),
	}
	filters := &Filters{
		RuleLogic: LogicAND,
		CustomRules: []CustomRule{
			{Metric: MetricPE, Operator: OpLT, Value: 0.0, Enabled: true},
			{Metric: MetricPE, Operator: OpGT, Value: 0.0, Enabled: true},
		},
	}

	assert.Empty(t, Apply(candidates, filters))
}

func TestApply_ORContradictionPassesDefinedPE(t *testing.T) {
	candidates := []Candidate{
		candidate("A", 5e9, fp(10)),
		candidate("B", 5e9, fp(-5)),
		candidate("C", 5e9, nil),
	}
	filters := &Filters{
		RuleLogic: LogicOR,
		CustomRules: []CustomRule{
			{Metric: MetricPE, Operator: OpLT, Value: 0.0, Enabled: true},
			{Metric: MetricPE, Operator: OpGT, Value: 0.0, Enabled: true},
		},
	}

	passed := Apply(candidates, filters)

	require.Len(t, passed, 2, "every record with a defined pe passes")
	assert.Equal(t, "A", passed[0].Symbol)
	assert.Equal(t, "B", passed[1].Symbol)
}

func TestApply_NilFiltersPassThrough(t *testing.T) {
	candidates := []Candidate{candidate("A", 1e9, nil)}
	assert.Equal(t, candidates, Apply(candidates, nil))
}

func TestApply_CapThenRules(t *testing.T) {
	candidates := []Candidate{
		candidate("MID_CHEAP", 3e9, fp(8)),
		candidate("MID_DEAR", 3e9, fp(40)),
		candidate("BIG_CHEAP", 15e9, fp(8)),
	}
	filters := &Filters{
		Cap:       CapMid,
		RuleLogic: LogicAND,
		CustomRules: []CustomRule{
			{Metric: MetricPE, Operator: OpLT, Value: 20.0, Enabled: true},
		},
	}

	passed := Apply(candidates, filters)

	require.Len(t, passed, 1)
	assert.Equal(t, "MID_CHEAP", passed[0].Symbol)
}
