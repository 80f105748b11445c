package screener

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePeerStats(t *testing.T) {
	peers := map[string][]float64{
		"pe": {10, 20, 30, 40},
		"ps": {2, 4, math.NaN(), 6},
	}

	stats := ComputePeerStats(peers)

	require.NotNil(t, stats.Means["pe"])
	assert.Equal(t, 25.0, *stats.Means["pe"])
	require.NotNil(t, stats.Medians["pe"])
	assert.Equal(t, 25.0, *stats.Medians["pe"], "even-length median averages the middle pair")

	require.NotNil(t, stats.Means["ps"])
	assert.Equal(t, 4.0, *stats.Means["ps"], "non-finite peers are dropped before statistics")

	assert.Nil(t, stats.Means["pb"], "metric without peers has no statistics")
	assert.Nil(t, stats.Medians["pb"])
}

func TestPassesFundamentalRules_GTZero(t *testing.T) {
	rules := []FundamentalRule{{Metric: "pe", Operator: FundamentalGTZero}}
	stats := ComputePeerStats(nil)

	assert.True(t, PassesFundamentalRules(map[string]*float64{"pe": fp(12)}, rules, stats))
	assert.False(t, PassesFundamentalRules(map[string]*float64{"pe": fp(-3)}, rules, stats))
	assert.False(t, PassesFundamentalRules(map[string]*float64{"pe": nil}, rules, stats))
}

func TestPassesFundamentalRules_LTMean(t *testing.T) {
	stats := ComputePeerStats(map[string][]float64{"pe": {10, 20, 30}})
	rules := []FundamentalRule{{Metric: "pe", Operator: FundamentalLTMean}}

	assert.True(t, PassesFundamentalRules(map[string]*float64{"pe": fp(15)}, rules, stats))
	assert.False(t, PassesFundamentalRules(map[string]*float64{"pe": fp(20)}, rules, stats), "mean itself does not pass a strict less-than")
	assert.False(t, PassesFundamentalRules(map[string]*float64{"pe": fp(25)}, rules, stats))
}

func TestPassesFundamentalRules_LTMedian(t *testing.T) {
	stats := ComputePeerStats(map[string][]float64{"ps": {1, 5, 9}})
	rules := []FundamentalRule{{Metric: "ps", Operator: FundamentalLTMedian}}

	assert.True(t, PassesFundamentalRules(map[string]*float64{"ps": fp(3)}, rules, stats))
	assert.False(t, PassesFundamentalRules(map[string]*float64{"ps": fp(5)}, rules, stats))
}

func TestPassesFundamentalRules_MissingPeerStatFails(t *testing.T) {
	stats := ComputePeerStats(nil)
	rules := []FundamentalRule{{Metric: "pe", Operator: FundamentalLTMean}}

	assert.False(t, PassesFundamentalRules(map[string]*float64{"pe": fp(10)}, rules, stats),
		"no peer statistic means no basis to pass")
}

func TestPassesFundamentalRules_NoRules(t *testing.T) {
	assert.True(t, PassesFundamentalRules(map[string]*float64{}, nil, ComputePeerStats(nil)))
}
