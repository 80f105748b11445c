package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func TestPercentileRank_EmptyPeers(t *testing.T) {
	assert.Equal(t, 50.0, PercentileRank(fp(42), nil, true), "empty peers should return neutral prior")
	assert.Equal(t, 50.0, PercentileRank(fp(42), []float64{}, false))
}

func TestPercentileRank_NilValue(t *testing.T) {
	assert.Equal(t, 50.0, PercentileRank(nil, []float64{1, 2, 3}, true))
}

func TestPercentileRank_LowerIsBetterScenario(t *testing.T) {
	// Value 15 vs peers [10, 20, 30] with lower-is-better: two peers carry a
	// higher (worse) multiple, so the rank is 2/3.
	got := PercentileRank(fp(15), []float64{10, 20, 30}, false)
	assert.InDelta(t, 66.6667, got, 0.001)
}

func TestPercentileRank_HigherIsBetter(t *testing.T) {
	peers := []float64{10, 20, 30, 40}

	assert.Equal(t, 0.0, PercentileRank(fp(5), peers, true))
	assert.Equal(t, 25.0, PercentileRank(fp(15), peers, true))
	assert.Equal(t, 100.0, PercentileRank(fp(50), peers, true))
}

func TestPercentileRank_MonotonicInValue(t *testing.T) {
	peers := []float64{3, 1, 4, 1, 5, 9, 2, 6}

	prev := -1.0
	for v := 0.0; v <= 10.0; v += 0.5 {
		got := PercentileRank(fp(v), peers, true)
		assert.GreaterOrEqual(t, got, prev, "rank must be non-decreasing in value")
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
		prev = got
	}
}

func TestPercentileRank_StrictComparison(t *testing.T) {
	// A value equal to every peer outranks none of them.
	peers := []float64{7, 7, 7}
	assert.Equal(t, 0.0, PercentileRank(fp(7), peers, true))
	assert.Equal(t, 0.0, PercentileRank(fp(7), peers, false))
}

func TestPercentileRank_OrderPreservingPeerScaling(t *testing.T) {
	// Only ranks matter: any order-preserving transform of the peer list
	// (and the value) leaves the score unchanged.
	peers := []float64{10, 20, 30}
	scaled := []float64{100, 200, 300}

	assert.Equal(t,
		PercentileRank(fp(15), peers, false),
		PercentileRank(fp(150), scaled, false),
	)
}
