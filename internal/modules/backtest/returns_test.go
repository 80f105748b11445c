package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soham1117/StockApp/internal/domain"
)

func TestSplitFactorBetween_HalfOpenWindow(t *testing.T) {
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	splits := []domain.SplitEvent{
		{Date: start, Factor: 3},                      // on start, excluded
		{Date: day(2020, time.June, 1), Factor: 2},    // inside
		{Date: end, Factor: 4},                        // on end, included
		{Date: day(2021, time.June, 1), Factor: 5},    // after end, excluded
		{Date: day(2019, time.June, 1), Factor: 0.25}, // before start, excluded
	}

	assert.Equal(t, 8.0, SplitFactorBetween(splits, start, end))
	assert.Equal(t, 1.0, SplitFactorBetween(nil, start, end))
}

func TestTotalReturn_SplitAndDividendScenario(t *testing.T) {
	// Buy at 100, 2:1 split mid-period, $1 per-share dividend declared before
	// the split, end price 60 post-split. Holder of one original share ends
	// with two shares worth 120 plus $1 of dividends: return is 21%.
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	splits := []domain.SplitEvent{{Date: day(2020, time.July, 1), Factor: 2}}
	dividends := []domain.DividendEvent{{Date: day(2020, time.March, 1), Amount: 1}}

	tr, divs, factor := TotalReturn(fp(100), fp(60), splits, dividends, start, end)

	require.NotNil(t, tr)
	assert.InDelta(t, 0.21, *tr, 1e-12)
	assert.Equal(t, 1.0, divs, "dividend before the split is not scaled")
	assert.Equal(t, 2.0, factor)
}

func TestTotalReturn_DividendAfterSplitIsScaled(t *testing.T) {
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	splits := []domain.SplitEvent{{Date: day(2020, time.July, 1), Factor: 2}}
	dividends := []domain.DividendEvent{{Date: day(2020, time.September, 1), Amount: 1}}

	_, divs, _ := TotalReturn(fp(100), fp(60), splits, dividends, start, end)

	assert.Equal(t, 2.0, divs, "per-share dividend after a 2:1 split doubles for the original holder")
}

func TestTotalReturn_InverseSplitInvariance(t *testing.T) {
	// A 1:4 reverse split quadruples the price and quarters the factor; the
	// economic return is unchanged.
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)

	plain, _, _ := TotalReturn(fp(100), fp(110), nil, nil, start, end)
	reversed, _, factor := TotalReturn(fp(100), fp(440),
		[]domain.SplitEvent{{Date: day(2020, time.July, 1), Factor: 0.25}}, nil, start, end)

	require.NotNil(t, plain)
	require.NotNil(t, reversed)
	assert.InDelta(t, *plain, *reversed, 1e-12)
	assert.Equal(t, 0.25, factor)
}

func TestTotalReturn_MissingPrices(t *testing.T) {
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	dividends := []domain.DividendEvent{{Date: day(2020, time.June, 1), Amount: 2}}

	tr, divs, _ := TotalReturn(nil, fp(60), nil, dividends, start, end)
	assert.Nil(t, tr)
	assert.Equal(t, 2.0, divs, "dividends are reported even when the return is undefined")

	tr, _, _ = TotalReturn(fp(100), nil, nil, nil, start, end)
	assert.Nil(t, tr)

	tr, _, _ = TotalReturn(fp(0), fp(60), nil, nil, start, end)
	assert.Nil(t, tr, "non-positive start price is unusable")
}

func TestSimpleReturn(t *testing.T) {
	r := SimpleReturn(fp(100), fp(112))
	require.NotNil(t, r)
	assert.InDelta(t, 0.12, *r, 1e-12)

	assert.Nil(t, SimpleReturn(nil, fp(100)))
	assert.Nil(t, SimpleReturn(fp(100), nil))
	assert.Nil(t, SimpleReturn(fp(0), fp(100)))
}
