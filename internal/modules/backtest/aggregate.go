package backtest

import "gonum.org/v1/gonum/stat"

// Summarize reduces the per-point results. Averages are simple means over the
// points where the value is defined; the win rate is the share of points with
// both a portfolio and a benchmark return where the portfolio came out ahead.
func Summarize(points []RebalancePoint) Summary {
	var portfolio, benchmark, industry, industryRaw []float64
	wins, comparable := 0, 0

	for _, p := range points {
		if p.PortfolioTotalReturn != nil {
			portfolio = append(portfolio, *p.PortfolioTotalReturn)
		}
		if p.BenchmarkTotalReturn != nil {
			benchmark = append(benchmark, *p.BenchmarkTotalReturn)
		}
		if p.IndustryAvgReturn != nil {
			industry = append(industry, *p.IndustryAvgReturn)
		}
		if p.IndustryAvgReturnRaw != nil {
			industryRaw = append(industryRaw, *p.IndustryAvgReturnRaw)
		}
		if p.PortfolioTotalReturn != nil && p.BenchmarkTotalReturn != nil {
			comparable++
			if *p.PortfolioTotalReturn > *p.BenchmarkTotalReturn {
				wins++
			}
		}
	}

	s := Summary{
		Points:               len(points),
		PointsWithReturns:    len(portfolio),
		AvgPortfolioReturn:   meanOrNil(portfolio),
		AvgBenchmarkReturn:   meanOrNil(benchmark),
		AvgIndustryReturn:    meanOrNil(industry),
		AvgIndustryReturnRaw: meanOrNil(industryRaw),
	}
	if comparable > 0 {
		rate := float64(wins) / float64(comparable)
		s.WinRate = &rate
	}
	return s
}

func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := stat.Mean(values, nil)
	return &m
}
