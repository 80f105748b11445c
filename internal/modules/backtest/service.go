package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/Soham1117/StockApp/internal/domain"
	"github.com/Soham1117/StockApp/internal/modules/fundamentals"
	"github.com/Soham1117/StockApp/internal/modules/scoring"
	"github.com/Soham1117/StockApp/internal/modules/screener"
)

// Sentinel errors mapped to HTTP statuses by the handler layer.
var (
	ErrInvalidRequest   = errors.New("invalid backtest request")
	ErrUnknownSector    = errors.New("unknown sector")
	ErrUnknownBenchmark = errors.New("unknown benchmark symbol")
)

// Point notes for data gaps.
const (
	noteNoFundamentals = "No symbols with annual fundamentals available at this date (after lag cutoff)"
	noteNoRecords      = "No symbols with sufficient price/shares/fundamentals at this date"
	noteNoneSelected   = "No candidates passed the filters and rules at this date"
)

const defaultWorkers = 4

// Service orchestrates walk-forward sector backtests.
type Service struct {
	universe  domain.UniverseProvider
	market    domain.MarketDataProvider
	resolver  *fundamentals.Resolver
	benchmark domain.BenchmarkProvider
	progress  *ProgressBroker
	log       zerolog.Logger
	workers   int
	now       func() time.Time
}

// NewService creates a backtest service. workers bounds the number of
// rebalance points evaluated concurrently; 0 means the default.
func NewService(
	universe domain.UniverseProvider,
	market domain.MarketDataProvider,
	resolver *fundamentals.Resolver,
	benchmark domain.BenchmarkProvider,
	progress *ProgressBroker,
	log zerolog.Logger,
	workers int,
) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		universe:  universe,
		market:    market,
		resolver:  resolver,
		benchmark: benchmark,
		progress:  progress,
		log:       log.With().Str("service", "backtest").Logger(),
		workers:   workers,
		now:       time.Now,
	}
}

// Sectors lists the known sector names.
func (s *Service) Sectors() ([]string, error) {
	return s.universe.Sectors()
}

// Run executes a backtest request. Rebalance points are evaluated
// concurrently; each point is a pure function of its dates and the request,
// so results are merged back by index and the output order is deterministic.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	started := s.now()
	requestID := uuid.NewString()
	log := s.log.With().Str("request_id", requestID).Str("sector", req.Sector).Logger()

	symbols, err := s.universe.SectorSymbols(req.Sector)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sector universe: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSector, req.Sector)
	}

	known, err := s.benchmark.Known(req.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("failed to check benchmark history: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBenchmark, req.Benchmark)
	}

	minDate, err := s.resolver.MinAnnualStatementDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to probe statement history: %w", err)
	}

	lag := *req.FundamentalsLagDays
	dates := AsOfDates(s.now(), req.Years, req.HoldingYears, lag, minDate)

	filters, unsupported := sanitizeFilters(req.Filters)

	report := &Report{
		Sector:         req.Sector,
		Benchmark:      req.Benchmark,
		RequestID:      requestID,
		Params:         req,
		AppliedFilters: filters,
		Data:           make([]RebalancePoint, len(dates)),
	}
	if len(dates) == 0 {
		report.Note = "No rebalance dates fall inside the available data range"
		report.Summary = Summarize(nil)
		report.ServerTimingMS = map[string]int64{"total": s.now().Sub(started).Milliseconds()}
		return report, nil
	}

	log.Info().
		Int("universe_size", len(symbols)).
		Int("points", len(dates)).
		Int("lag_days", lag).
		Msg("starting backtest")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		runErr    error
		completed int
	)
	sem := make(chan struct{}, s.workers)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i, date := range dates {
		wg.Add(1)
		go func(idx int, d RebalanceDate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if runCtx.Err() != nil {
				return
			}
			point, err := s.evaluatePoint(runCtx, req, filters, symbols, d, lag)
			if err != nil {
				mu.Lock()
				if runErr == nil {
					runErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			point.UnsupportedFilterMetrics = unsupported

			mu.Lock()
			report.Data[idx] = point
			completed++
			done := completed
			mu.Unlock()

			s.progress.Publish(ProgressUpdate{
				RunID:     req.RunID,
				Stage:     "point",
				AsOf:      point.AsOf,
				Completed: done,
				Total:     len(dates),
			})
		}(i, date)
	}
	wg.Wait()

	// A cancelled context leaves skipped points as zero values; a partial
	// report must never pass as a finished run.
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		return nil, runErr
	}

	report.Summary = Summarize(report.Data)
	report.ServerTimingMS = map[string]int64{"total": s.now().Sub(started).Milliseconds()}

	s.progress.Publish(ProgressUpdate{
		RunID:     req.RunID,
		Stage:     "done",
		Completed: len(dates),
		Total:     len(dates),
		Done:      true,
	})
	log.Info().
		Int64("elapsed_ms", report.ServerTimingMS["total"]).
		Int("points", len(dates)).
		Msg("backtest finished")
	return report, nil
}

// evaluatePoint runs one walk-forward step. It reads only from the injected
// providers and its arguments, never from shared mutable state.
func (s *Service) evaluatePoint(ctx context.Context, req Request, filters *screener.Filters, symbols []string, date RebalanceDate, lagDays int) (point RebalancePoint, err error) {
	t0 := s.now()
	point = RebalancePoint{
		AsOf:     date.AsOf.Format(DateLayout),
		EndDate:  date.End.Format(DateLayout),
		Selected: []SelectedStock{},
	}
	defer func() { point.TimingMS = s.now().Sub(t0).Milliseconds() }()

	benchReturn, err := s.benchmarkReturn(req.Benchmark, date)
	if err != nil {
		return point, err
	}
	point.BenchmarkTotalReturn = benchReturn

	cutoff := date.AsOf.AddDate(0, 0, -lagDays)
	snaps, err := s.resolver.Resolve(ctx, symbols, cutoff)
	if err != nil {
		return point, err
	}
	if len(snaps) == 0 {
		point.Note = noteNoFundamentals
		return point, nil
	}

	records, err := s.buildRecords(ctx, snaps, date.AsOf, cutoff)
	if err != nil {
		return point, err
	}
	point.UniverseSize = len(records)
	if len(records) == 0 {
		point.Note = noteNoRecords
		return point, nil
	}

	// Peer statistics come from the cap-filtered set, computed once and
	// shared by the built-in rules and the scorer.
	capBucket := ""
	if filters != nil {
		capBucket = filters.Cap
	}
	peers := capFilteredRecords(records, capBucket)
	peerMultiples, peerStats := peerData(peers)
	point.MeanPE = peerStats.Means["pe"]

	afterFilters := applyScreenerFilters(records, filters)
	point.FilteredByFiltersSize = len(afterFilters)

	survivors := applyBuiltinRules(afterFilters, req.Rules, peerStats)
	point.FilteredSize = len(survivors)

	// Holding-period outcomes for every record: the industry averages need
	// them, not just the selected picks.
	outcomes, err := s.holdingOutcomes(ctx, records, date)
	if err != nil {
		return point, err
	}
	point.IndustryAvgReturnRaw = meanOutcome(records, outcomes)
	point.IndustryAvgReturn = meanOutcome(survivors, outcomes)

	if len(survivors) == 0 {
		point.Note = noteNoneSelected
		return point, nil
	}

	scored := make([]scoredRecord, 0, len(survivors))
	scores := make(map[string]scoring.ValuationScore, len(survivors))
	for _, rec := range survivors {
		vs := scoring.ValuationFactor(rec.ValuationInputs(), peerMultiples, req.Weights)
		scores[rec.Symbol] = vs
		scored = append(scored, scoredRecord{record: rec, score: vs.Score})
	}
	top := rankAndSelect(scored, req.TopN)

	var portfolioReturns []float64
	for _, sr := range top {
		outcome := outcomes[sr.record.Symbol]
		stock := SelectedStock{
			Symbol:              sr.record.Symbol,
			ValuationScore:      sr.score,
			ValuationComponents: scores[sr.record.Symbol].Components,
			Ratios:              sr.record.RawRatios(),
			TotalReturn:         outcome.totalReturn,
			Dividends:           outcome.dividends,
		}
		if outcome.splitFactor != 1.0 {
			f := outcome.splitFactor
			stock.SplitFactor = &f
		}
		if outcome.totalReturn != nil {
			portfolioReturns = append(portfolioReturns, *outcome.totalReturn)
		}
		point.Selected = append(point.Selected, stock)
	}
	if len(portfolioReturns) > 0 {
		m := stat.Mean(portfolioReturns, nil)
		point.PortfolioTotalReturn = &m
	}

	return point, nil
}

// buildRecords joins fundamentals with point-in-time prices and share counts.
// Prices are read at the as-of date; share counts are lagged to the same
// cutoff as the fundamentals, since both come from the same filings.
func (s *Service) buildRecords(ctx context.Context, snaps map[string]fundamentals.Snapshot, asOf, cutoff time.Time) ([]CandidateRecord, error) {
	symbols := make([]string, 0, len(snaps))
	for symbol := range snaps {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	prices, err := s.market.LatestPrices(ctx, symbols, asOf)
	if err != nil {
		return nil, err
	}
	shares, err := s.market.LatestShares(ctx, symbols, cutoff)
	if err != nil {
		return nil, err
	}

	records := make([]CandidateRecord, 0, len(symbols))
	for _, symbol := range symbols {
		price, okPrice := prices[symbol]
		sh, okShares := shares[symbol]
		if !okPrice || !okShares {
			continue
		}
		rec, ok := BuildRecord(symbol, price.Close, sh.Shares, snaps[symbol])
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// holdingOutcome is one symbol's realized result over the holding period.
type holdingOutcome struct {
	totalReturn *float64
	dividends   float64
	splitFactor float64
}

// holdingOutcomes computes the corporate-action-correct total return for
// every record over (as_of, end].
func (s *Service) holdingOutcomes(ctx context.Context, records []CandidateRecord, date RebalanceDate) (map[string]holdingOutcome, error) {
	symbols := make([]string, len(records))
	for i, rec := range records {
		symbols[i] = rec.Symbol
	}

	endPrices, err := s.market.LatestPrices(ctx, symbols, date.End)
	if err != nil {
		return nil, err
	}
	splits, err := s.market.SplitEvents(ctx, symbols, date.AsOf, date.End)
	if err != nil {
		return nil, err
	}
	dividends, err := s.market.DividendEvents(ctx, symbols, date.AsOf, date.End)
	if err != nil {
		return nil, err
	}

	out := make(map[string]holdingOutcome, len(records))
	for _, rec := range records {
		start := rec.Price
		var endPrice *float64
		if p, ok := endPrices[rec.Symbol]; ok {
			endPrice = &p.Close
		}
		tr, divs, factor := TotalReturn(&start, endPrice, splits[rec.Symbol], dividends[rec.Symbol], date.AsOf, date.End)
		out[rec.Symbol] = holdingOutcome{totalReturn: tr, dividends: divs, splitFactor: factor}
	}
	return out, nil
}

// benchmarkReturn is the price-only return of the benchmark's adjusted close
// series, which already embeds splits and distributions.
func (s *Service) benchmarkReturn(symbol string, date RebalanceDate) (*float64, error) {
	start, err := s.benchmark.AdjCloseAsOf(symbol, date.AsOf)
	if err != nil {
		return nil, err
	}
	end, err := s.benchmark.AdjCloseAsOf(symbol, date.End)
	if err != nil {
		return nil, err
	}
	return SimpleReturn(start, end), nil
}

// capFilteredRecords keeps the records in the requested cap bucket. This is
// the peer set for both the built-in rules and percentile scoring.
func capFilteredRecords(records []CandidateRecord, capBucket string) []CandidateRecord {
	if capBucket == "" || capBucket == screener.CapAll {
		return records
	}
	out := make([]CandidateRecord, 0, len(records))
	for _, rec := range records {
		mcap := rec.MarketCap
		if screener.CapBucket(&mcap) == capBucket {
			out = append(out, rec)
		}
	}
	return out
}

// peerData collects per-metric peer values once per point, for both the
// percentile scorer and the lt_mean/lt_median rules.
func peerData(peers []CandidateRecord) (scoring.PeerMultiples, screener.PeerStats) {
	var pm scoring.PeerMultiples
	byMetric := make(map[string][]float64, len(screener.FundamentalMetrics))
	for _, rec := range peers {
		appendIf := func(metric string, v *float64, dst *[]float64) {
			if v != nil {
				*dst = append(*dst, *v)
				byMetric[metric] = append(byMetric[metric], *v)
			}
		}
		appendIf("pe", rec.PE, &pm.PE)
		appendIf("ps", rec.PS, &pm.PS)
		appendIf("pb", rec.PB, &pm.PB)
		appendIf("ev_ebit", rec.EVEBIT, &pm.EVEBIT)
		appendIf("ev_ebitda", rec.EVEBITDA, &pm.EVEBITDA)
		appendIf("ev_sales", rec.EVSales, &pm.EVSales)
	}
	return pm, screener.ComputePeerStats(byMetric)
}

// applyScreenerFilters runs cap and custom rules, mapping survivors back to
// full candidate records.
func applyScreenerFilters(records []CandidateRecord, filters *screener.Filters) []CandidateRecord {
	if filters == nil {
		return records
	}
	bySymbol := make(map[string]CandidateRecord, len(records))
	candidates := make([]screener.Candidate, len(records))
	for i, rec := range records {
		bySymbol[rec.Symbol] = rec
		candidates[i] = rec.ScreenerCandidate()
	}
	passed := screener.Apply(candidates, filters)
	out := make([]CandidateRecord, 0, len(passed))
	for _, c := range passed {
		out = append(out, bySymbol[c.Symbol])
	}
	return out
}

// applyBuiltinRules enforces the request-level P/E toggles and any explicit
// fundamental rules against the shared peer statistics.
func applyBuiltinRules(records []CandidateRecord, rules Rules, stats screener.PeerStats) []CandidateRecord {
	meanPE := stats.Means["pe"]
	out := make([]CandidateRecord, 0, len(records))
	for _, rec := range records {
		if rules.PEPositiveEnabled() && rec.PE == nil {
			continue
		}
		// With no universe mean to compare against, the below-mean rule is
		// inert rather than excluding the whole point.
		if rules.PEBelowMeanEnabled() && meanPE != nil {
			if rec.PE == nil || *rec.PE >= *meanPE {
				continue
			}
		}
		if !screener.PassesFundamentalRules(rec.SanitizedMultiples(), rules.FundamentalRules, stats) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// sanitizeFilters strips custom rules whose metric is not in the supported
// allow-list, reporting the stripped keys instead of failing the request.
func sanitizeFilters(filters *screener.Filters) (*screener.Filters, []string) {
	if filters == nil {
		return nil, nil
	}
	clean := *filters
	clean.CustomRules = make([]screener.CustomRule, 0, len(filters.CustomRules))
	var unsupported []string
	for _, rule := range filters.CustomRules {
		if !screener.Supported(rule.Metric) {
			unsupported = append(unsupported, rule.Metric)
			continue
		}
		clean.CustomRules = append(clean.CustomRules, rule)
	}
	sort.Strings(unsupported)
	return &clean, unsupported
}

func meanOutcome(records []CandidateRecord, outcomes map[string]holdingOutcome) *float64 {
	var values []float64
	for _, rec := range records {
		if o, ok := outcomes[rec.Symbol]; ok && o.totalReturn != nil {
			values = append(values, *o.totalReturn)
		}
	}
	return meanOrNil(values)
}
