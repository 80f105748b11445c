package benchmarks

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PriceSource fetches adjusted closes from the data service.
type PriceSource interface {
	AdjustedCloses(ctx context.Context, symbol string, start, end time.Time) ([]AdjClose, error)
}

// defaultHistoryYears bounds the initial backfill for a symbol with no
// stored history.
const defaultHistoryYears = 35

// SyncJob refreshes the local benchmark price store from the data service.
// Scheduled daily; each run resumes from the latest stored date per symbol.
type SyncJob struct {
	repo    *Repository
	source  PriceSource
	symbols []string
	log     zerolog.Logger
	now     func() time.Time
}

// NewSyncJob creates a benchmark sync job. symbols is the tracked benchmark
// set; symbols already present in the store are synced as well.
func NewSyncJob(repo *Repository, source PriceSource, symbols []string, log zerolog.Logger) *SyncJob {
	return &SyncJob{
		repo:    repo,
		source:  source,
		symbols: symbols,
		log:     log.With().Str("job", "benchmark_sync").Logger(),
		now:     time.Now,
	}
}

// Name returns the job name for scheduling and logging.
func (j *SyncJob) Name() string {
	return "benchmark_sync"
}

// Run syncs every tracked benchmark. A failure on one symbol is logged and
// skipped so the remaining benchmarks still refresh.
func (j *SyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for _, symbol := range j.trackedSymbols() {
		if err := j.syncSymbol(ctx, symbol); err != nil {
			j.log.Error().Err(err).Str("symbol", symbol).Msg("Benchmark sync failed")
		}
	}
	return nil
}

func (j *SyncJob) trackedSymbols() []string {
	seen := make(map[string]bool, len(j.symbols))
	tracked := make([]string, 0, len(j.symbols))
	for _, symbol := range j.symbols {
		symbol = normalizeSymbol(symbol)
		if symbol != "" && !seen[symbol] {
			seen[symbol] = true
			tracked = append(tracked, symbol)
		}
	}
	stored, err := j.repo.Symbols()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to list stored benchmarks, syncing configured set only")
		return tracked
	}
	for _, symbol := range stored {
		if !seen[symbol] {
			seen[symbol] = true
			tracked = append(tracked, symbol)
		}
	}
	return tracked
}

func (j *SyncJob) syncSymbol(ctx context.Context, symbol string) error {
	today := j.now()
	start := today.AddDate(-defaultHistoryYears, 0, 0)
	if latest, err := j.repo.LatestDate(symbol); err != nil {
		return err
	} else if latest != nil {
		start = latest.AddDate(0, 0, 1)
	}
	if !start.Before(today) {
		return nil
	}

	prices, err := j.source.AdjustedCloses(ctx, symbol, start, today)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return nil
	}
	if err := j.repo.Upsert(symbol, prices); err != nil {
		return err
	}

	j.log.Info().Str("symbol", symbol).Int("prices", len(prices)).Msg("Synced benchmark prices")
	return nil
}
