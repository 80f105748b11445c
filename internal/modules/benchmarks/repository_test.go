package benchmarks

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE etf_prices (
		symbol TEXT NOT NULL,
		price_date TEXT NOT NULL,
		adj_close REAL NOT NULL,
		PRIMARY KEY (symbol, price_date)
	)`)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func seed(t *testing.T, repo *Repository) {
	t.Helper()
	require.NoError(t, repo.Upsert("SPY", []AdjClose{
		{Date: day(2020, time.June, 12), AdjClose: 300},
		{Date: day(2020, time.June, 15), AdjClose: 305},
		{Date: day(2021, time.June, 14), AdjClose: 340},
	}))
}

func TestAdjCloseAsOf_LastObservationOnOrBefore(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	got, err := repo.AdjCloseAsOf("SPY", day(2020, time.June, 15))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 305.0, *got)

	// Weekend as-of rolls back to the prior trading day.
	got, err = repo.AdjCloseAsOf("spy", day(2020, time.June, 14))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 300.0, *got)
}

func TestAdjCloseAsOf_BeforeHistory(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	got, err := repo.AdjCloseAsOf("SPY", day(2019, time.January, 1))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKnown(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	known, err := repo.Known("SPY")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = repo.Known("QQQ")
	require.NoError(t, err)
	assert.False(t, known)
}

func TestLatestDate(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	latest, err := repo.LatestDate("SPY")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, day(2021, time.June, 14), *latest)

	latest, err = repo.LatestDate("QQQ")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

// recordingSource captures sync requests and serves a canned series.
type recordingSource struct {
	requests []struct {
		symbol string
		start  time.Time
	}
	prices []AdjClose
}

func (s *recordingSource) AdjustedCloses(_ context.Context, symbol string, start, _ time.Time) ([]AdjClose, error) {
	s.requests = append(s.requests, struct {
		symbol string
		start  time.Time
	}{symbol, start})
	return s.prices, nil
}

func TestSyncJob_ResumesFromLatestStoredDate(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	source := &recordingSource{prices: []AdjClose{
		{Date: day(2021, time.June, 15), AdjClose: 342},
	}}
	job := NewSyncJob(repo, source, []string{"SPY"}, zerolog.Nop())
	job.now = func() time.Time { return day(2021, time.June, 16) }

	require.NoError(t, job.Run())

	require.Len(t, source.requests, 1)
	assert.Equal(t, "SPY", source.requests[0].symbol)
	assert.Equal(t, day(2021, time.June, 15), source.requests[0].start, "resumes the day after the stored maximum")

	got, err := repo.AdjCloseAsOf("SPY", day(2021, time.June, 16))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 342.0, *got)
}

func TestSyncJob_BackfillsNewSymbols(t *testing.T) {
	repo := newTestRepo(t)

	source := &recordingSource{prices: []AdjClose{
		{Date: day(2021, time.June, 15), AdjClose: 100},
	}}
	job := NewSyncJob(repo, source, []string{"QQQ"}, zerolog.Nop())
	job.now = func() time.Time { return day(2021, time.June, 16) }

	require.NoError(t, job.Run())

	require.Len(t, source.requests, 1)
	start := source.requests[0].start
	assert.Equal(t, day(2021-defaultHistoryYears, time.June, 16), start)

	known, err := repo.Known("QQQ")
	require.NoError(t, err)
	assert.True(t, known)
}
