package fundamentals

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soham1117/StockApp/internal/domain"
)

func fp(v float64) *float64 { return &v }

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type stubSource struct {
	rows    []domain.StatementRow
	minDate *time.Time
	calls   int
}

func (s *stubSource) AnnualStatements(_ context.Context, _ []string, _ time.Time, _, _ []string) ([]domain.StatementRow, error) {
	s.calls++
	return s.rows, nil
}

func (s *stubSource) MinAnnualStatementDate(_ context.Context) (*time.Time, error) {
	return s.minDate, nil
}

func row(sym, date, ftype, item string, v *float64) domain.StatementRow {
	return domain.StatementRow{Symbol: sym, ReportDate: d(date), FinanceType: ftype, ItemName: item, Value: v}
}

func TestResolve_PicksLatestAlignedDate(t *testing.T) {
	source := &stubSource{rows: []domain.StatementRow{
		// 2021: both statement types present.
		row("AAPL", "2021-09-30", domain.FinanceTypeIncome, "total_revenue", fp(365e9)),
		row("AAPL", "2021-09-30", domain.FinanceTypeBalance, "total_debt", fp(120e9)),
		// 2022: income only, must not win despite being newer.
		row("AAPL", "2022-09-30", domain.FinanceTypeIncome, "total_revenue", fp(394e9)),
		// 2020: both present but older.
		row("AAPL", "2020-09-30", domain.FinanceTypeIncome, "total_revenue", fp(274e9)),
		row("AAPL", "2020-09-30", domain.FinanceTypeBalance, "total_debt", fp(112e9)),
	}}
	resolver := NewResolver(source, NewSnapshotCache(16), zerolog.Nop())

	snaps, err := resolver.Resolve(context.Background(), []string{"AAPL"}, d("2023-01-01"))
	require.NoError(t, err)

	snap, ok := snaps["AAPL"]
	require.True(t, ok)
	assert.Equal(t, d("2021-09-30"), snap.ReportDate)
	require.NotNil(t, snap.IncomeItems["total_revenue"])
	assert.Equal(t, 365e9, *snap.IncomeItems["total_revenue"])
	require.NotNil(t, snap.BalanceItems["total_debt"])
}

func TestResolve_ExcludesSymbolWithoutAlignment(t *testing.T) {
	source := &stubSource{rows: []domain.StatementRow{
		row("XYZ", "2021-12-31", domain.FinanceTypeIncome, "total_revenue", fp(1e9)),
		// No balance sheet for XYZ at any date.
	}}
	resolver := NewResolver(source, NewSnapshotCache(16), zerolog.Nop())

	snaps, err := resolver.Resolve(context.Background(), []string{"XYZ"}, d("2022-06-01"))
	require.NoError(t, err)
	assert.Empty(t, snaps, "symbol with no aligned date is excluded, not zero-filled")
}

func TestResolve_RespectsCutoff(t *testing.T) {
	source := &stubSource{rows: []domain.StatementRow{
		row("MSFT", "2022-06-30", domain.FinanceTypeIncome, "total_revenue", fp(198e9)),
		row("MSFT", "2022-06-30", domain.FinanceTypeBalance, "total_debt", fp(60e9)),
	}}
	resolver := NewResolver(source, NewSnapshotCache(16), zerolog.Nop())

	snaps, err := resolver.Resolve(context.Background(), []string{"MSFT"}, d("2022-01-01"))
	require.NoError(t, err)
	assert.Empty(t, snaps, "reports dated after the cutoff are invisible")
}

func TestResolve_EmptySymbols(t *testing.T) {
	resolver := NewResolver(&stubSource{}, NewSnapshotCache(16), zerolog.Nop())

	snaps, err := resolver.Resolve(context.Background(), nil, d("2022-01-01"))
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestResolve_MemoizesPerSymbolAndCutoff(t *testing.T) {
	source := &stubSource{rows: []domain.StatementRow{
		row("AAPL", "2021-09-30", domain.FinanceTypeIncome, "total_revenue", fp(365e9)),
		row("AAPL", "2021-09-30", domain.FinanceTypeBalance, "total_debt", fp(120e9)),
		// Income only, so no aligned snapshot exists for XYZ.
		row("XYZ", "2021-12-31", domain.FinanceTypeIncome, "total_revenue", fp(1e9)),
	}}
	resolver := NewResolver(source, NewSnapshotCache(16), zerolog.Nop())

	first, err := resolver.Resolve(context.Background(), []string{"AAPL", "XYZ"}, d("2023-01-01"))
	require.NoError(t, err)
	require.Contains(t, first, "AAPL")
	require.NotContains(t, first, "XYZ")
	assert.Equal(t, 1, source.calls)

	// Second resolve at the same cutoff is served from the cache, including
	// the negative result for XYZ.
	second, err := resolver.Resolve(context.Background(), []string{"AAPL", "XYZ"}, d("2023-01-01"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)

	// A different cutoff is a different key and goes back to the source.
	_, err = resolver.Resolve(context.Background(), []string{"AAPL"}, d("2022-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestPickFirst_FallbackOrder(t *testing.T) {
	items := map[string]*float64{
		"operating_revenue": fp(90),
		"total_revenue":     fp(100),
	}
	got := PickFirst(items, RevenueItems)
	require.NotNil(t, got)
	assert.Equal(t, 100.0, *got, "total_revenue is preferred over operating_revenue")
}

func TestPickFirst_SkipsNilAndNonFinite(t *testing.T) {
	nan := math.NaN()
	items := map[string]*float64{
		"total_revenue":     nil,
		"Total Revenue":     &nan,
		"operating_revenue": fp(75),
	}
	got := PickFirst(items, RevenueItems)
	require.NotNil(t, got)
	assert.Equal(t, 75.0, *got)
}

func TestPickFirst_NothingUsable(t *testing.T) {
	assert.Nil(t, PickFirst(map[string]*float64{}, RevenueItems))
	assert.Nil(t, PickFirst(map[string]*float64{"unrelated": fp(1)}, RevenueItems))
}

func TestEligible(t *testing.T) {
	withBoth := Snapshot{IncomeItems: map[string]*float64{
		"total_revenue": fp(1e9),
		"diluted_eps":   fp(2.5),
	}}
	assert.True(t, Eligible(withBoth))

	revenueAndNetIncome := Snapshot{IncomeItems: map[string]*float64{
		"total_revenue": fp(1e9),
		"net_income":    fp(1e8),
	}}
	assert.True(t, Eligible(revenueAndNetIncome))

	revenueOnly := Snapshot{IncomeItems: map[string]*float64{
		"total_revenue": fp(1e9),
	}}
	assert.False(t, Eligible(revenueOnly))

	assert.False(t, Eligible(Snapshot{}))
}
