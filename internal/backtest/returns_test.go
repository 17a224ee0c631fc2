package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/themecast/backend/internal/contracts"
)

func TestWindowReturn(t *testing.T) {
	last := day("2026-03-10")

	tests := []struct {
		name    string
		points  []contracts.PricePoint
		want    float64
		wantErr error
	}{
		{"gain", series("A", last, 105, 103, 100).Points, 5.0, nil},
		{"loss", series("A", last, 97, 100).Points, -3.0, nil},
		{"rounds to 2 decimals", series("A", last, 101.234, 100).Points, 1.23, nil},
		{"rounds half up", series("A", last, 10.0125, 10).Points, 0.13, nil},
		{"empty", nil, 0, ErrNoSeries},
		{"single point", series("A", last, 100).Points, 0, ErrShortSeries},
		{"zero base", series("A", last, 100, 0).Points, 0, ErrBadBasePrice},
		{"negative base", series("A", last, 100, -5).Points, 0, ErrBadBasePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WindowReturn(tt.points)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowReturnDeterministic(t *testing.T) {
	points := series("A", day("2026-03-10"), 12345.67, 11111.11, 10987.65).Points

	first, err := WindowReturn(points)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := WindowReturn(points)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 12.36, first)
}

func TestDailyReturn(t *testing.T) {
	// 2026-02-26(목) 기준, 최신순
	points := series("A", day("2026-02-27"), 110, 104, 100, 98).Points

	tests := []struct {
		name    string
		points  []contracts.PricePoint
		target  string
		want    float64
		wantErr error
	}{
		{"target in middle", points, "2026-02-26", 4.0, nil},
		{"latest row", points, "2026-02-27", 5.77, nil},
		{"target missing", points, "2026-02-28", 0, ErrTargetDateMissing},
		{"no older row", points, "2026-02-24", 0, ErrShortSeries},
		{"single point", points[:1], "2026-02-27", 0, ErrShortSeries},
		{"empty", nil, "2026-02-27", 0, ErrNoSeries},
		{"bad base", series("A", day("2026-02-27"), 110, 0).Points, "2026-02-27", 0, ErrBadBasePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DailyReturn(tt.points, day(tt.target))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchWindowReturnsOmitsInsteadOfZeroFilling(t *testing.T) {
	src := newFakeSource()
	src.series["A"] = series("A", day("2026-03-10"), 105, 100)
	src.series["B"] = series("B", day("2026-03-10"), 100)
	src.errs["C"] = errors.New("rt_cd=1 조회 실패")

	f := NewFetcher(src, DefaultPolicy(), nopLog)
	got := f.FetchWindowReturns(context.Background(), []string{"A", "B", "C", "D"}, day("2026-02-26"), day("2026-03-10"))

	require.Len(t, got, 4)
	assert.True(t, got["A"].OK)
	assert.Equal(t, 5.0, got["A"].Return)

	assert.False(t, got["B"].OK)
	assert.ErrorIs(t, got["B"].Reason, ErrShortSeries)

	assert.False(t, got["C"].OK)
	assert.ErrorIs(t, got["C"].Reason, ErrSourceFailed)

	assert.False(t, got["D"].OK)
	assert.ErrorIs(t, got["D"].Reason, ErrNoSeries)

	calls := src.callsFor("A")
	require.Len(t, calls, 1)
	assert.Equal(t, day("2026-02-26"), calls[0].From)
	assert.Equal(t, day("2026-03-10"), calls[0].To)
}

func TestFetchIndexReturnFallsBackToZero(t *testing.T) {
	ctx := context.Background()

	src := newFakeSource()
	src.errs[contracts.IndexSymbol] = errors.New("timeout")
	f := NewFetcher(src, DefaultPolicy(), nopLog)

	assert.Equal(t, 0.0, f.FetchWindowIndexReturn(ctx, day("2026-02-26"), day("2026-03-10")))
	assert.Equal(t, 0.0, f.FetchDailyIndexReturn(ctx, day("2026-02-26")))

	src = newFakeSource()
	src.series[contracts.IndexSymbol] = series(contracts.IndexSymbol, day("2026-02-26"), 2600)
	f = NewFetcher(src, DefaultPolicy(), nopLog)
	assert.Equal(t, 0.0, f.FetchWindowIndexReturn(ctx, day("2026-02-26"), day("2026-03-10")))

	src.series[contracts.IndexSymbol] = series(contracts.IndexSymbol, day("2026-03-10"), 2652, 2600)
	assert.Equal(t, 2.0, f.FetchWindowIndexReturn(ctx, day("2026-02-26"), day("2026-03-10")))
}

func TestFetchDailyReturnsUsesLookback(t *testing.T) {
	src := newFakeSource()
	src.series["A"] = series("A", day("2026-02-26"), 103, 100)
	src.series[contracts.IndexSymbol] = series(contracts.IndexSymbol, day("2026-02-26"), 2626, 2600)

	f := NewFetcher(src, DefaultPolicy(), nopLog)
	ctx := context.Background()
	target := day("2026-02-26")

	got := f.FetchDailyReturns(ctx, []string{"A"}, target)
	assert.Equal(t, contracts.Found("A", 3.0), got["A"])
	assert.Equal(t, 1.0, f.FetchDailyIndexReturn(ctx, target))

	calls := src.callsFor("A")
	require.Len(t, calls, 1)
	assert.Equal(t, day("2026-02-16"), calls[0].From)
	assert.Equal(t, target, calls[0].To)
}
