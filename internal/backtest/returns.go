package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wonny/themecast/backend/internal/contracts"
)

// 누락 사유 (errors.Is 로 확인)
var (
	ErrSourceFailed      = errors.New("market data source failed")
	ErrNoSeries          = errors.New("empty price series")
	ErrShortSeries       = errors.New("fewer than 2 price points")
	ErrBadBasePrice      = errors.New("non-positive base price")
	ErrTargetDateMissing = errors.New("target date row missing")
)

// Fetcher 종목/지수 수익률 조회 (ReturnsFetcher)
// 종목 실패는 누락(Omitted)으로, 지수 실패는 0.0 으로 처리한다.
type Fetcher struct {
	source   contracts.SeriesSource
	lookback int
	log      zerolog.Logger
}

// NewFetcher 새 수익률 조회기 생성
func NewFetcher(source contracts.SeriesSource, policy Policy, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		source:   source,
		lookback: policy.DailyLookback,
		log:      log.With().Str("component", "backtest.fetcher").Logger(),
	}
}

// FetchWindowReturns 기간 수익률: (최근 종가 - 시계열 최초 종가) / 최초 종가 × 100
func (f *Fetcher) FetchWindowReturns(ctx context.Context, codes []string, from, to time.Time) map[string]contracts.Evidence {
	result := make(map[string]contracts.Evidence, len(codes))
	omitted := 0

	for _, code := range codes {
		series, err := f.source.DailySeries(ctx, code, from, to)
		if err != nil {
			result[code] = f.omit(code, fmt.Errorf("%w: %v", ErrSourceFailed, err))
			omitted++
			continue
		}

		ret, err := WindowReturn(series.Points)
		if err != nil {
			result[code] = f.omit(code, err)
			omitted++
			continue
		}
		result[code] = contracts.Found(code, ret)
	}

	f.log.Debug().
		Str("from", from.Format(contracts.DateLayout)).
		Str("to", to.Format(contracts.DateLayout)).
		Int("codes", len(codes)).
		Int("omitted", omitted).
		Msg("window returns fetched")

	return result
}

// FetchWindowIndexReturn 지수 기간 수익률 (실패 시 0.0)
func (f *Fetcher) FetchWindowIndexReturn(ctx context.Context, from, to time.Time) float64 {
	series, err := f.source.DailySeries(ctx, contracts.IndexSymbol, from, to)
	if err != nil {
		f.log.Warn().Err(err).Msg("index series unavailable, using 0.0")
		return 0.0
	}

	ret, err := WindowReturn(series.Points)
	if err != nil {
		f.log.Warn().Err(err).Msg("index window return unavailable, using 0.0")
		return 0.0
	}
	return ret
}

// FetchDailyReturns 당일 수익률: (당일 종가 - 전 거래일 종가) / 전 거래일 종가 × 100
func (f *Fetcher) FetchDailyReturns(ctx context.Context, codes []string, target time.Time) map[string]contracts.Evidence {
	result := make(map[string]contracts.Evidence, len(codes))
	from := target.AddDate(0, 0, -f.lookback)
	omitted := 0

	for _, code := range codes {
		series, err := f.source.DailySeries(ctx, code, from, target)
		if err != nil {
			result[code] = f.omit(code, fmt.Errorf("%w: %v", ErrSourceFailed, err))
			omitted++
			continue
		}

		ret, err := DailyReturn(series.Points, target)
		if err != nil {
			result[code] = f.omit(code, err)
			omitted++
			continue
		}
		result[code] = contracts.Found(code, ret)
	}

	f.log.Debug().
		Str("target", target.Format(contracts.DateLayout)).
		Int("codes", len(codes)).
		Int("omitted", omitted).
		Msg("daily returns fetched")

	return result
}

// FetchDailyIndexReturn 지수 당일 수익률 (실패 시 0.0)
func (f *Fetcher) FetchDailyIndexReturn(ctx context.Context, target time.Time) float64 {
	series, err := f.source.DailySeries(ctx, contracts.IndexSymbol, target.AddDate(0, 0, -f.lookback), target)
	if err != nil {
		f.log.Warn().Err(err).Msg("index series unavailable, using 0.0")
		return 0.0
	}

	ret, err := DailyReturn(series.Points, target)
	if err != nil {
		f.log.Warn().Err(err).Msg("index daily return unavailable, using 0.0")
		return 0.0
	}
	return ret
}

func (f *Fetcher) omit(code string, reason error) contracts.Evidence {
	f.log.Warn().
		Str("code", code).
		Err(reason).
		Msg("return omitted")
	return contracts.Omitted(code, reason)
}

// WindowReturn computes the percent return across a most-recent-first series
func WindowReturn(points []contracts.PricePoint) (float64, error) {
	if len(points) == 0 {
		return 0, ErrNoSeries
	}
	if len(points) < 2 {
		return 0, ErrShortSeries
	}
	return percentChange(points[len(points)-1].Close, points[0].Close)
}

// DailyReturn computes the target date's return against the prior trading day
func DailyReturn(points []contracts.PricePoint, target time.Time) (float64, error) {
	if len(points) == 0 {
		return 0, ErrNoSeries
	}
	if len(points) < 2 {
		return 0, ErrShortSeries
	}

	key := target.Format("20060102")
	for i, p := range points {
		if p.TradeDate.Format("20060102") != key {
			continue
		}
		if i+1 >= len(points) {
			return 0, ErrShortSeries
		}
		return percentChange(points[i+1].Close, p.Close)
	}

	return 0, ErrTargetDateMissing
}

// percentChange (latest - base) / base × 100, 소수 둘째 자리 반올림
func percentChange(base, latest float64) (float64, error) {
	if base <= 0 {
		return 0, ErrBadBasePrice
	}
	b := decimal.NewFromFloat(base)
	return decimal.NewFromFloat(latest).
		Sub(b).
		Div(b).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64(), nil
}
