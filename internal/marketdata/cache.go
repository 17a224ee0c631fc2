package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/pkg/redis"
)

// SeriesCache is the subset of redis.Cache used for series caching
type SeriesCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedSource decorates a source with a series cache.
// 종료일이 오늘 이전이고 비어 있지 않은 성공 응답만 저장한다 (확정 데이터).
type CachedSource struct {
	next  contracts.SeriesSource
	cache SeriesCache
	ttl   time.Duration
	loc   *time.Location
	now   func() time.Time
	log   zerolog.Logger
}

// NewCachedSource wraps next with cache
func NewCachedSource(next contracts.SeriesSource, cache SeriesCache, ttl time.Duration, loc *time.Location, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		next:  next,
		cache: cache,
		ttl:   ttl,
		loc:   loc,
		now:   time.Now,
		log:   log.With().Str("component", "marketdata.cache").Logger(),
	}
}

// DailySeries implements contracts.SeriesSource
func (s *CachedSource) DailySeries(ctx context.Context, symbol string, from, to time.Time) (contracts.Series, error) {
	key := redis.SeriesKey(symbol, from, to)

	var cached contracts.Series
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("series cache read failed")
	}
	if hit {
		return cached, nil
	}

	series, err := s.next.DailySeries(ctx, symbol, from, to)
	if err != nil {
		return series, err
	}

	if len(series.Points) > 0 && s.settled(to) {
		if err := s.cache.Set(ctx, key, series, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("series cache write failed")
		}
	}

	return series, nil
}

// settled reports whether the range ends before today (종가 확정)
func (s *CachedSource) settled(to time.Time) bool {
	now := s.now().In(s.loc)
	today := now.Format("20060102")
	return to.Format("20060102") < today
}
