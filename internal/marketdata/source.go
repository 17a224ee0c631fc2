package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/internal/external/kis"
	"github.com/wonny/themecast/backend/internal/external/naver"
	"github.com/wonny/themecast/backend/pkg/config"
	"github.com/wonny/themecast/backend/pkg/httputil"
	"github.com/wonny/themecast/backend/pkg/logger"
)

// KISSource adapts the KIS client to contracts.SeriesSource
type KISSource struct {
	client    *kis.Client
	indexCode string
}

// NewKISSource creates a KIS-backed series source
func NewKISSource(client *kis.Client, indexCode string) *KISSource {
	return &KISSource{client: client, indexCode: indexCode}
}

// DailySeries implements contracts.SeriesSource
func (s *KISSource) DailySeries(ctx context.Context, symbol string, from, to time.Time) (contracts.Series, error) {
	if symbol == contracts.IndexSymbol {
		return s.client.IndexDailySeries(ctx, s.indexCode, from, to)
	}
	return s.client.StockDailySeries(ctx, symbol, from, to)
}

// NaverSource adapts the Naver client to contracts.SeriesSource
type NaverSource struct {
	client *naver.Client
}

// NewNaverSource creates a Naver-backed series source
func NewNaverSource(client *naver.Client) *NaverSource {
	return &NaverSource{client: client}
}

// DailySeries implements contracts.SeriesSource
func (s *NaverSource) DailySeries(ctx context.Context, symbol string, from, to time.Time) (contracts.Series, error) {
	if symbol == contracts.IndexSymbol {
		return s.client.IndexDailySeries(ctx, from, to)
	}
	return s.client.StockDailySeries(ctx, symbol, from, to)
}

// NewSource builds the configured market data source (kis, naver)
func NewSource(cfg *config.Config, log *logger.Logger) (contracts.SeriesSource, error) {
	opts := httputil.DefaultOptions()

	switch cfg.Backtest.Source {
	case "kis":
		if cfg.KIS.AppKey == "" || cfg.KIS.AppSecret == "" {
			return nil, fmt.Errorf("KIS credentials are not configured")
		}
		opts.RequestsPerSec = cfg.KIS.RateLimit
		client := kis.NewClient(cfg.KIS, httputil.New(opts, log), log)
		return NewKISSource(client, cfg.Backtest.IndexCode), nil
	case "naver":
		client := naver.NewClient(cfg.Naver, httputil.New(opts, log), log)
		return NewNaverSource(client), nil
	default:
		return nil, fmt.Errorf("unknown market data source: %q", cfg.Backtest.Source)
	}
}
