package commands

import (
	"fmt"

	"github.com/wonny/themecast/backend/internal/backtest"
	"github.com/wonny/themecast/backend/internal/calendar"
	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/internal/marketdata"
	"github.com/wonny/themecast/backend/internal/notify"
	"github.com/wonny/themecast/backend/internal/prediction"
	"github.com/wonny/themecast/backend/pkg/config"
	"github.com/wonny/themecast/backend/pkg/database"
	"github.com/wonny/themecast/backend/pkg/logger"
	"github.com/wonny/themecast/backend/pkg/redis"
)

// app holds the wired components shared by all commands
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *database.DB
	redis       *redis.Client
	cal         *calendar.Calendar
	store       *prediction.Repository
	coordinator *backtest.Coordinator
	aggregator  *backtest.Aggregator
	notifier    notify.Notifier
}

// bootstrap loads config and builds every component.
// 설정, 저장소, 시세 소스 중 하나라도 실패하면 에러 (호출자는 non-zero 종료).
func bootstrap() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Redis (optional: cache + run lock)
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache and lock")
		rdb, _ = redis.New(config.RedisConfig{Enabled: false})
	}

	// 5. Trading calendar
	cal, err := calendar.New(cfg.Backtest)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	// 6. Market data source
	source, err := marketdata.NewSource(cfg, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create market data source: %w", err)
	}
	if rdb.Enabled() {
		source = marketdata.NewCachedSource(source, redis.NewCache(rdb, "themecast"),
			cfg.Backtest.SeriesCacheTTL, cal.Location(), log.Zerolog())
	}

	// 7. Backtest components
	zl := log.Zerolog()
	policy := backtest.PolicyFromConfig(cfg.Backtest)
	store := prediction.NewRepository(db.Pool, zl)
	fetcher := backtest.NewFetcher(source, policy, zl)
	engine := backtest.NewEngine(cal, policy, nil, zl)

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		redis:       rdb,
		cal:         cal,
		store:       store,
		coordinator: backtest.NewCoordinator(store, fetcher, engine, policy, nil, zl),
		aggregator:  backtest.NewAggregator(store, zl),
		notifier:    notify.New(cfg.Telegram, zl),
	}, nil
}

// Close releases connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("redis close failed")
	}
	a.db.Close()
}

var _ contracts.PredictionStore = (*prediction.Repository)(nil)
