package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/backtest"
	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/internal/notify"
	"github.com/wonny/themecast/backend/pkg/redis"
)

// Sweeper evaluates all active predictions
type Sweeper interface {
	Sweep(ctx context.Context, dryRun bool) (*backtest.RunResult, error)
}

// Reporter computes the accuracy report
type Reporter interface {
	Report(ctx context.Context) (contracts.AccuracyReport, error)
}

// LockFunc acquires the single-writer lock and returns its release func
type LockFunc func(ctx context.Context) (release func(context.Context) error, err error)

// RedisLock builds a LockFunc on top of redis.Acquire
func RedisLock(client *redis.Client, key string, ttl time.Duration) LockFunc {
	return func(ctx context.Context) (func(context.Context) error, error) {
		l, err := redis.Acquire(ctx, client, key, ttl)
		if err != nil {
			return nil, err
		}
		return l.Release, nil
	}
}

// BacktestJob 예측 판정 스윕 → 정확도 → 알림
// ⭐ SSOT: 정기 판정은 이 작업만 수행
type BacktestJob struct {
	sweeper  Sweeper
	reporter Reporter
	notifier notify.Notifier
	lock     LockFunc
	schedule string
	log      zerolog.Logger
}

// NewBacktestJob creates a new sweep job. lock may be nil.
func NewBacktestJob(sweeper Sweeper, reporter Reporter, notifier notify.Notifier, lock LockFunc, schedule string, log zerolog.Logger) *BacktestJob {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &BacktestJob{
		sweeper:  sweeper,
		reporter: reporter,
		notifier: notifier,
		lock:     lock,
		schedule: schedule,
		log:      log.With().Str("component", "scheduler.backtest").Logger(),
	}
}

// Name returns the job name
func (j *BacktestJob) Name() string {
	return "backtest_sweep"
}

// Schedule returns the cron schedule
func (j *BacktestJob) Schedule() string {
	return j.schedule
}

// Run executes one sweep
func (j *BacktestJob) Run(ctx context.Context) error {
	if j.lock != nil {
		release, err := j.lock(ctx)
		if errors.Is(err, redis.ErrLocked) {
			j.log.Info().Msg("another sweep is running, skipped")
			return nil
		}
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				j.log.Warn().Err(err).Msg("lock release failed")
			}
		}()
	}

	j.log.Info().Msg("Step 1: evaluating active predictions")
	result, err := j.sweeper.Sweep(ctx, false)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	j.log.Info().Str("tally", result.Tally()).Int("failed", result.Failed).Msg("sweep done")

	j.log.Info().Msg("Step 2: computing accuracy")
	summary := notify.RunSummary{Title: "테마 예측 판정", Result: result}
	report, err := j.reporter.Report(ctx)
	if err != nil {
		// 판정은 이미 기록됨, 보고서만 생략
		j.log.Warn().Err(err).Msg("accuracy report failed")
	} else {
		summary.Report = &report
	}

	if err := j.notifier.Notify(ctx, summary); err != nil {
		j.log.Warn().Err(err).Msg("notify failed")
	}

	return nil
}
