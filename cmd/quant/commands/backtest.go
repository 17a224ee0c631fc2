package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/themecast/backend/internal/backtest"
	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/internal/notify"
	"github.com/wonny/themecast/backend/pkg/redis"
)

const runLockKey = "backtest:run"

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "테마 예측 판정",
	Long: `저장된 테마 예측을 판정하고 정확도를 집계합니다.

판정 규칙:
- today      : 예측일 18:00 (KST) 이후 당일 수익률로 판정
- short_term : 7 영업일 경과 후 12일 구간 수익률로 판정
- long_term  : 30 영업일 경과 후 45일 구간 수익률로 판정

Example:
  go run ./cmd/quant backtest run
  go run ./cmd/quant backtest run --test
  go run ./cmd/quant backtest run --reevaluate 2026-03-02
  go run ./cmd/quant backtest accuracy`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "활성 예측 판정 실행",
		Long: `active 예측을 (예측일, 카테고리) 그룹별로 조회·판정하고 결과를 기록합니다.

Flags:
  --test         테스트 모드 (기록, 정확도 집계, 알림 생략)
  --reevaluate   지정일의 hit/missed 예측을 성숙 조건 없이 재판정 (YYYY-MM-DD)
  --export       정확도 보고서 JSON 저장 경로`,
		RunE: runBacktest,
	}

	backtestAccuracyCmd = &cobra.Command{
		Use:   "accuracy",
		Short: "정확도 보고서 출력",
		RunE:  runAccuracy,
	}

	// Flags
	backtestDryRun     bool
	backtestReevaluate string
	backtestExport     string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestAccuracyCmd)

	// Flags
	backtestRunCmd.Flags().BoolVar(&backtestDryRun, "test", false, "테스트 모드 (기록하지 않음)")
	backtestRunCmd.Flags().StringVar(&backtestReevaluate, "reevaluate", "", "재판정할 예측일 (YYYY-MM-DD)")
	backtestRunCmd.Flags().StringVar(&backtestExport, "export", "", "정확도 보고서 JSON 저장 경로")
	backtestAccuracyCmd.Flags().StringVar(&backtestExport, "export", "", "정확도 보고서 JSON 저장 경로")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	var reevalDate *time.Time
	if backtestReevaluate != "" {
		d, err := time.ParseInLocation(contracts.DateLayout, backtestReevaluate, a.cal.Location())
		if err != nil {
			return fmt.Errorf("invalid --reevaluate date %q (format: YYYY-MM-DD)", backtestReevaluate)
		}
		reevalDate = &d
	}

	mode := "판정"
	switch {
	case reevalDate != nil:
		mode = "재판정 " + backtestReevaluate
	case backtestDryRun:
		mode = "판정 (테스트)"
	}
	out := cmd.OutOrStdout()
	printHeader(out, "Themecast Backtest",
		[2]string{"Mode", mode},
		[2]string{"Now", time.Now().In(a.cal.Location()).Format("2006-01-02 15:04 MST")},
		[2]string{"Source", a.cfg.Backtest.Source},
	)

	// 동시에 한 배치만 기록
	if !backtestDryRun {
		lock, err := redis.Acquire(ctx, a.redis, runLockKey, 30*time.Minute)
		if errors.Is(err, redis.ErrLocked) {
			return fmt.Errorf("another backtest run is in progress")
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				a.log.WithError(err).Warn("lock release failed")
			}
		}()
	}

	var result *backtest.RunResult
	if reevalDate != nil {
		result, err = a.coordinator.Reevaluate(ctx, *reevalDate, backtestDryRun)
	} else {
		result, err = a.coordinator.Sweep(ctx, backtestDryRun)
	}
	if result != nil {
		printRunResult(out, result)
	}
	if err != nil {
		return fmt.Errorf("backtest run: %w", err)
	}

	// 테스트 모드는 보고서와 알림 생략
	if backtestDryRun {
		return nil
	}

	summary := notify.RunSummary{Title: "테마 예측 " + mode, Result: result}
	report, err := a.aggregator.Report(ctx)
	if err != nil {
		a.log.WithError(err).Warn("accuracy report failed")
	} else {
		summary.Report = &report
		fmt.Fprintln(out)
		printReport(out, report)
		if err := exportReport(backtestExport, report); err != nil {
			return err
		}
	}

	if err := a.notifier.Notify(ctx, summary); err != nil {
		a.log.WithError(err).Warn("notify failed")
	}
	return nil
}

func runAccuracy(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.aggregator.Report(cmd.Context())
	if err != nil {
		return fmt.Errorf("accuracy report: %w", err)
	}

	printReport(cmd.OutOrStdout(), report)
	return exportReport(backtestExport, report)
}

// exportReport writes the report as indented JSON (no-op when path is empty)
func exportReport(path string, report contracts.AccuracyReport) error {
	if path == "" {
		return nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	fmt.Printf("✅ 보고서 저장: %s\n", path)
	return nil
}
