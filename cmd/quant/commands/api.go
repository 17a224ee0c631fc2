package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/themecast/backend/internal/api"
	"github.com/wonny/themecast/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `판정 결과 조회용 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                     - Health check
  GET  /api/backtest/accuracy      - 정확도 보고서
  GET  /api/backtest/predictions   - 예측 조회 (?status=hit,missed&date=YYYY-MM-DD&limit=50)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(
		handlers.NewHealthHandler(a.db),
		handlers.NewBacktestHandler(a.aggregator, a.store, a.cal.Location(), a.log.Zerolog()),
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	printHeader(cmd.OutOrStdout(), "Themecast API Server",
		[2]string{"Port", a.cfg.Port},
		[2]string{"Env", a.cfg.Env},
	)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
