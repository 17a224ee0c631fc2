package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Themecast - 테마 예측 판정 시스템",
	Long: `Themecast Unified CLI

테마 예측의 성숙 여부를 영업일로 판단하고,
대장주 수익률로 hit / missed / expired 를 판정합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant backtest run
  go run ./cmd/quant backtest run --test
  go run ./cmd/quant backtest accuracy
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}
