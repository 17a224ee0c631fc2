package backtest

import (
	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/pkg/config"
)

// Policy 판정 파라미터
type Policy struct {
	HitThreshold  float64 // 대장주 절대 수익률 기준 (%)
	ShortTermDays int     // short_term 성숙 영업일
	LongTermDays  int     // long_term 성숙 영업일
	ShortWindow   int     // short_term 조회 달력일
	LongWindow    int     // long_term 조회 달력일
	DailyLookback int     // today 조회 과거 달력일
}

// DefaultPolicy returns the standard evaluation parameters
func DefaultPolicy() Policy {
	return Policy{
		HitThreshold:  2.0,
		ShortTermDays: 7,
		LongTermDays:  30,
		ShortWindow:   12,
		LongWindow:    45,
		DailyLookback: 10,
	}
}

// PolicyFromConfig builds the policy from backtest config
func PolicyFromConfig(cfg config.BacktestConfig) Policy {
	return Policy{
		HitThreshold:  cfg.HitThreshold,
		ShortTermDays: cfg.ShortTermDays,
		LongTermDays:  cfg.LongTermDays,
		ShortWindow:   cfg.ShortWindow,
		LongWindow:    cfg.LongWindow,
		DailyLookback: cfg.DailyLookback,
	}
}

// MaturityDays returns the trading days a non-daily category must wait.
// Unknown categories use the short_term rule.
func (p Policy) MaturityDays(c contracts.Category) int {
	if c == contracts.CategoryLongTerm {
		return p.LongTermDays
	}
	return p.ShortTermDays
}

// WindowDays returns the calendar days fetched after the prediction date.
// Unknown categories use the short_term window.
func (p Policy) WindowDays(c contracts.Category) int {
	if c == contracts.CategoryLongTerm {
		return p.LongWindow
	}
	return p.ShortWindow
}

// Threshold 과반 기준: 증거 종목 n개 중 필요한 적중 수
// n=1,2 → 1, n=3,4 → 2, n=5,6 → 3
func Threshold(n int) int {
	return max(1, (n+1)/2)
}
