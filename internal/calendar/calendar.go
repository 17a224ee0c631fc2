package calendar

import (
	"fmt"
	"time"

	"github.com/wonny/themecast/backend/pkg/config"
)

// krxHolidays KRX 휴장일 (주말 제외)
// 추가 연도는 BACKTEST_HOLIDAY_FILE 로 보충한다.
var krxHolidays = []string{
	"2026-01-01", // 신정
	"2026-02-16", // 설날 연휴
	"2026-02-17",
	"2026-02-18",
	"2026-03-02", // 삼일절 대체
	"2026-05-01", // 근로자의 날
	"2026-05-05", // 어린이날
	"2026-05-25", // 부처님오신날 대체
	"2026-06-03", // 지방선거
	"2026-08-17", // 광복절 대체
	"2026-09-24", // 추석 연휴
	"2026-09-25",
	"2026-10-05", // 개천절 대체
	"2026-10-09", // 한글날
	"2026-12-25", // 성탄절
	"2026-12-31", // 연말 휴장
}

// Calendar KRX trading calendar: weekends, holidays and the market-close cutoff
type Calendar struct {
	loc        *time.Location
	cutoffHour int
	holidays   map[string]struct{}
}

// New builds the calendar from the backtest config (built-in holidays + optional file)
func New(cfg config.BacktestConfig) (*Calendar, error) {
	extra := []string{}
	if cfg.HolidayFile != "" {
		file, err := LoadHolidayFile(cfg.HolidayFile)
		if err != nil {
			return nil, fmt.Errorf("load holidays: %w", err)
		}
		extra = file
	}

	return NewWithHolidays(cfg.Location(), cfg.CutoffHour, append(append([]string{}, krxHolidays...), extra...))
}

// NewWithHolidays builds a calendar from an explicit holiday list (YYYY-MM-DD)
func NewWithHolidays(loc *time.Location, cutoffHour int, holidays []string) (*Calendar, error) {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		d, err := time.Parse("2006-01-02", h)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		set[d.Format("2006-01-02")] = struct{}{}
	}

	return &Calendar{
		loc:        loc,
		cutoffHour: cutoffHour,
		holidays:   set,
	}, nil
}

// Location returns the calendar's timezone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Date truncates t to its calendar date in the calendar timezone
func (c *Calendar) Date(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// anchor interprets a stored calendar date (year/month/day only) in the calendar timezone
func (c *Calendar) anchor(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
}

// IsHoliday reports whether the date is a listed market holiday
func (c *Calendar) IsHoliday(d time.Time) bool {
	_, ok := c.holidays[d.Format("2006-01-02")]
	return ok
}

// IsTradingDay reports whether the date is neither a weekend nor a holiday
func (c *Calendar) IsTradingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(d)
}

// TradingDaysElapsed counts trading days strictly after predictionDate up to
// and including the current date.
func (c *Calendar) TradingDaysElapsed(predictionDate, now time.Time) int {
	start := c.anchor(predictionDate)
	today := c.Date(now)

	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(today); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			count++
		}
	}
	return count
}

// Cutoff returns the market-close instant of the given calendar date
func (c *Calendar) Cutoff(date time.Time) time.Time {
	d := c.anchor(date)
	return time.Date(d.Year(), d.Month(), d.Day(), c.cutoffHour, 0, 0, 0, c.loc)
}

// PastCutoff reports whether now is at or after the date's market-close cutoff
func (c *Calendar) PastCutoff(date, now time.Time) bool {
	return !now.Before(c.Cutoff(date))
}
