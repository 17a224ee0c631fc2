package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/themecast/backend/pkg/config"
)

var kst = time.FixedZone("KST", 9*60*60)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func at(s string, hour, min int) time.Time {
	d := date(s)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, kst)
}

func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := NewWithHolidays(kst, 18, krxHolidays)
	require.NoError(t, err)
	return cal
}

func TestIsTradingDay(t *testing.T) {
	cal := newTestCalendar(t)

	tests := []struct {
		day  string
		want bool
	}{
		{"2026-02-26", true},  // 목
		{"2026-02-28", false}, // 토
		{"2026-03-01", false}, // 일
		{"2026-03-02", false}, // 삼일절 대체
		{"2026-02-17", false}, // 설날
		{"2026-10-15", true},
	}

	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsTradingDay(date(tt.day)))
		})
	}
}

func TestTradingDaysElapsed(t *testing.T) {
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		pred string
		now  time.Time
		want int
	}{
		{"same day", "2026-02-26", at("2026-02-26", 20, 0), 0},
		{"skips weekend and holiday", "2026-02-26", at("2026-03-06", 9, 0), 5},
		{"counts today before close", "2026-02-26", at("2026-03-09", 0, 1), 6},
		{"seventh trading day", "2026-02-26", at("2026-03-10", 10, 0), 7},
		{"lunar new year", "2026-02-13", at("2026-02-20", 12, 0), 2},
		{"chuseok", "2026-09-23", at("2026-10-05", 12, 0), 5},
		{"now before prediction", "2026-03-10", at("2026-03-01", 12, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.TradingDaysElapsed(date(tt.pred), tt.now))
		})
	}
}

func TestTradingDaysElapsedUsesCalendarZone(t *testing.T) {
	cal := newTestCalendar(t)

	// 2026-03-09 23:30 UTC = 2026-03-10 08:30 KST
	now := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 7, cal.TradingDaysElapsed(date("2026-02-26"), now))
}

func TestPastCutoff(t *testing.T) {
	cal := newTestCalendar(t)
	pred := date("2026-10-15")

	assert.False(t, cal.PastCutoff(pred, at("2026-10-15", 17, 59)))
	assert.True(t, cal.PastCutoff(pred, at("2026-10-15", 18, 0)))
	assert.True(t, cal.PastCutoff(pred, at("2026-10-16", 9, 0)))
	assert.Equal(t, at("2026-10-15", 18, 0), cal.Cutoff(pred))
}

func TestNewWithHolidaysInvalid(t *testing.T) {
	_, err := NewWithHolidays(kst, 18, []string{"2026-13-01"})
	assert.Error(t, err)
}

func TestNewWithHolidayFile(t *testing.T) {
	cal, err := New(config.BacktestConfig{
		Timezone:    "Asia/Seoul",
		CutoffHour:  18,
		HolidayFile: "testdata/holidays.yaml",
	})
	require.NoError(t, err)

	assert.True(t, cal.IsHoliday(date("2027-02-08")))
	assert.True(t, cal.IsHoliday(date("2026-12-31")), "built-in holidays are kept")
	assert.False(t, cal.IsTradingDay(date("2027-01-01")))
}

func TestLoadHolidayFileRejectsUnknownFields(t *testing.T) {
	_, err := LoadHolidayFile("testdata/typo.yaml")
	assert.Error(t, err)

	_, err = LoadHolidayFile("testdata/missing.yaml")
	assert.Error(t, err)
}
