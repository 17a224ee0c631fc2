package backtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wonny/themecast/backend/internal/calendar"
	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/pkg/config"
)

var kst = time.FixedZone("KST", 9*60*60)

func day(s string) time.Time {
	d, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func at(s string, hour, min int) time.Time {
	d := day(s)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, kst)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// series builds a most-recent-first series ending at `last` with one point per weekday
func series(symbol string, last time.Time, closes ...float64) contracts.Series {
	s := contracts.Series{Symbol: symbol}
	d := last
	for _, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, -1)
		}
		s.Points = append(s.Points, contracts.PricePoint{TradeDate: d, Close: c})
		d = d.AddDate(0, 0, -1)
	}
	return s
}

// window builds a ReturnWindow from evidenced returns plus omitted codes
func window(index float64, returns map[string]float64, omitted ...string) contracts.ReturnWindow {
	w := contracts.ReturnWindow{Returns: map[string]contracts.Evidence{}, IndexReturn: index}
	for code, r := range returns {
		w.Returns[code] = contracts.Found(code, r)
	}
	for _, code := range omitted {
		w.Returns[code] = contracts.Omitted(code, ErrShortSeries)
	}
	return w
}

func stocks(codes ...string) []contracts.LeaderStock {
	out := make([]contracts.LeaderStock, 0, len(codes))
	for _, c := range codes {
		out = append(out, contracts.LeaderStock{Code: c, Name: "종목" + c})
	}
	return out
}

func newTestCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	cal, err := calendar.New(config.BacktestConfig{Timezone: "Asia/Seoul", CutoffHour: 18})
	require.NoError(t, err)
	return cal
}

type seriesCall struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// fakeSource returns canned series per symbol and records every call
type fakeSource struct {
	mu     sync.Mutex
	series map[string]contracts.Series
	errs   map[string]error
	calls  []seriesCall
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		series: make(map[string]contracts.Series),
		errs:   make(map[string]error),
	}
}

func (f *fakeSource) DailySeries(_ context.Context, symbol string, from, to time.Time) (contracts.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, seriesCall{Symbol: symbol, From: from, To: to})

	if err, ok := f.errs[symbol]; ok {
		return contracts.Series{}, err
	}
	if s, ok := f.series[symbol]; ok {
		return s, nil
	}
	return contracts.Series{Symbol: symbol}, nil
}

func (f *fakeSource) callsFor(symbol string) []seriesCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []seriesCall
	for _, c := range f.calls {
		if c.Symbol == symbol {
			out = append(out, c)
		}
	}
	return out
}

type storedUpdate struct {
	ID     int64
	Update contracts.PredictionUpdate
}

// fakeStore serves predictions from memory, filtering like the real store
type fakeStore struct {
	preds    []contracts.Prediction
	failIDs  map[int64]bool
	queryErr error
	filters  []contracts.PredictionFilter
	updates  []storedUpdate
}

func (s *fakeStore) Query(_ context.Context, filter contracts.PredictionFilter) ([]contracts.Prediction, error) {
	s.filters = append(s.filters, filter)
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	var out []contracts.Prediction
	for _, p := range s.preds {
		if !statusIn(p.Status, filter.Statuses) {
			continue
		}
		if filter.PredictionDate != nil && p.DateKey() != filter.PredictionDate.Format(contracts.DateLayout) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) Update(_ context.Context, id int64, update contracts.PredictionUpdate) error {
	if s.failIDs[id] {
		return errors.New("connection reset")
	}
	s.updates = append(s.updates, storedUpdate{ID: id, Update: update})
	return nil
}

func statusIn(s contracts.Status, set []contracts.Status) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

var nopLog = zerolog.Nop()
