package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/calendar"
	"github.com/wonny/themecast/backend/internal/contracts"
)

// Verdict 단일 예측 판정 결과
type Verdict struct {
	Status    contracts.Status
	Reason    string
	Evidenced int // 수익률 확보 종목 수 (n)
	Votes     int // 기준 이상 종목 수 (k)
	Threshold int
	// Performance 는 종결 상태(hit/missed/expired)에서만 채워진다.
	Performance contracts.Performance
}

// Terminal reports whether the verdict moves the prediction out of active
func (v Verdict) Terminal() bool {
	return v.Status != contracts.StatusActive
}

// Engine 예측 상태 판정기 (EvaluationEngine)
// 외부 호출 없이 예측, ReturnWindow, force, 현재 시각만으로 판정한다.
type Engine struct {
	cal    *calendar.Calendar
	policy Policy
	now    func() time.Time
	log    zerolog.Logger
}

// NewEngine 새 판정기 생성 (now == nil 이면 time.Now)
func NewEngine(cal *calendar.Calendar, policy Policy, now func() time.Time, log zerolog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cal:    cal,
		policy: policy,
		now:    now,
		log:    log.With().Str("component", "backtest.engine").Logger(),
	}
}

// Evaluate decides the prediction's new status.
// force 는 성숙 조건만 건너뛰며, 예측일이 없는 예측은 항상 active 다.
func (e *Engine) Evaluate(pred contracts.Prediction, window contracts.ReturnWindow, force bool) Verdict {
	if pred.PredictionDate == nil {
		return Verdict{Status: contracts.StatusActive, Reason: "no prediction date"}
	}

	if !force {
		if v, ok := e.gate(pred); !ok {
			return v
		}
	}

	codes := pred.Codes()
	if len(codes) == 0 {
		return Verdict{
			Status:      contracts.StatusExpired,
			Reason:      "no leader stocks",
			Performance: performance(nil, window),
		}
	}

	n, k := 0, 0
	for _, code := range codes {
		ev := window.Lookup(code)
		if !ev.OK {
			continue // 누락 종목은 투표하지 않음
		}
		n++
		if ev.Return >= e.policy.HitThreshold {
			k++
		}
	}

	if n == 0 {
		return Verdict{
			Status:      contracts.StatusExpired,
			Reason:      "no evidenced stocks",
			Performance: performance(codes, window),
		}
	}

	threshold := Threshold(n)
	v := Verdict{
		Status:      contracts.StatusMissed,
		Evidenced:   n,
		Votes:       k,
		Threshold:   threshold,
		Reason:      fmt.Sprintf("%d/%d at or above %.1f%% (need %d)", k, n, e.policy.HitThreshold, threshold),
		Performance: performance(codes, window),
	}
	if k >= threshold {
		v.Status = contracts.StatusHit
	}

	if n < len(codes) {
		e.log.Debug().
			Int64("prediction_id", pred.ID).
			Int("codes", len(codes)).
			Int("evidenced", n).
			Msg("majority reduced by omitted codes")
	}

	return v
}

// gate 성숙 조건: today 는 당일 장 마감 이후, 그 외는 경과 영업일
func (e *Engine) gate(pred contracts.Prediction) (Verdict, bool) {
	now := e.now()

	if pred.Category.IsDaily() {
		if !e.cal.PastCutoff(*pred.PredictionDate, now) {
			return Verdict{Status: contracts.StatusActive, Reason: "before market close"}, false
		}
		return Verdict{}, true
	}

	required := e.policy.MaturityDays(pred.Category)
	elapsed := e.cal.TradingDaysElapsed(*pred.PredictionDate, now)
	if elapsed < required {
		return Verdict{
			Status: contracts.StatusActive,
			Reason: fmt.Sprintf("%d/%d trading days elapsed", elapsed, required),
		}, false
	}
	return Verdict{}, true
}

// performance actual_performance 구성: 증거 종목은 수익률, 나머지는 "N/A"
func performance(codes []string, window contracts.ReturnWindow) contracts.Performance {
	perf := make(contracts.Performance, len(codes)+1)
	for _, code := range codes {
		if ev := window.Lookup(code); ev.OK {
			perf[code] = ev.Return
		} else {
			perf[code] = contracts.NotAvailable
		}
	}
	perf[contracts.IndexReturnKey] = window.IndexReturn
	return perf
}
