package contracts

import "time"

// IndexSymbol is the reserved series symbol of the benchmark index
const IndexSymbol = "^INDEX"

// PricePoint 일별 종가
type PricePoint struct {
	TradeDate time.Time `json:"trade_date"`
	Close     float64   `json:"close"`
}

// Series 일별 종가 시계열 (최신순)
type Series struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Evidence 종목별 수익률 조회 결과: 성공(Return) 또는 누락(Reason)
type Evidence struct {
	Code   string
	Return float64 // percent, 2 decimal places
	OK     bool
	Reason error
}

// Found builds a successful evidence
func Found(code string, ret float64) Evidence {
	return Evidence{Code: code, Return: ret, OK: true}
}

// Omitted builds an omission with its reason
func Omitted(code string, reason error) Evidence {
	return Evidence{Code: code, Reason: reason}
}

// GroupKey 수익률 조회 단위 (예측일, 카테고리)
type GroupKey struct {
	Date     string
	Category Category
}

func (k GroupKey) String() string {
	return k.Date + "/" + string(k.Category)
}

// ReturnWindow 그룹 공유 시장 데이터 (저장하지 않음)
// 같은 그룹의 모든 예측은 동일한 ReturnWindow로 판정된다.
type ReturnWindow struct {
	Key         GroupKey
	Returns     map[string]Evidence
	IndexReturn float64
}

// Lookup returns the evidence for code; codes never fetched count as omitted
func (w ReturnWindow) Lookup(code string) Evidence {
	if ev, ok := w.Returns[code]; ok {
		return ev
	}
	return Evidence{Code: code}
}

// Evidenced counts codes with a successful return
func (w ReturnWindow) Evidenced() int {
	n := 0
	for _, ev := range w.Returns {
		if ev.OK {
			n++
		}
	}
	return n
}

// AccuracyGroup 적중률 집계 단위
type AccuracyGroup struct {
	Total    int     `json:"total"`
	Hit      int     `json:"hit"`
	Accuracy float64 `json:"accuracy"` // percent, 1 decimal place
}

// AccuracyReport 전체/신뢰도별/카테고리별 적중률 (hit, missed 대상)
type AccuracyReport struct {
	Overall      AccuracyGroup            `json:"overall"`
	ByConfidence map[string]AccuracyGroup `json:"by_confidence"`
	ByCategory   map[string]AccuracyGroup `json:"by_category"`
}
