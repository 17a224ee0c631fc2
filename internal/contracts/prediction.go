package contracts

import (
	"time"
)

// Category 예측 기간 구분 (판정 시점과 수익률 조회 방식 결정)
type Category string

const (
	CategoryToday     Category = "today"
	CategoryShortTerm Category = "short_term"
	CategoryLongTerm  Category = "long_term"
)

// Known reports whether c is one of the three defined categories
func (c Category) Known() bool {
	switch c {
	case CategoryToday, CategoryShortTerm, CategoryLongTerm:
		return true
	}
	return false
}

// IsDaily reports whether the category is judged on a same-day return
func (c Category) IsDaily() bool {
	return c == CategoryToday
}

// Status 예측 상태
type Status string

const (
	StatusActive  Status = "active"
	StatusHit     Status = "hit"
	StatusMissed  Status = "missed"
	StatusExpired Status = "expired"
)

// Valid reports whether s is a defined status
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusHit, StatusMissed, StatusExpired:
		return true
	}
	return false
}

// Resolved reports whether the status counts toward accuracy
func (s Status) Resolved() bool {
	return s == StatusHit || s == StatusMissed
}

// LeaderStock 테마 대장주
type LeaderStock struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Prediction 테마 예측 레코드 (theme_predictions)
// 저장소 경계에서 한 번 디코딩되며 내부 로직은 필드 형식을 다시 확인하지 않는다.
type Prediction struct {
	ID             int64         `json:"id"`
	ThemeName      string        `json:"theme_name"`
	Category       Category      `json:"category"`
	PredictionDate *time.Time    `json:"prediction_date,omitempty"` // nil: 판정 불가 (항상 active 유지)
	LeaderStocks   []LeaderStock `json:"leader_stocks"`
	Confidence     string        `json:"confidence"`
	Status         Status        `json:"status"`
	EvaluatedAt    *time.Time    `json:"evaluated_at,omitempty"`
	Performance    Performance   `json:"actual_performance,omitempty"`
}

// Codes returns the distinct non-empty leader stock codes in order
func (p Prediction) Codes() []string {
	seen := make(map[string]struct{}, len(p.LeaderStocks))
	codes := make([]string, 0, len(p.LeaderStocks))
	for _, s := range p.LeaderStocks {
		if s.Code == "" {
			continue
		}
		if _, ok := seen[s.Code]; ok {
			continue
		}
		seen[s.Code] = struct{}{}
		codes = append(codes, s.Code)
	}
	return codes
}

// DateKey formats the prediction date as YYYY-MM-DD ("" when absent)
func (p Prediction) DateKey() string {
	if p.PredictionDate == nil {
		return ""
	}
	return p.PredictionDate.Format(DateLayout)
}

// DateLayout is the canonical date format used in keys and storage
const DateLayout = "2006-01-02"

// IndexReturnKey is the reserved performance key holding the group's index return
const IndexReturnKey = "index_return"

// NotAvailable marks a code without evidence in the performance payload
const NotAvailable = "N/A"

// Performance actual_performance payload
// code → 수익률(float64) 또는 "N/A", IndexReturnKey → 지수 수익률
type Performance map[string]interface{}
