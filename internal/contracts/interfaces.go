package contracts

import (
	"context"
	"time"
)

// SeriesSource 일별 종가 시계열 소스 (KIS, Naver, 캐시)
// 소스 실패(rt_cd 오류, 전송 오류)는 error 로, 데이터 없음은 빈 Points 로 구분한다.
type SeriesSource interface {
	// DailySeries returns closes in [from, to], most recent first.
	// symbol == IndexSymbol denotes the benchmark index.
	DailySeries(ctx context.Context, symbol string, from, to time.Time) (Series, error)
}

// PredictionFilter 예측 조회 조건 (status 집합 + 선택적 예측일)
type PredictionFilter struct {
	Statuses       []Status
	PredictionDate *time.Time
}

// PredictionUpdate 판정 결과 기록
type PredictionUpdate struct {
	Status      Status
	EvaluatedAt time.Time
	Performance Performance
}

// PredictionStore 예측 저장소
type PredictionStore interface {
	Query(ctx context.Context, filter PredictionFilter) ([]Prediction, error)
	Update(ctx context.Context, id int64, update PredictionUpdate) error
}
