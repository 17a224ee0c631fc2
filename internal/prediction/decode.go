package prediction

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/contracts"
)

// decode converts a raw row into a Prediction.
// leader_stocks 디코딩 실패는 빈 목록으로 처리한다 (판정 시 expired).
func decode(r row, log zerolog.Logger) contracts.Prediction {
	p := contracts.Prediction{
		ID:          r.ID,
		ThemeName:   deref(r.ThemeName),
		Category:    contracts.Category(strings.TrimSpace(deref(r.Category))),
		Confidence:  strings.TrimSpace(deref(r.Confidence)),
		Status:      contracts.Status(r.Status),
		EvaluatedAt: r.EvaluatedAt,
	}

	if r.PredictionDate != nil {
		d := time.Date(r.PredictionDate.Year(), r.PredictionDate.Month(), r.PredictionDate.Day(), 0, 0, 0, 0, time.UTC)
		p.PredictionDate = &d
	}

	stocks, err := DecodeLeaderStocks(deref(r.LeaderStocks))
	if err != nil {
		log.Warn().
			Err(err).
			Int64("prediction_id", r.ID).
			Msg("malformed leader_stocks, treating as empty")
	}
	p.LeaderStocks = stocks

	if r.Performance != nil && *r.Performance != "" {
		var perf contracts.Performance
		if err := json.Unmarshal([]byte(*r.Performance), &perf); err != nil {
			log.Warn().
				Err(err).
				Int64("prediction_id", r.ID).
				Msg("malformed actual_performance, ignoring")
		} else {
			p.Performance = perf
		}
	}

	return p
}

// DecodeLeaderStocks parses the serialized leader stock list.
// 빈 값은 빈 목록, 형식 오류는 빈 목록 + error.
func DecodeLeaderStocks(raw string) ([]contracts.LeaderStock, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []contracts.LeaderStock{}, nil
	}

	var stocks []contracts.LeaderStock
	if err := json.Unmarshal([]byte(raw), &stocks); err != nil {
		return []contracts.LeaderStock{}, err
	}

	out := make([]contracts.LeaderStock, 0, len(stocks))
	for _, s := range stocks {
		s.Code = strings.TrimSpace(s.Code)
		if s.Name == "" {
			s.Name = s.Code
		}
		out = append(out, s)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
