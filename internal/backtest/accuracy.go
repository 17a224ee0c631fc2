package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wonny/themecast/backend/internal/contracts"
)

// Aggregator 적중률 집계 (AccuracyAggregator)
type Aggregator struct {
	store contracts.PredictionStore
	log   zerolog.Logger
}

// NewAggregator 새 집계기 생성
func NewAggregator(store contracts.PredictionStore, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		store: store,
		log:   log.With().Str("component", "backtest.accuracy").Logger(),
	}
}

// Report scans hit/missed predictions and computes accuracy
func (a *Aggregator) Report(ctx context.Context) (contracts.AccuracyReport, error) {
	preds, err := a.store.Query(ctx, contracts.PredictionFilter{
		Statuses: []contracts.Status{contracts.StatusHit, contracts.StatusMissed},
	})
	if err != nil {
		return contracts.AccuracyReport{}, fmt.Errorf("query resolved predictions: %w", err)
	}

	report := Aggregate(preds)
	a.log.Info().
		Int("total", report.Overall.Total).
		Int("hit", report.Overall.Hit).
		Float64("accuracy", report.Overall.Accuracy).
		Msg("accuracy report computed")

	return report, nil
}

// Aggregate computes the report over resolved predictions; active and expired are skipped
func Aggregate(preds []contracts.Prediction) contracts.AccuracyReport {
	report := contracts.AccuracyReport{
		ByConfidence: make(map[string]contracts.AccuracyGroup),
		ByCategory:   make(map[string]contracts.AccuracyGroup),
	}

	for _, p := range preds {
		if !p.Status.Resolved() {
			continue
		}
		hit := p.Status == contracts.StatusHit

		report.Overall = tally(report.Overall, hit)
		conf := bucket(p.Confidence)
		report.ByConfidence[conf] = tally(report.ByConfidence[conf], hit)
		cat := bucket(string(p.Category))
		report.ByCategory[cat] = tally(report.ByCategory[cat], hit)
	}

	report.Overall.Accuracy = Accuracy(report.Overall.Hit, report.Overall.Total)
	for k, g := range report.ByConfidence {
		g.Accuracy = Accuracy(g.Hit, g.Total)
		report.ByConfidence[k] = g
	}
	for k, g := range report.ByCategory {
		g.Accuracy = Accuracy(g.Hit, g.Total)
		report.ByCategory[k] = g
	}

	return report
}

// Accuracy hit/total × 100, 소수 첫째 자리 반올림 (total=0 → 0.0)
func Accuracy(hit, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return decimal.NewFromInt(int64(hit)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1).
		InexactFloat64()
}

func tally(g contracts.AccuracyGroup, hit bool) contracts.AccuracyGroup {
	g.Total++
	if hit {
		g.Hit++
	}
	return g
}

func bucket(key string) string {
	if key == "" {
		return contracts.NotAvailable
	}
	return key
}
