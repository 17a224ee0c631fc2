package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/contracts"
)

// GroupSummary 그룹별 조회 결과 요약
type GroupSummary struct {
	Key         contracts.GroupKey
	IndexReturn float64
	Requested   int      // 요청 종목 수
	Evidenced   int      // 수익률 확보 종목 수
	Missing     []string // 수익률 미확보 종목
	Predictions int
}

// Outcome 예측별 판정 및 기록 결과
type Outcome struct {
	Prediction contracts.Prediction
	Verdict    Verdict
	Written    bool
	WriteErr   error
}

// RunResult 배치 실행 결과
type RunResult struct {
	RunID    string
	Force    bool
	DryRun   bool
	Groups   []GroupSummary
	Outcomes []Outcome
	Counts   map[contracts.Status]int
	Failed   int // 기록 실패 건수
}

func newRunResult(force, dryRun bool) *RunResult {
	return &RunResult{
		RunID:  uuid.New().String(),
		Force:  force,
		DryRun: dryRun,
		Counts: map[contracts.Status]int{
			contracts.StatusHit:     0,
			contracts.StatusMissed:  0,
			contracts.StatusExpired: 0,
			contracts.StatusActive:  0,
		},
	}
}

// Tally formats the status counts as a single line
func (r *RunResult) Tally() string {
	return fmt.Sprintf("hit=%d, missed=%d, expired=%d, active=%d",
		r.Counts[contracts.StatusHit],
		r.Counts[contracts.StatusMissed],
		r.Counts[contracts.StatusExpired],
		r.Counts[contracts.StatusActive],
	)
}

// Coordinator 그룹 단위 조회 + 판정 + 기록 (BatchCoordinator)
type Coordinator struct {
	store   contracts.PredictionStore
	fetcher *Fetcher
	engine  *Engine
	policy  Policy
	now     func() time.Time
	log     zerolog.Logger
}

// NewCoordinator 새 배치 조정기 생성 (now == nil 이면 time.Now)
func NewCoordinator(
	store contracts.PredictionStore,
	fetcher *Fetcher,
	engine *Engine,
	policy Policy,
	now func() time.Time,
	log zerolog.Logger,
) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		store:   store,
		fetcher: fetcher,
		engine:  engine,
		policy:  policy,
		now:     now,
		log:     log.With().Str("component", "backtest.coordinator").Logger(),
	}
}

// Sweep evaluates every active prediction (scheduled run)
func (c *Coordinator) Sweep(ctx context.Context, dryRun bool) (*RunResult, error) {
	preds, err := c.store.Query(ctx, contracts.PredictionFilter{
		Statuses: []contracts.Status{contracts.StatusActive},
	})
	if err != nil {
		return nil, fmt.Errorf("query active predictions: %w", err)
	}

	c.log.Info().Int("predictions", len(preds)).Bool("dry_run", dryRun).Msg("active sweep started")
	return c.Run(ctx, preds, false, dryRun)
}

// Reevaluate re-judges hit/missed predictions of one date, bypassing maturity
func (c *Coordinator) Reevaluate(ctx context.Context, date time.Time, dryRun bool) (*RunResult, error) {
	preds, err := c.store.Query(ctx, contracts.PredictionFilter{
		Statuses:       []contracts.Status{contracts.StatusHit, contracts.StatusMissed},
		PredictionDate: &date,
	})
	if err != nil {
		return nil, fmt.Errorf("query predictions for %s: %w", date.Format(contracts.DateLayout), err)
	}

	c.log.Info().
		Str("date", date.Format(contracts.DateLayout)).
		Int("predictions", len(preds)).
		Bool("dry_run", dryRun).
		Msg("re-evaluation started")
	return c.Run(ctx, preds, true, dryRun)
}

type group struct {
	key   contracts.GroupKey
	date  time.Time
	codes []string
	preds []contracts.Prediction
}

// Run groups predictions by (date, category), fetches once per group and
// judges every member against the same window. 기록 실패는 로그 후 계속 진행.
func (c *Coordinator) Run(ctx context.Context, preds []contracts.Prediction, force, dryRun bool) (*RunResult, error) {
	result := newRunResult(force, dryRun)
	groups, undated := partition(preds)
	log := c.log.With().Str("run_id", result.RunID).Logger()

	// 예측일 없는 예측은 조회 없이 판정 (항상 active)
	for _, p := range undated {
		c.record(ctx, result, p, c.engine.Evaluate(p, contracts.ReturnWindow{}, force))
	}

	for _, g := range groups {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		window := c.fetch(ctx, g)
		result.Groups = append(result.Groups, summarize(g, window))

		for _, p := range g.preds {
			c.record(ctx, result, p, c.engine.Evaluate(p, window, force))
		}
	}

	log.Info().
		Int("groups", len(groups)).
		Int("predictions", len(preds)).
		Int("write_failures", result.Failed).
		Str("tally", result.Tally()).
		Msg("batch completed")

	return result, nil
}

// fetch 그룹당 정확히 한 번 조회 (today: 당일, 그 외: 기간)
func (c *Coordinator) fetch(ctx context.Context, g *group) contracts.ReturnWindow {
	window := contracts.ReturnWindow{Key: g.key}

	if g.key.Category.IsDaily() {
		window.Returns = c.fetcher.FetchDailyReturns(ctx, g.codes, g.date)
		window.IndexReturn = c.fetcher.FetchDailyIndexReturn(ctx, g.date)
		return window
	}

	end := g.date.AddDate(0, 0, c.policy.WindowDays(g.key.Category))
	window.Returns = c.fetcher.FetchWindowReturns(ctx, g.codes, g.date, end)
	window.IndexReturn = c.fetcher.FetchWindowIndexReturn(ctx, g.date, end)
	return window
}

func (c *Coordinator) record(ctx context.Context, result *RunResult, p contracts.Prediction, v Verdict) {
	result.Counts[v.Status]++
	out := Outcome{Prediction: p, Verdict: v}

	if v.Terminal() && !result.DryRun {
		err := c.store.Update(ctx, p.ID, contracts.PredictionUpdate{
			Status:      v.Status,
			EvaluatedAt: c.now(),
			Performance: v.Performance,
		})
		if err != nil {
			result.Failed++
			out.WriteErr = err
			c.log.Error().
				Err(err).
				Str("run_id", result.RunID).
				Int64("prediction_id", p.ID).
				Str("status", string(v.Status)).
				Msg("failed to write verdict")
		} else {
			out.Written = true
		}
	}

	result.Outcomes = append(result.Outcomes, out)
}

// partition 예측을 (예측일, 카테고리)로 묶는다. 그룹 순서는 키 정렬.
func partition(preds []contracts.Prediction) ([]*group, []contracts.Prediction) {
	byKey := make(map[contracts.GroupKey]*group)
	seen := make(map[contracts.GroupKey]map[string]struct{})
	var undated []contracts.Prediction

	for _, p := range preds {
		if p.PredictionDate == nil {
			undated = append(undated, p)
			continue
		}

		key := contracts.GroupKey{Date: p.DateKey(), Category: p.Category}
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, date: *p.PredictionDate}
			byKey[key] = g
			seen[key] = make(map[string]struct{})
		}
		g.preds = append(g.preds, p)

		for _, code := range p.Codes() {
			if _, dup := seen[key][code]; dup {
				continue
			}
			seen[key][code] = struct{}{}
			g.codes = append(g.codes, code)
		}
	}

	groups := make([]*group, 0, len(byKey))
	for _, g := range byKey {
		sort.Strings(g.codes)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].key.Date != groups[j].key.Date {
			return groups[i].key.Date < groups[j].key.Date
		}
		return groups[i].key.Category < groups[j].key.Category
	})

	return groups, undated
}

func summarize(g *group, window contracts.ReturnWindow) GroupSummary {
	s := GroupSummary{
		Key:         g.key,
		IndexReturn: window.IndexReturn,
		Requested:   len(g.codes),
		Predictions: len(g.preds),
	}
	for _, code := range g.codes {
		if window.Lookup(code).OK {
			s.Evidenced++
		} else {
			s.Missing = append(s.Missing, code)
		}
	}
	return s
}
