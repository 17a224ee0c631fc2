package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/contracts"
)

// ErrNotFound is returned when an update targets a missing prediction
var ErrNotFound = errors.New("prediction not found")

const selectColumns = `
	SELECT id, theme_name, category, prediction_date, leader_stocks,
		   confidence, status, evaluated_at, actual_performance
	FROM theme_predictions`

// Repository theme_predictions 저장소
// 행은 여기서 한 번 디코딩되며, 이후 로직은 형식 검증을 반복하지 않는다.
type Repository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool, log zerolog.Logger) *Repository {
	return &Repository{
		pool: pool,
		log:  log.With().Str("component", "prediction.repository").Logger(),
	}
}

// Query 상태 집합 + 선택적 예측일로 조회
func (r *Repository) Query(ctx context.Context, filter contracts.PredictionFilter) ([]contracts.Prediction, error) {
	where, args := buildWhere(filter)
	query := selectColumns + where + `
	ORDER BY prediction_date NULLS LAST, id`

	return r.query(ctx, query, args...)
}

// ListRecent 최근 예측 이력 (최신 예측일 우선)
func (r *Repository) ListRecent(ctx context.Context, filter contracts.PredictionFilter, limit int) ([]contracts.Prediction, error) {
	where, args := buildWhere(filter)
	args = append(args, limit)
	query := selectColumns + where + fmt.Sprintf(`
	ORDER BY prediction_date DESC NULLS LAST, id DESC
	LIMIT $%d`, len(args))

	return r.query(ctx, query, args...)
}

// Update 판정 결과 기록 (status, evaluated_at, actual_performance)
func (r *Repository) Update(ctx context.Context, id int64, update contracts.PredictionUpdate) error {
	perf, err := json.Marshal(update.Performance)
	if err != nil {
		return fmt.Errorf("encode performance: %w", err)
	}

	query := `
		UPDATE theme_predictions
		SET status = $2,
			evaluated_at = $3,
			actual_performance = $4
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(update.Status), update.EvaluatedAt, string(perf))
	if err != nil {
		return fmt.Errorf("update prediction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update prediction %d: %w", id, ErrNotFound)
	}

	return nil
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]contracts.Prediction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var preds []contracts.Prediction
	for rows.Next() {
		var raw row
		if err := rows.Scan(
			&raw.ID, &raw.ThemeName, &raw.Category, &raw.PredictionDate, &raw.LeaderStocks,
			&raw.Confidence, &raw.Status, &raw.EvaluatedAt, &raw.Performance,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		preds = append(preds, decode(raw, r.log))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}

	return preds, nil
}

// buildWhere status = ANY($1) [AND prediction_date = $2]
func buildWhere(filter contracts.PredictionFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	if filter.PredictionDate != nil {
		args = append(args, filter.PredictionDate.Format(contracts.DateLayout))
		conds = append(conds, fmt.Sprintf("prediction_date = $%d::date", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return `
	WHERE ` + strings.Join(conds, " AND "), args
}

// row theme_predictions 원시 행 (nullable 컬럼 포함)
type row struct {
	ID             int64
	ThemeName      *string
	Category       *string
	PredictionDate *time.Time
	LeaderStocks   *string
	Confidence     *string
	Status         string
	EvaluatedAt    *time.Time
	Performance    *string
}
