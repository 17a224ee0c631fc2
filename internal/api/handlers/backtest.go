package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/contracts"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// AccuracyReporter computes the accuracy report
type AccuracyReporter interface {
	Report(ctx context.Context) (contracts.AccuracyReport, error)
}

// PredictionLister lists predictions for inspection
type PredictionLister interface {
	ListRecent(ctx context.Context, filter contracts.PredictionFilter, limit int) ([]contracts.Prediction, error)
}

// BacktestHandler 판정 결과 조회 API (읽기 전용)
type BacktestHandler struct {
	reporter AccuracyReporter
	lister   PredictionLister
	loc      *time.Location
	log      zerolog.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(reporter AccuracyReporter, lister PredictionLister, loc *time.Location, log zerolog.Logger) *BacktestHandler {
	return &BacktestHandler{
		reporter: reporter,
		lister:   lister,
		loc:      loc,
		log:      log.With().Str("component", "api.backtest").Logger(),
	}
}

// GetAccuracy handles GET /api/backtest/accuracy
func (h *BacktestHandler) GetAccuracy(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Report(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("accuracy report failed")
		respondError(w, http.StatusInternalServerError, "Failed to compute accuracy")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ListPredictions handles GET /api/backtest/predictions?status=hit,missed&date=2026-03-02&limit=50
func (h *BacktestHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := contracts.PredictionFilter{}

	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := contracts.Status(strings.TrimSpace(s))
			if !status.Valid() {
				respondError(w, http.StatusBadRequest, "Invalid status (valid: active, hit, missed, expired)")
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := q.Get("date"); raw != "" {
		d, err := time.ParseInLocation(contracts.DateLayout, raw, h.loc)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date (format: YYYY-MM-DD)")
			return
		}
		filter.PredictionDate = &d
	}

	limit := defaultListLimit
	if raw := q.Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if l > maxListLimit {
			l = maxListLimit
		}
		limit = l
	}

	preds, err := h.lister.ListRecent(r.Context(), filter, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list predictions failed")
		respondError(w, http.StatusInternalServerError, "Failed to list predictions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(preds),
		"predictions": preds,
	})
}
