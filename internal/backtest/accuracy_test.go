package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/themecast/backend/internal/contracts"
)

func TestAggregateExcludesUnresolved(t *testing.T) {
	preds := []contracts.Prediction{
		{Status: contracts.StatusHit, Confidence: "high", Category: contracts.CategoryToday},
		{Status: contracts.StatusHit, Confidence: "high", Category: contracts.CategoryShortTerm},
		{Status: contracts.StatusMissed, Confidence: "medium", Category: contracts.CategoryToday},
		{Status: contracts.StatusActive, Confidence: "high", Category: contracts.CategoryToday},
		{Status: contracts.StatusExpired, Confidence: "low", Category: contracts.CategoryLongTerm},
	}

	report := Aggregate(preds)

	assert.Equal(t, contracts.AccuracyGroup{Total: 3, Hit: 2, Accuracy: 66.7}, report.Overall)
	assert.Equal(t, map[string]contracts.AccuracyGroup{
		"high":   {Total: 2, Hit: 2, Accuracy: 100.0},
		"medium": {Total: 1, Hit: 0, Accuracy: 0.0},
	}, report.ByConfidence)
	assert.Equal(t, map[string]contracts.AccuracyGroup{
		"today":      {Total: 2, Hit: 1, Accuracy: 50.0},
		"short_term": {Total: 1, Hit: 1, Accuracy: 100.0},
	}, report.ByCategory)
}

func TestAggregateMissingKeysUseSentinel(t *testing.T) {
	report := Aggregate([]contracts.Prediction{
		{Status: contracts.StatusHit},
		{Status: contracts.StatusMissed, Confidence: "low"},
	})

	assert.Equal(t, contracts.AccuracyGroup{Total: 1, Hit: 1, Accuracy: 100.0}, report.ByConfidence[contracts.NotAvailable])
	assert.Equal(t, contracts.AccuracyGroup{Total: 2, Hit: 1, Accuracy: 50.0}, report.ByCategory[contracts.NotAvailable])
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)
	assert.Equal(t, contracts.AccuracyGroup{}, report.Overall)
	assert.Empty(t, report.ByConfidence)
	assert.Empty(t, report.ByCategory)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		hit, total int
		want       float64
	}{
		{0, 0, 0.0},
		{2, 3, 66.7},
		{1, 3, 33.3},
		{1, 8, 12.5},
		{1, 16, 6.3},
		{7, 7, 100.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Accuracy(tt.hit, tt.total), "%d/%d", tt.hit, tt.total)
	}
}

func TestAggregatorReportQueriesResolved(t *testing.T) {
	store := &fakeStore{preds: []contracts.Prediction{
		{Status: contracts.StatusHit, Confidence: "high", Category: contracts.CategoryToday},
		{Status: contracts.StatusHit, Confidence: "high", Category: contracts.CategoryToday},
		{Status: contracts.StatusMissed, Confidence: "high", Category: contracts.CategoryToday},
		{Status: contracts.StatusActive, Confidence: "high", Category: contracts.CategoryToday},
	}}

	report, err := NewAggregator(store, nopLog).Report(context.Background())
	require.NoError(t, err)

	require.Len(t, store.filters, 1)
	assert.ElementsMatch(t, []contracts.Status{contracts.StatusHit, contracts.StatusMissed}, store.filters[0].Statuses)
	assert.Equal(t, 3, report.Overall.Total)
	assert.Equal(t, 2, report.Overall.Hit)
	assert.Equal(t, 66.7, report.Overall.Accuracy)

	_, err = NewAggregator(&fakeStore{queryErr: errors.New("down")}, nopLog).Report(context.Background())
	assert.Error(t, err)
}
