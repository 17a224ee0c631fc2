package prediction

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/pkg/config"
	"github.com/wonny/themecast/backend/pkg/database"
)

func strPtr(s string) *string { return &s }

func TestDecodeLeaderStocks(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []contracts.LeaderStock
		wantErr bool
	}{
		{
			name: "valid",
			raw:  `[{"code":"005930","name":"삼성전자"},{"code":"000660","name":"SK하이닉스"}]`,
			want: []contracts.LeaderStock{{Code: "005930", Name: "삼성전자"}, {Code: "000660", Name: "SK하이닉스"}},
		},
		{
			name: "name defaults to code",
			raw:  `[{"code":" 035420 "}]`,
			want: []contracts.LeaderStock{{Code: "035420", Name: "035420"}},
		},
		{name: "empty", raw: "", want: []contracts.LeaderStock{}},
		{name: "null", raw: "null", want: []contracts.LeaderStock{}},
		{name: "python repr", raw: `[{'code': '005930'}]`, want: []contracts.LeaderStock{}, wantErr: true},
		{name: "object", raw: `{"code":"005930"}`, want: []contracts.LeaderStock{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLeaderStocks(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRow(t *testing.T) {
	date := time.Date(2026, 2, 26, 0, 0, 0, 0, time.FixedZone("KST", 9*60*60))
	r := row{
		ID:             7,
		ThemeName:      strPtr("반도체"),
		Category:       strPtr("short_term"),
		PredictionDate: &date,
		LeaderStocks:   strPtr(`[{"code":"005930","name":"삼성전자"}]`),
		Confidence:     strPtr("high"),
		Status:         "hit",
		Performance:    strPtr(`{"005930": 3.2, "000660": "N/A", "index_return": 1.1}`),
	}

	p := decode(r, zerolog.Nop())

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, contracts.CategoryShortTerm, p.Category)
	assert.Equal(t, contracts.StatusHit, p.Status)
	require.NotNil(t, p.PredictionDate)
	assert.Equal(t, "2026-02-26", p.DateKey())
	assert.Equal(t, []string{"005930"}, p.Codes())
	assert.Equal(t, contracts.Performance{"005930": 3.2, "000660": "N/A", "index_return": 1.1}, p.Performance)
}

func TestDecodeRowDegrades(t *testing.T) {
	r := row{
		ID:           8,
		LeaderStocks: strPtr("not json"),
		Status:       "active",
		Performance:  strPtr("{broken"),
	}

	p := decode(r, zerolog.Nop())

	assert.Nil(t, p.PredictionDate)
	assert.Equal(t, contracts.Category(""), p.Category)
	assert.Empty(t, p.LeaderStocks)
	assert.NotNil(t, p.LeaderStocks)
	assert.Nil(t, p.Performance)
}

func TestBuildWhere(t *testing.T) {
	date := time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC)

	where, args := buildWhere(contracts.PredictionFilter{
		Statuses:       []contracts.Status{contracts.StatusHit, contracts.StatusMissed},
		PredictionDate: &date,
	})
	assert.Contains(t, where, "status = ANY($1)")
	assert.Contains(t, where, "prediction_date = $2::date")
	assert.Equal(t, []interface{}{[]string{"hit", "missed"}, "2026-02-26"}, args)

	where, args = buildWhere(contracts.PredictionFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

// TestRepositoryIntegration runs against a real database when DATABASE_URL is set
func TestRepositoryIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := database.New(config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo := NewRepository(db.Pool, zerolog.Nop())

	_, err = repo.Query(ctx, contracts.PredictionFilter{Statuses: []contracts.Status{contracts.StatusActive}})
	require.NoError(t, err)

	err = repo.Update(ctx, -1, contracts.PredictionUpdate{Status: contracts.StatusExpired, EvaluatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)
}
