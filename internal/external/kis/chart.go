package kis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/themecast/backend/internal/contracts"
)

const (
	pathStockChart = "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice"
	pathIndexChart = "/uapi/domestic-stock/v1/quotations/inquire-daily-indexchartprice"

	trStockChart = "FHKST03010100" // 국내주식 기간별 시세 (일/주/월/년)
	trIndexChart = "FHKUP03500100" // 국내주식 업종 기간별 시세
)

// ChartRow output2 일별 행 (주식: stck_clpr, 업종: bstp_nmix_prpr)
type ChartRow struct {
	TradeDate  string `json:"stck_bsop_date"`
	ClosePrice string `json:"stck_clpr"`
	IndexClose string `json:"bstp_nmix_prpr"`
}

type chartResponse struct {
	envelope
	Output2 []ChartRow `json:"output2"`
}

// StockDailySeries gets daily closes of a stock in [from, to], most recent first
func (c *Client) StockDailySeries(ctx context.Context, code string, from, to time.Time) (contracts.Series, error) {
	params := url.Values{}
	params.Set("FID_COND_MRKT_DIV_CODE", "J")
	params.Set("FID_INPUT_ISCD", code)
	params.Set("FID_INPUT_DATE_1", from.Format("20060102"))
	params.Set("FID_INPUT_DATE_2", to.Format("20060102"))
	params.Set("FID_PERIOD_DIV_CODE", "D")
	params.Set("FID_ORG_ADJ_PRC", "0") // 수정주가

	var result chartResponse
	if err := c.get(ctx, pathStockChart, trStockChart, params, &result); err != nil {
		return contracts.Series{}, fmt.Errorf("stock chart %s: %w", code, err)
	}
	if err := result.err(); err != nil {
		return contracts.Series{}, fmt.Errorf("stock chart %s: %w", code, err)
	}

	return toSeries(code, result.Output2, func(r ChartRow) string { return r.ClosePrice }), nil
}

// IndexDailySeries gets daily closes of an index (0001 = KOSPI) in [from, to], most recent first
func (c *Client) IndexDailySeries(ctx context.Context, indexCode string, from, to time.Time) (contracts.Series, error) {
	params := url.Values{}
	params.Set("FID_COND_MRKT_DIV_CODE", "U")
	params.Set("FID_INPUT_ISCD", indexCode)
	params.Set("FID_INPUT_DATE_1", from.Format("20060102"))
	params.Set("FID_INPUT_DATE_2", to.Format("20060102"))
	params.Set("FID_PERIOD_DIV_CODE", "D")

	var result chartResponse
	if err := c.get(ctx, pathIndexChart, trIndexChart, params, &result); err != nil {
		return contracts.Series{}, fmt.Errorf("index chart %s: %w", indexCode, err)
	}
	if err := result.err(); err != nil {
		return contracts.Series{}, fmt.Errorf("index chart %s: %w", indexCode, err)
	}

	return toSeries(contracts.IndexSymbol, result.Output2, func(r ChartRow) string { return r.IndexClose }), nil
}

// toSeries converts output2 rows; rows with unparseable dates are dropped,
// unparseable prices become 0 (판정 시 비정상 기준가로 누락 처리).
func toSeries(symbol string, rows []ChartRow, closeOf func(ChartRow) string) contracts.Series {
	s := contracts.Series{Symbol: symbol, Points: make([]contracts.PricePoint, 0, len(rows))}
	for _, r := range rows {
		if r.TradeDate == "" {
			continue // KIS 는 빈 행을 패딩으로 반환하기도 함
		}
		d, err := time.Parse("20060102", r.TradeDate)
		if err != nil {
			continue
		}
		s.Points = append(s.Points, contracts.PricePoint{
			TradeDate: d,
			Close:     parseFloatSafe(closeOf(r)),
		})
	}
	return s
}

func parseFloatSafe(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
