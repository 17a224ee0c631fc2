package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/themecast/backend/internal/contracts"
)

// StockDailySeries fetches daily closes for a stock from the fchart API, most recent first
func (c *Client) StockDailySeries(ctx context.Context, code string, from, to time.Time) (contracts.Series, error) {
	params := url.Values{}
	params.Set("symbol", code)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	body, err := c.fetch(ctx, c.chartURL, "/siseJson.naver", params)
	if err != nil {
		return contracts.Series{}, fmt.Errorf("naver chart %s: %w", code, err)
	}

	points, err := parsePriceResponse(string(body))
	if err != nil {
		return contracts.Series{}, fmt.Errorf("parse naver chart %s: %w", code, err)
	}

	log := c.logger.Zerolog()
	log.Debug().
		Str("stock_code", code).
		Int("count", len(points)).
		Msg("Fetched prices")

	return contracts.Series{Symbol: code, Points: points}, nil
}

// parsePriceResponse parses the siseJson body (single-quoted JSON-ish array).
// 반환 순서는 최신순.
func parsePriceResponse(body string) ([]contracts.PricePoint, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	var points []contracts.PricePoint
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		points = parsePriceJSON(rawData)
	} else {
		points = parsePriceRegex(body)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TradeDate.After(points[j].TradeDate)
	})
	return points, nil
}

// parsePriceJSON parses rows [날짜, 시가, 고가, 저가, 종가, 거래량, ...]
func parsePriceJSON(rawData [][]interface{}) []contracts.PricePoint {
	var points []contracts.PricePoint
	for i, row := range rawData {
		if i == 0 || len(row) < 5 {
			continue // Skip header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue
		}

		points = append(points, contracts.PricePoint{
			TradeDate: tradeDate,
			Close:     toFloat64(row[4]),
		})
	}
	return points
}

var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// parsePriceRegex fallback for bodies that are not valid JSON
func parsePriceRegex(body string) []contracts.PricePoint {
	var points []contracts.PricePoint
	for _, match := range priceRowRe.FindAllStringSubmatch(body, -1) {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}
		closePrice, _ := strconv.ParseFloat(match[5], 64)
		points = append(points, contracts.PricePoint{TradeDate: tradeDate, Close: closePrice})
	}
	return points
}

// toFloat64 converts various types to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		n, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		return n
	default:
		return 0
	}
}
