package naver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/themecast/backend/internal/contracts"
)

// IndexDailySeries scrapes sise_index_day pages until the oldest row precedes from.
// 결과는 최신순, [from, to] 범위로 제한된다.
func (c *Client) IndexDailySeries(ctx context.Context, from, to time.Time) (contracts.Series, error) {
	series := contracts.Series{Symbol: contracts.IndexSymbol}
	fromKey, toKey := from.Format("20060102"), to.Format("20060102")

	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("code", c.indexCode)
		params.Set("page", strconv.Itoa(page))

		body, err := c.fetch(ctx, c.baseURL, "/sise/sise_index_day.naver", params)
		if err != nil {
			return contracts.Series{}, fmt.Errorf("naver index page %d: %w", page, err)
		}

		rows, err := parseIndexHTML(body)
		if err != nil {
			return contracts.Series{}, fmt.Errorf("parse naver index page %d: %w", page, err)
		}
		if len(rows) == 0 {
			break
		}

		for _, p := range rows {
			key := p.TradeDate.Format("20060102")
			if key < fromKey || key > toKey {
				continue
			}
			series.Points = append(series.Points, p)
		}

		// 페이지는 최신순: 마지막 행이 from 이전이면 종료
		if rows[len(rows)-1].TradeDate.Format("20060102") < fromKey {
			break
		}
	}

	return series, nil
}

// parseIndexHTML extracts (날짜, 체결가) rows from a sise_index_day page
func parseIndexHTML(html []byte) ([]contracts.PricePoint, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var points []contracts.PricePoint
	doc.Find("table.type_1 tr").Each(func(i int, row *goquery.Selection) {
		dateCell := row.Find("td.date")
		if dateCell.Length() == 0 {
			return
		}

		dateText := strings.TrimSpace(dateCell.Text())
		tradeDate, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}

		closeText := strings.ReplaceAll(strings.TrimSpace(row.Find("td.number_1").First().Text()), ",", "")
		closeVal, err := strconv.ParseFloat(closeText, 64)
		if err != nil {
			return
		}

		points = append(points, contracts.PricePoint{TradeDate: tradeDate, Close: closeVal})
	})

	return points, nil
}
