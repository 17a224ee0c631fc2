package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/themecast/backend/pkg/config"
	"github.com/wonny/themecast/backend/pkg/httputil"
	"github.com/wonny/themecast/backend/pkg/logger"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string // finance.naver.com (지수 일별 시세 HTML)
	chartURL   string // fchart.stock.naver.com (종목 일별 시세)
	indexCode  string // KOSPI, KOSDAQ
	maxPages   int
}

// NewClient creates a new Naver Finance client
func NewClient(cfg config.NaverConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		chartURL:   cfg.ChartURL,
		indexCode:  "KOSPI",
		maxPages:   20,
	}
}

// fetch performs a GET with browser-like headers and returns the body
func (c *Client) fetch(ctx context.Context, base, path string, params url.Values) ([]byte, error) {
	fullURL := base + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Get(ctx, fullURL, header)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
