package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/wonny/themecast/backend/pkg/logger"
)

// Client is an HTTP client wrapper with rate limiting, retry and logging
// ⭐ SSOT: 외부 시세 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	opts       Options
}

// Options configures the client
type Options struct {
	Timeout        time.Duration
	RequestsPerSec int
	MaxRetries     uint64        // 전송 실패 / 5xx / 429 에 한해 재시도
	InitialDelay   time.Duration // 첫 재시도 대기
	MaxElapsed     time.Duration // 재시도 총 한도
}

// DefaultOptions returns the options used for market data sources
func DefaultOptions() Options {
	return Options{
		Timeout:        30 * time.Second,
		RequestsPerSec: 15,
		MaxRetries:     2,
		InitialDelay:   500 * time.Millisecond,
		MaxElapsed:     10 * time.Second,
	}
}

// New creates a new HTTP client
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(opts Options, log *logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		logger:     log,
		opts:       opts,
	}
}

// StatusError is returned when the final attempt answered with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// Get performs a GET request with optional headers
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	return c.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		copyHeader(req.Header, header)
		return req, nil
	})
}

// PostJSON performs a POST request with a JSON body
func (c *Client) PostJSON(ctx context.Context, url string, data interface{}, header http.Header) (*http.Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return c.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		copyHeader(req.Header, header)
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		return req, nil
	})
}

// Do executes a request built by newReq, rebuilding it on every attempt.
// The caller owns the body of a successful (2xx) response.
func (c *Client) Do(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	attempt := 0
	start := time.Now()

	operation := func() error {
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit wait failed: %w", err))
		}

		req, err := newReq()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		if r.StatusCode >= 200 && r.StatusCode < 300 {
			resp = r
			return nil
		}

		body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
		r.Body.Close()
		statusErr := &StatusError{StatusCode: r.StatusCode, Body: string(body)}

		if IsRetryableStatus(r.StatusCode) {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	notify := func(err error, delay time.Duration) {
		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
		}).WithError(err).Warn("Retrying HTTP request")
	}

	if err := backoff.RetryNotify(operation, c.policy(ctx), notify); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"attempts": attempt,
			"duration": time.Since(start).String(),
		}).WithError(err).Error("HTTP request failed")
		return nil, err
	}

	return resp, nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.opts.InitialDelay > 0 {
		b.InitialInterval = c.opts.InitialDelay
	}
	if c.opts.MaxElapsed > 0 {
		b.MaxElapsedTime = c.opts.MaxElapsed
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, c.opts.MaxRetries), ctx)
}

// IsRetryableStatus reports whether a status code is worth retrying
func IsRetryableStatus(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
