package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/wonny/themecast/backend/pkg/config"
	"github.com/wonny/themecast/backend/pkg/httputil"
	"github.com/wonny/themecast/backend/pkg/logger"
)

// Client handles communication with KIS (한국투자증권) API
// ⭐ SSOT: KIS API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.KISConfig
	now        func() time.Time

	// Token management
	accessToken string
	tokenExpiry time.Time
	tokenMu     sync.RWMutex
}

// NewClient creates a new KIS API client
func NewClient(cfg config.KISConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		now:        time.Now,
	}
}

// TokenResponse represents the OAuth token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// APIError is a KIS envelope failure (rt_cd != "0")
type APIError struct {
	RtCd  string
	MsgCd string
	Msg1  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("KIS API error rt_cd=%s: %s - %s", e.RtCd, e.MsgCd, e.Msg1)
}

// envelope KIS 공통 응답 헤더
type envelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

func (e envelope) err() error {
	if e.RtCd == "0" {
		return nil
	}
	return &APIError{RtCd: e.RtCd, MsgCd: e.MsgCd, Msg1: e.Msg1}
}

// getToken gets a valid access token, refreshing if necessary
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		token := c.accessToken
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Double-check after acquiring write lock
	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	body := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.cfg.AppKey,
		"appsecret":  c.cfg.AppSecret,
	}

	resp, err := c.httpClient.PostJSON(ctx, c.cfg.BaseURL+"/oauth2/tokenP", body, nil)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response without access_token")
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second) // 1분 여유

	c.logger.WithFields(map[string]interface{}{
		"expires_in": tokenResp.ExpiresIn,
	}).Info("KIS access token refreshed")

	return c.accessToken, nil
}

// get makes an authenticated GET request and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path, trID string, params url.Values, out interface{}) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json; charset=utf-8")
	header.Set("authorization", "Bearer "+token)
	header.Set("appkey", c.cfg.AppKey)
	header.Set("appsecret", c.cfg.AppSecret)
	header.Set("tr_id", trID)
	header.Set("custtype", "P")

	resp, err := c.httpClient.Get(ctx, c.cfg.BaseURL+path+"?"+params.Encode(), header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
