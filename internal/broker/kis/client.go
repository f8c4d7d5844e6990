package kis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"news-trading-bot/internal/logger"
)

// ErrUnavailable marks data the gateway could not produce this cycle (no valid
// price, empty payload). Callers treat it as a transient no-op, not a fault.
var ErrUnavailable = errors.New("kis: data unavailable")

// Params configures the KIS gateway.
type Params struct {
	Mode       string // DRY_RUN or LIVE
	BaseURL    string
	AppKey     string
	AppSecret  string
	CANO       string // account number
	AcntPrdtCd string // account product code
	Exchange   string // order exchange code, e.g. NASD
}

// Client speaks the KIS overseas-stock REST API. Token issue and refresh are
// handled internally; an expired token is renewed before the request is sent
// and never surfaces to callers. The client is driven by the engine's single
// tick goroutine and performs no internal locking.
type Client struct {
	p    Params
	http *resty.Client

	accessToken string
	tokenExpiry time.Time
}

func New(p Params) *Client {
	httpc := resty.New().
		SetBaseURL(p.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json; charset=utf-8")

	return &Client{p: p, http: httpc}
}

func (c *Client) DryRun() bool { return c.p.Mode == "DRY_RUN" }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// ensureToken issues or renews the OAuth token. A minute of slack keeps a
// token from expiring between the check and the request that uses it.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return nil
	}

	var tok tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"grant_type": "client_credentials",
			"appkey":     c.p.AppKey,
			"appsecret":  c.p.AppSecret,
		}).
		SetResult(&tok).
		Post("/oauth2/tokenP")
	if err != nil {
		return fmt.Errorf("kis token request: %w", err)
	}
	if resp.IsError() || tok.AccessToken == "" {
		return fmt.Errorf("kis token request failed: http %d: %s", resp.StatusCode(), resp.String())
	}

	c.accessToken = tok.AccessToken
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = 86400
	}
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	logger.Info(ctx, "KIS access token refreshed", "expires_in_sec", tok.ExpiresIn)
	return nil
}

// request performs one authenticated call. On an auth rejection the token is
// refreshed and the call retried once.
func (c *Client) request(ctx context.Context, method, path, trID string, params map[string]string, body any, headers map[string]string, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		if err := c.ensureToken(ctx); err != nil {
			return err
		}

		req := c.http.R().
			SetContext(ctx).
			SetHeader("authorization", "Bearer "+c.accessToken).
			SetHeader("appkey", c.p.AppKey).
			SetHeader("appsecret", c.p.AppSecret).
			SetHeader("tr_id", trID).
			SetHeader("custtype", "P").
			SetResult(out)
		for k, v := range headers {
			req.SetHeader(k, v)
		}
		if params != nil {
			req.SetQueryParams(params)
		}
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("kis %s %s: %w", method, path, err)
		}
		if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
			// Token went stale server-side; force reissue and retry once.
			c.accessToken = ""
			logger.Warn(ctx, "KIS auth rejected, refreshing token", "status", resp.StatusCode(), "tr_id", trID)
			continue
		}
		if resp.IsError() {
			return fmt.Errorf("kis %s %s: http %d: %s", method, path, resp.StatusCode(), resp.String())
		}
		return nil
	}
	return fmt.Errorf("kis %s %s: auth retry exhausted", method, path)
}

// priceExchangeCode maps the order exchange to the quotation exchange code.
func (c *Client) priceExchangeCode() string {
	switch c.p.Exchange {
	case "NYSE":
		return "NYS"
	case "AMEX":
		return "AMS"
	default:
		return "NAS"
	}
}
