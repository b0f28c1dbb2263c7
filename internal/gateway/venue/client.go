package venue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portsync/internal/config"
	"portsync/internal/logger"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	ordersPageLimit = 500
	maxBarPages     = 20
)

// Client talks to the brokerage REST API. All calls apply bounded retries
// with exponential backoff for transient failures; 4xx rejections surface
// immediately.
type Client struct {
	tradingURL   string
	dataURL      string
	keyID        string
	secretKey    string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
}

// NewClient constructs a venue client from configuration.
func NewClient(cfg config.VenueConfig) (*Client, error) {
	trading := strings.TrimRight(strings.TrimSpace(cfg.TradingURL), "/")
	if trading == "" {
		return nil, fmt.Errorf("venue.trading_url cannot be empty")
	}
	data := strings.TrimRight(strings.TrimSpace(cfg.DataURL), "/")
	if data == "" {
		return nil, fmt.Errorf("venue.data_url cannot be empty")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backoff := time.Duration(cfg.RetryBackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	perSec := cfg.RatePerSecond
	if perSec <= 0 {
		perSec = 5
	}
	return &Client{
		tradingURL:   trading,
		dataURL:      data,
		keyID:        strings.TrimSpace(cfg.KeyID),
		secretKey:    strings.TrimSpace(cfg.SecretKey),
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
		limiter:      rate.NewLimiter(rate.Limit(perSec), perSec),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetPositions lists all open positions for the authenticated account.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	body, err := c.doWithRetry(ctx, c.tradingURL+"/v2/positions")
	if err != nil {
		return nil, err
	}
	var out []Position
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding positions failed: %w", err)
	}
	return out, nil
}

// GetOrders lists orders placed within the window, any status, newest last.
func (c *Client) GetOrders(ctx context.Context, window OrderWindow) ([]Order, error) {
	query := url.Values{}
	query.Set("status", "all")
	query.Set("limit", fmt.Sprintf("%d", ordersPageLimit))
	query.Set("direction", "asc")
	if !window.After.IsZero() {
		query.Set("after", window.After.UTC().Format(time.RFC3339))
	}
	if !window.Until.IsZero() {
		query.Set("until", window.Until.UTC().Format(time.RFC3339))
	}
	body, err := c.doWithRetry(ctx, c.tradingURL+"/v2/orders?"+query.Encode())
	if err != nil {
		return nil, err
	}
	var out []Order
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding orders failed: %w", err)
	}
	// Keep the venue's own payload per order for the ledger's raw column.
	for i, raw := range gjson.ParseBytes(body).Array() {
		if i >= len(out) {
			break
		}
		out[i].Raw = []byte(raw.Raw)
	}
	return out, nil
}

// GetInstrument fetches venue metadata for symbol. A venue-side miss is
// ErrSymbolNotFound, not an APIError.
func (c *Client) GetInstrument(ctx context.Context, symbol string) (Instrument, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Instrument{}, fmt.Errorf("symbol is required")
	}
	body, err := c.doWithRetry(ctx, c.tradingURL+"/v2/assets/"+url.PathEscape(symbol))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return Instrument{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return Instrument{}, err
	}
	var out Instrument
	if err := json.Unmarshal(body, &out); err != nil {
		return Instrument{}, fmt.Errorf("decoding instrument failed: %w", err)
	}
	return out, nil
}

// GetDailyBars fetches daily bars for symbol over [start, end], following
// pagination tokens.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	var bars []Bar
	pageToken := ""
	for page := 0; page < maxBarPages; page++ {
		query := url.Values{}
		query.Set("timeframe", "1Day")
		query.Set("start", start.UTC().Format(time.RFC3339))
		query.Set("end", end.UTC().Format(time.RFC3339))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", c.dataURL, url.PathEscape(symbol), query.Encode())
		body, err := c.doWithRetry(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		var resp struct {
			Bars          []Bar   `json:"bars"`
			NextPageToken *string `json:"next_page_token"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decoding bars failed: %w", err)
		}
		bars = append(bars, resp.Bars...)
		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			return bars, nil
		}
		pageToken = *resp.NextPageToken
	}
	logger.Warnf("venue: bar pagination for %s stopped after %d pages", symbol, maxBarPages)
	return bars, nil
}

// GetAccount fetches the venue-side account snapshot.
func (c *Client) GetAccount(ctx context.Context) (Account, error) {
	body, err := c.doWithRetry(ctx, c.tradingURL+"/v2/account")
	if err != nil {
		return Account{}, err
	}
	var out Account
	if err := json.Unmarshal(body, &out); err != nil {
		return Account{}, fmt.Errorf("decoding account failed: %w", err)
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.keyID != "" {
		req.Header.Set("APCA-API-KEY-ID", c.keyID)
		req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		parsed := gjson.ParseBytes(body)
		msg := parsed.Get("message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       int(parsed.Get("code").Int()),
			Message:    msg,
			Body:       body,
		}
	}
	return body, nil
}

// doWithRetry performs a GET with exponential backoff and jitter. Network
// errors and retryable API errors are attempted up to maxRetries extra
// times; everything else surfaces immediately.
func (c *Client) doWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			logger.Debugf("venue: retrying request attempt=%d backoff=%s endpoint=%s", attempt, jitter, endpoint)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}
			backoff *= 2
		}

		body, err := c.doRequest(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.IsRetryable() {
			return nil, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("venue request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}
