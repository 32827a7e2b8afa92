package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"walletlens/internal/config"
	"walletlens/internal/models"
)

// DataSource is everything the analysis pipeline needs from the market data
// provider: the wallet's own transactions plus per-token global context.
type DataSource interface {
	WalletTransactions(ctx context.Context, wallet, chain string, fromTs, toTs int64) ([]models.Transaction, error)
	TokenSwaps(ctx context.Context, tokenAddress string, fromTs, toTs int64) ([]models.Swap, error)
	TokenCandles(ctx context.Context, tokenAddress string, fromTs int64) ([]models.Candle, error)
	TokenState(ctx context.Context, tokenAddress string) (*models.TokenState, error)
}

type Client struct {
	host       string
	httpClient *http.Client
	retry      config.RetryConfig
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, cfg config.MarketConfig) *Client {
	host := strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
		retry:      cfg.Retry,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}

	attempts := c.retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := c.retry.BaseDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if c.retry.MaxDelay > 0 && delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}
		}

		body, err := c.doOnce(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// retryable: transport errors and 5xx/429 responses. 4xx responses are the
// caller's problem and never retried.
func retryable(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) WalletTransactions(ctx context.Context, wallet, chain string, fromTs, toTs int64) ([]models.Transaction, error) {
	if wallet == "" {
		return nil, fmt.Errorf("wallet is required")
	}
	query := url.Values{}
	query.Set("wallet", wallet)
	if chain != "" {
		query.Set("chain", chain)
	}
	if fromTs > 0 {
		query.Set("from_ts", fmt.Sprintf("%d", fromTs))
	}
	if toTs > 0 {
		query.Set("to_ts", fmt.Sprintf("%d", toTs))
	}
	body, err := c.doRequest(ctx, "/v1/wallet/transactions", query)
	if err != nil {
		return nil, err
	}
	var out struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	return out.Transactions, nil
}

func (c *Client) TokenSwaps(ctx context.Context, tokenAddress string, fromTs, toTs int64) ([]models.Swap, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}
	query := url.Values{}
	query.Set("token", tokenAddress)
	if fromTs > 0 {
		query.Set("from_ts", fmt.Sprintf("%d", fromTs))
	}
	if toTs > 0 {
		query.Set("to_ts", fmt.Sprintf("%d", toTs))
	}
	body, err := c.doRequest(ctx, "/v1/token/swaps", query)
	if err != nil {
		return nil, err
	}
	var out struct {
		Swaps []models.Swap `json:"swaps"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse swaps: %w", err)
	}
	return out.Swaps, nil
}

func (c *Client) TokenCandles(ctx context.Context, tokenAddress string, fromTs int64) ([]models.Candle, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}
	query := url.Values{}
	query.Set("token", tokenAddress)
	if fromTs > 0 {
		query.Set("from_ts", fmt.Sprintf("%d", fromTs))
	}
	body, err := c.doRequest(ctx, "/v1/token/candles", query)
	if err != nil {
		return nil, err
	}
	var out struct {
		Candles []models.Candle `json:"candles"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse candles: %w", err)
	}
	return out.Candles, nil
}

func (c *Client) TokenState(ctx context.Context, tokenAddress string) (*models.TokenState, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}
	query := url.Values{}
	query.Set("token", tokenAddress)
	body, err := c.doRequest(ctx, "/v1/token/state", query)
	if err != nil {
		return nil, err
	}
	var state models.TokenState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to parse token state: %w", err)
	}
	return &state, nil
}
