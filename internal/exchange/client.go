// Package exchange fetches currency rates from the external rate provider.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/logger"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
)

// latestResponse is the provider payload for /latest/{base}
type latestResponse struct {
	Result    string                     `json:"result"`
	BaseCode  string                     `json:"base_code"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	ErrorType string                     `json:"error-type"`
	UpdatedAt int64                      `json:"time_last_update_unix"`
}

// Client talks to an open.er-api.com compatible provider
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	log     *logger.Logger
}

func NewClient(cfg config.ExchangeConfig, log *logger.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = log.RetryableHTTPLogger()

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.ProviderURL, "/"),
		apiKey:  cfg.APIKey,
		log:     log,
	}
}

// LatestRates returns units of each currency per one unit of base
func (c *Client) LatestRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	url := fmt.Sprintf("%s/%s", c.baseURL, base)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build exchange rate request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "exchange rate request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("exchange rate provider returned status %d", resp.StatusCode)
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode exchange rate response")
	}
	if payload.Result != "" && payload.Result != "success" {
		return nil, errors.Newf("exchange rate provider error: %s", payload.ErrorType)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("exchange rate provider returned no rates")
	}

	c.log.WithContext(ctx).Debugw("fetched exchange rates",
		"base", base,
		"count", len(payload.Rates),
		"updated_at", payload.UpdatedAt,
	)
	return payload.Rates, nil
}
