// Package prices fetches the USD quote snapshot used for a report.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"walletclinic/internal/fetch"
	"walletclinic/internal/model"
)

// DefaultURL is the CoinGecko simple price endpoint.
const DefaultURL = "https://api.coingecko.com/api/v3/simple/price"

const (
	ethID  = "ethereum"
	usdcID = "usd-coin"
)

// Config holds price client settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Retry   fetch.RetryPolicy
}

// Client fetches quotes. Quote never fails: it falls back to the default quote.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 9 * time.Second
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = fetch.DefaultRetryPolicy()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// URL returns the price request URL.
func (c *Client) URL() string {
	q := url.Values{}
	q.Set("ids", ethID+","+usdcID)
	q.Set("vs_currencies", "usd")
	sep := "?"
	if strings.Contains(c.cfg.URL, "?") {
		sep = "&"
	}
	return c.cfg.URL + sep + q.Encode()
}

// Fetch returns the live quote or an error after all retries.
func (c *Client) Fetch(ctx context.Context) (model.PriceQuote, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		header.Set("x-cg-demo-api-key", c.cfg.APIKey)
		header.Set("x-cg-pro-api-key", c.cfg.APIKey)
	}

	var quote model.PriceQuote
	err := fetch.Retry(ctx, c.cfg.Retry, func(ctx context.Context) error {
		resp, err := fetch.Do(ctx, c.http, fetch.Request{URL: c.URL(), Header: header}, c.cfg.Timeout)
		if err != nil {
			return err
		}
		parsed, err := parseQuote(resp.Body)
		if err != nil {
			return err
		}
		quote = parsed
		return nil
	})
	if err != nil {
		return model.PriceQuote{}, fmt.Errorf("fetch prices: %w", err)
	}
	return quote, nil
}

// Quote returns the live quote, or the default quote and degraded=true.
func (c *Client) Quote(ctx context.Context) (model.PriceQuote, bool) {
	quote, err := c.Fetch(ctx)
	if err != nil {
		c.logger.Warn("price quote degraded to default", zap.Error(err))
		return model.DefaultPriceQuote(), true
	}
	return quote, false
}

func parseQuote(body []byte) (model.PriceQuote, error) {
	var payload map[string]struct {
		USD *float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.PriceQuote{}, fmt.Errorf("parse prices: %w", err)
	}

	quote := model.DefaultPriceQuote()
	eth, ok := payload[ethID]
	if !ok || eth.USD == nil {
		return model.PriceQuote{}, fmt.Errorf("parse prices: missing %s", ethID)
	}
	quote.EthUSD = *eth.USD
	if usdc, ok := payload[usdcID]; ok && usdc.USD != nil {
		quote.UsdcUSD = *usdc.USD
	}
	return quote, nil
}
