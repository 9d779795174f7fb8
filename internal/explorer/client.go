// Package explorer is a client for the Etherscan v2 multichain account API.
package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"walletclinic/internal/fetch"
)

// DefaultBaseURL is the Etherscan v2 endpoint.
const DefaultBaseURL = "https://api.etherscan.io/v2/api"

var (
	// ErrParse is returned when the explorer body is not the expected JSON envelope.
	ErrParse = errors.New("explorer: unparsable response")
	// ErrUnexpectedResult is returned when result is a notice string instead of records.
	ErrUnexpectedResult = errors.New("explorer: unexpected result")
)

// Config holds explorer client settings.
type Config struct {
	BaseURL          string
	APIKey           string
	ChainID          uint64
	Timeout          time.Duration
	Retry            fetch.RetryPolicy
	PageSize         int
	PageDelay        time.Duration
	MaxPages         int
	ResultWindow     int
	TransferPageSize int
}

// Client issues explorer requests with a per-attempt timeout inside a retry loop.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a Client, filling unset fields with defaults.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 8453
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = fetch.DefaultRetryPolicy()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5000
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	if cfg.ResultWindow <= 0 {
		cfg.ResultWindow = 10000
	}
	if cfg.TransferPageSize <= 0 {
		cfg.TransferPageSize = 5000
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// URL builds a request URL for the given query parameters. chainid and apikey
// are always set from the client config.
func (c *Client) URL(params url.Values) string {
	q := url.Values{}
	for key, values := range params {
		q[key] = append([]string(nil), values...)
	}
	q.Set("chainid", strconv.FormatUint(c.cfg.ChainID, 10))
	if c.cfg.APIKey != "" {
		q.Set("apikey", c.cfg.APIKey)
	}
	sep := "?"
	if strings.Contains(c.cfg.BaseURL, "?") {
		sep = "&"
	}
	return c.cfg.BaseURL + sep + q.Encode()
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// attempt performs a single request and decodes the envelope.
func (c *Client) attempt(ctx context.Context, reqURL, action string) (envelope, error) {
	resp, err := fetch.Do(ctx, c.http, fetch.Request{URL: reqURL}, c.cfg.Timeout)
	if err != nil {
		c.logger.Debug("explorer request failed", zap.String("action", action), zap.Error(err))
		return envelope{}, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		c.logger.Debug("explorer parse failed", zap.String("action", action), zap.Int("bytes", len(resp.Body)))
		return envelope{}, fmt.Errorf("%w: %s", ErrParse, action)
	}
	return env, nil
}

// call returns the decoded envelope, retrying transport and parse failures.
func (c *Client) call(ctx context.Context, params url.Values) (envelope, error) {
	var env envelope
	reqURL := c.URL(params)
	action := params.Get("action")

	err := fetch.Retry(ctx, c.cfg.Retry, func(ctx context.Context) error {
		decoded, err := c.attempt(ctx, reqURL, action)
		if err != nil {
			return err
		}
		env = decoded
		return nil
	})
	if err != nil {
		return envelope{}, fmt.Errorf("explorer %s: %w", action, err)
	}
	return env, nil
}

// records decodes the result field as a list. Notice strings in place of a
// list (rate limits, maintenance) are retried like transport failures.
func (c *Client) records(ctx context.Context, params url.Values, out interface{}) error {
	reqURL := c.URL(params)
	action := params.Get("action")

	err := fetch.Retry(ctx, c.cfg.Retry, func(ctx context.Context) error {
		env, err := c.attempt(ctx, reqURL, action)
		if err != nil {
			return err
		}
		result := bytes.TrimSpace(env.Result)
		if len(result) == 0 || bytes.Equal(result, []byte("null")) {
			return json.Unmarshal([]byte("[]"), out)
		}
		if result[0] == '[' {
			if err := json.Unmarshal(result, out); err != nil {
				return fmt.Errorf("%w: %s records: %v", ErrParse, action, err)
			}
			return nil
		}

		var notice string
		_ = json.Unmarshal(result, &notice)
		if isEmptyNotice(env.Message, notice) {
			return json.Unmarshal([]byte("[]"), out)
		}
		return fmt.Errorf("%w: %s: %s %s", ErrUnexpectedResult, action, env.Message, notice)
	})
	if err != nil {
		return fmt.Errorf("explorer %s: %w", action, err)
	}
	return nil
}

func isEmptyNotice(message, notice string) bool {
	text := strings.ToLower(message + " " + notice)
	return strings.Contains(text, "no transactions found") || strings.Contains(text, "no records found")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
