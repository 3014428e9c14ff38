// Package azdo implements the document source over the Azure DevOps REST API.
package azdo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/worklens/internal/domain"
)

const (
	apiVersion = "7.1"

	defaultTimeout      = 30 * time.Second
	defaultRate         = 8.0 // proactive throttle, requests per second
	defaultDetailFanout = 10
	defaultClosedWindow = 14 * 24 * time.Hour
)

// Config holds the upstream provider settings.
type Config struct {
	// BaseURL is the API root, e.g. https://dev.azure.com.
	BaseURL string
	// PAT is the personal access token used as basic-auth password.
	PAT string
	// RatePerSecond caps outgoing request rate across all fetches.
	RatePerSecond float64
	// DetailFanout bounds concurrent per-record detail fetches.
	DetailFanout int
	// ClosedWindow is how far back completed records are still fetched,
	// so they get one final refresh before aging out of the index.
	ClosedWindow time.Duration
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Client is a thin REST client with PAT auth and proactive rate limiting.
type Client struct {
	http         *http.Client
	baseURL      string
	pat          string
	limiter      *rate.Limiter
	detailFanout int
	closedWindow time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewClient creates an upstream API client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = defaultRate
	}
	fanout := cfg.DetailFanout
	if fanout <= 0 {
		fanout = defaultDetailFanout
	}
	window := cfg.ClosedWindow
	if window <= 0 {
		window = defaultClosedWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:         &http.Client{Timeout: timeout},
		baseURL:      cfg.BaseURL,
		pat:          cfg.PAT,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		detailFanout: fanout,
		closedWindow: window,
		logger:       logger,
		now:          time.Now,
	}
}

// listEnvelope is the standard {"count": N, "value": [...]} list wrapper.
type listEnvelope[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth("", c.pat)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp)
		return fmt.Errorf("%s %s: retry after %s: %w", method, path, retryAfter, domain.ErrRateLimited)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s: %w",
			method, path, resp.StatusCode, string(snippet), domain.ErrSource)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w: %w", method, path, domain.ErrSource, err)
	}
	return nil
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Minute
}
