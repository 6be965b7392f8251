package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "carequery-go-client"
	maxErrorBody     = 64 << 10
)

// Client is the carequery API entry point. Safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	userAgent string
	obs       *observer
}

// New creates a Client for the API at baseURL (scheme and host, optional path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("carequery: base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("carequery: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("carequery: base URL must be http or https, got %q", baseURL)
	}

	cfg := &clientConfig{timeout: defaultTimeout, userAgent: defaultUserAgent}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   u,
		http:      hc,
		apiKey:    cfg.apiKey,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

// Query asks a question and returns the grounded answer.
func (c *Client) Query(ctx context.Context, req QueryRequest) (res QueryResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, err) }()

	err = c.do(ctx, http.MethodPost, "/api/query", req, &res)
	return res, err
}

// ExampleQueries returns the suggested questions.
func (c *Client) ExampleQueries(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("example_queries", start, err) }()

	var out exampleQueries
	if err = c.do(ctx, http.MethodGet, "/api/example-queries", nil, &out); err != nil {
		return nil, err
	}
	return out.Queries, nil
}

// Health returns the component health. A degraded service answers 503 with a
// health body; that is reported as a status, not an error.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	err = c.do(ctx, http.MethodGet, "/api/health", nil, &hs)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && hs.Status != "" {
		return hs, nil
	}
	return hs, err
}

// Stats returns the index description and vector count.
func (c *Client) Stats(ctx context.Context) (s Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	err = c.do(ctx, http.MethodGet, "/api/stats", nil, &s)
	return s, err
}

// Domains returns the accepted filter values.
func (c *Client) Domains(ctx context.Context) (t Taxonomy, err error) {
	start := time.Now()
	defer func() { c.obs.observe("domains", start, err) }()

	err = c.do(ctx, http.MethodGet, "/api/domains", nil, &t)
	return t, err
}

// Sources returns the catalog of corpus data sources.
func (c *Client) Sources(ctx context.Context) (_ []DataSource, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sources", start, err) }()

	var out dataSources
	err = c.do(ctx, http.MethodGet, "/api/sources", nil, &out)
	return out.Sources, err
}

// do sends a JSON request and decodes the response into out. On a non-2xx
// status it returns *APIError and, for 503 only, still decodes the body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("carequery: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("carequery: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("carequery: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("carequery: decode response: %w", err)
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Code != "" {
		apiErr.Code, apiErr.Message, apiErr.Field, apiErr.Stage = eb.Code, eb.Message, eb.Field, eb.Stage
	} else {
		apiErr.Code = "http_error"
		apiErr.Message = http.StatusText(resp.StatusCode)
		if resp.StatusCode == http.StatusServiceUnavailable && out != nil {
			_ = json.Unmarshal(raw, out)
		}
	}
	return apiErr
}
