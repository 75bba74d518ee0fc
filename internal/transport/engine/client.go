// Package engine is the HTTP client of the search engine API.
package engine

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

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/search"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

const docsPath = "/api/docs"

// Client talks to the search engine over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the engine client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration // 0 = no timeout
	HTTPClient *http.Client  // optional, overrides Timeout
	Logger     *zap.Logger
}

// NewClient creates an engine client. The base URL must be an absolute http(s) URL.
func NewClient(cfg *Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: engine base url %q", domain.ErrConfig, cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}

	return &Client{baseURL: base, apiKey: cfg.APIKey, http: hc, logger: l}, nil
}

// BaseURL returns the normalized engine address.
func (c *Client) BaseURL() string { return c.baseURL }

// Search runs the query against GET /api/docs and annotates the response with
// the client-measured round trip, body read included.
func (c *Client) Search(ctx context.Context, q string) (search.ClientResponse, error) {
	endpoint := c.baseURL + docsPath + "?" + url.Values{"query": {q}}.Encode()

	start := time.Now()
	status, body, err := c.do(ctx, "search", http.MethodGet, endpoint, nil)
	elapsed := time.Since(start)
	if err != nil {
		return search.ClientResponse{}, err
	}
	if status != http.StatusOK {
		c.record("search", "query_error", elapsed)
		return search.ClientResponse{}, &domain.QueryError{Status: status, Body: string(body)}
	}

	resp, err := decodeResponse(body)
	if err != nil {
		c.record("search", "parse_error", elapsed)
		return search.ClientResponse{}, err
	}
	c.record("search", "success", elapsed)

	return search.ClientResponse{
		EngineResponse: resp,
		ClientMS:       float64(elapsed.Microseconds()) / 1000,
	}, nil
}

// InsertDocs posts a batch of documents and returns the engine acknowledgement text.
func (c *Client) InsertDocs(ctx context.Context, docs []search.Doc) (string, error) {
	payload, err := json.Marshal(search.InsertRequest{Documents: docs})
	if err != nil {
		return "", fmt.Errorf("marshal documents: %w", err)
	}
	return c.expectOK(ctx, "insert", http.MethodPost, c.baseURL+docsPath, payload)
}

// DeleteDocs removes every document from the engine index.
func (c *Client) DeleteDocs(ctx context.Context) (string, error) {
	return c.expectOK(ctx, "delete", http.MethodDelete, c.baseURL+docsPath, nil)
}

// Ping checks that the engine answers on its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.expectOK(ctx, "ping", http.MethodGet, c.baseURL+"/", nil)
	return err
}

func (c *Client) expectOK(ctx context.Context, op, method, endpoint string, payload []byte) (string, error) {
	start := time.Now()
	status, body, err := c.do(ctx, op, method, endpoint, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		c.record(op, "query_error", time.Since(start))
		return "", &domain.QueryError{Status: status, Body: string(body)}
	}
	c.record(op, "success", time.Since(start))
	return string(body), nil
}

// do performs the request and reads the full body. Transport failures become NetworkError.
func (c *Client) do(ctx context.Context, op, method, endpoint string, payload []byte) (int, []byte, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(op, "network_error", time.Since(start))
		c.logger.Debug("engine request failed", zap.String("op", op), zap.Error(err))
		return 0, nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(op, "network_error", time.Since(start))
		return 0, nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	return resp.StatusCode, body, nil
}

func (c *Client) record(op, status string, d time.Duration) {
	metrics.EngineClientRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.EngineClientRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// wireResponse mirrors search.EngineResponse with pointers to detect missing fields.
type wireResponse struct {
	Q         *string       `json:"q"`
	ElapsedMS *float64      `json:"elapsed_ms"`
	Count     *int          `json:"count"`
	Hits      *[]search.Hit `json:"hits"`
}

// decodeResponse checks the body against the engine contract.
func decodeResponse(body []byte) (search.EngineResponse, error) {
	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return search.EngineResponse{}, &domain.ParseError{Err: err}
	}
	switch {
	case w.Hits == nil:
		return search.EngineResponse{}, &domain.ParseError{Err: errors.New("missing field \"hits\"")}
	case w.ElapsedMS == nil:
		return search.EngineResponse{}, &domain.ParseError{Err: errors.New("missing field \"elapsed_ms\"")}
	}

	resp := search.EngineResponse{
		ElapsedMS: *w.ElapsedMS,
		Count:     w.Count,
		Hits:      *w.Hits,
	}
	if w.Q != nil {
		resp.Q = *w.Q
	}
	return resp, nil
}
