package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
)

// maxResponseSize bounds the body read from the service.
const maxResponseSize = 64 << 20

// Client implements ports.SemanticsService over HTTP.
// Every request is a POST of the JSON body to baseURL+endpoint.
type Client struct {
	baseURL  string
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithEndpoint overrides domain.DefaultEndpoint.
func WithEndpoint(path string) ClientOption {
	return func(c *Client) {
		c.endpoint = path
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// WithClientLogger configures a logger for the Client.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a service client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		endpoint: domain.DefaultEndpoint,
		http:     http.DefaultClient,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL is the address requests are posted to.
func (c *Client) URL() string {
	return c.baseURL + c.endpoint
}

// Do posts req and returns the raw response body. Non-2xx statuses are errors.
func (c *Client) Do(ctx context.Context, req domain.Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("posting to semantics service", "url", c.URL(), "action", req.Action.String(), "size", len(body))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("service returned %s", resp.Status)
	}
	return data, nil
}
