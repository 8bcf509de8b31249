// Package backend is the HTTP client for the execution backend: it fetches
// the node catalog and submits serialized graphs for execution.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
	"github.com/specialistvlad/blueprintgo/internal/graph"
	"resty.dev/v3"
)

const (
	catalogPath = "/api/nodes"
	executePath = "/api/execute"

	defaultTimeout = 30 * time.Second
)

// ErrTransport wraps every failure to reach the backend or get a successful
// response from it.
var ErrTransport = errors.New("backend transport error")

// Client talks to one execution backend.
type Client struct {
	http    *resty.Client
	baseURL string
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *resty.Client) { c.SetHeader(key, value) }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(hc)
	}
	return &Client{http: hc, baseURL: baseURL}
}

// BaseURL returns the backend root the client was built for.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchCatalog downloads the node catalog. It implements catalog.Source.
func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.NodeRecord, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Fetching node catalog.", "url", c.baseURL+catalogPath)

	var records []catalog.NodeRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&records).
		Get(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTransport, catalogPath, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: GET %s: status %d: %s", ErrTransport, catalogPath, resp.StatusCode(), resp.String())
	}

	logger.Debug("Node catalog fetched.", "node_types", len(records))
	return records, nil
}

// Execute submits graphs for execution. Only the status of the response is
// inspected; results arrive over the live channel.
func (c *Client) Execute(ctx context.Context, sub graph.Submission) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Posting graphs for execution.", "graphs", len(sub.Graphs))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sub).
		Post(executePath)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrTransport, executePath, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: POST %s: status %d: %s", ErrTransport, executePath, resp.StatusCode(), resp.String())
	}

	logger.Debug("Execution request accepted.", "status", resp.StatusCode())
	return nil
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}
