package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultUserAgent = "MoneyTides/1.0"

type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

type Interface interface {
	Get(ctx context.Context, path string) (*Response, error)
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	GetFunc    func(ctx context.Context, path string) (*Response, error)
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

var _ Interface = (*Client)(nil)

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

// Get fetches path, relative to the base URL when one is set, and reads the
// whole body. A non-2xx status is not an error here; callers decide.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, path)
	}

	fullURL := path
	if c.baseURL != "" {
		fullURL = c.baseURL + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn().Err(err).Str("url", fullURL).Msg("Error closing response body")
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	log.Trace().
		Str("url", fullURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("HTTP GET")

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
