package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Interface interface {
	Get(ctx context.Context, path string, header http.Header) (*Response, error)
	PostForm(ctx context.Context, path string, form url.Values, header http.Header) (*Response, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	GetFunc    func(ctx context.Context, path string, header http.Header) (*Response, error)
}

var _ Interface = (*Client)(nil)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RetryDelay is the first backoff delay; it doubles on every retry.
	RetryDelay time.Duration
	// RequestsPerSecond paces every attempt, retries included. Zero means
	// unlimited.
	RequestsPerSecond float64
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	if opts.RetryDelay == 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		limiter:    limiter,
	}
}

func (c *Client) Get(ctx context.Context, path string, header http.Header) (*Response, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, path, header)
	}

	return c.do(ctx, http.MethodGet, path, "", header)
}

// PostForm sends form as an application/x-www-form-urlencoded body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, header http.Header) (*Response, error) {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, http.MethodPost, path, form.Encode(), h)
}

func (c *Client) resolve(path string) string {
	if c.baseURL == "" {
		return path // If no base URL, treat path as full URL
	}
	return c.baseURL + path
}

// do retries transport errors, 429 and 5xx responses with exponential
// backoff. The final response is returned whatever its status.
func (c *Client) do(ctx context.Context, method, path, body string, header http.Header) (*Response, error) {
	fullURL := c.resolve(path)
	delay := c.retryDelay

	var resp *Response
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Debug().
				Str("url", fullURL).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying request")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		resp, err = c.once(ctx, method, fullURL, body, header)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, err)
	}
	return resp, nil
}

func (c *Client) once(ctx context.Context, method, fullURL, body string, header http.Header) (*Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			return
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
