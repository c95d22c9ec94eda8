// Package apiclient holds the HTTP plumbing shared by the upstream REST
// clients: bearer auth, client-side rate limiting and retries on reads.
package apiclient

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

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/mrlokans/papersync/internal/logger"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond
	maxErrorBodyBytes      = 2048
)

// Options configures a Client.
type Options struct {
	Service           string // Used in error messages and logs
	BaseURL           string
	Token             string
	Headers           map[string]string
	Timeout           time.Duration
	RequestsPerMinute int // <= 0 disables limiting
	MaxRetries        int
	// InitialInterval is the first retry delay; tests shrink it.
	InitialInterval time.Duration
	HTTPClient      *http.Client
	Logger          logger.Logger
}

// Client performs JSON requests against a single upstream service.
type Client struct {
	service         string
	baseURL         string
	token           string
	headers         map[string]string
	maxRetries      int
	initialInterval time.Duration
	httpClient      *http.Client
	limiter         *rate.Limiter
	log             logger.Logger
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	interval := opts.InitialInterval
	if interval <= 0 {
		interval = defaultInitialInterval
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		service:         opts.Service,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		token:           opts.Token,
		headers:         opts.Headers,
		maxRetries:      maxRetries,
		initialInterval: interval,
		httpClient:      httpClient,
		limiter:         newLimiter(opts.RequestsPerMinute, 1),
		log:             log.With(logger.String("service", opts.Service)),
	}
}

// newLimiter builds a limiter from requests-per-minute and burst.
func newLimiter(rpm, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path and decodes the JSON body into out. Rate limits, 5xx
// and network failures are retried with exponential backoff; an undecodable
// body is not. Any final
// failure unwraps to ErrUpstreamUnavailable. The response headers are
// returned for callers that paginate.
func (c *Client) Get(ctx context.Context, op, path string, query url.Values, out any) (http.Header, error) {
	var header http.Header

	operation := func() error {
		h, err := c.do(ctx, http.MethodGet, op, path, query, nil, out, ErrUpstreamUnavailable)
		if err == nil {
			header = h
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrMalformedResponse) {
			return backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		c.log.Debug("retrying request", logger.String("op", op), logger.Error(err))
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return header, nil
}

// Post sends body as JSON and decodes the response into out. Writes are not
// retried. A failure unwraps to failKind.
func (c *Client) Post(ctx context.Context, op, path string, body, out any, failKind error) error {
	_, err := c.do(ctx, http.MethodPost, op, path, nil, body, out, failKind)
	return err
}

func (c *Client) do(ctx context.Context, method, op, path string, query url.Values, body, out any, failKind error) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", c.service, op, failKind, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: failed to encode request: %w", c.service, op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to create request: %w", c.service, op, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", c.service, op, failKind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{
			Service:    c.service,
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
			Kind:       failKind,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s %s: %w: %w: %w", c.service, op, failKind, ErrMalformedResponse, err)
		}
	}

	return resp.Header, nil
}
