package awx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/imamik/awxgate/internal/metrics"
	"github.com/imamik/awxgate/internal/util/retry"
)

const (
	apiPrefix = "/api/v2/"

	// DefaultTimeout bounds a single HTTP exchange with AWX.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is kept for diagnostics.
	maxErrorBody = 4096

	listPageSize = 200
)

// Client is a minimal AWX API client authenticated with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryOpts  []retry.Option
	log        logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit caps outgoing requests to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry enables backoff retries for idempotent requests.
func WithRetry(opts ...retry.Option) Option {
	return func(c *Client) {
		c.retryOpts = append([]retry.Option{}, opts...)
	}
}

// WithLogger sets the logger used for degraded calls and retries.
func WithLogger(log logr.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the AWX instance at baseURL,
// e.g. "https://awx.example.com".
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + apiPrefix,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call performs one API operation and records its outcome. out may be nil.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	err := c.callWithRetry(ctx, op, method, path, in, out)

	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.RecordAPICall(op, result, time.Since(start).Seconds())
	return err
}

func (c *Client) callWithRetry(ctx context.Context, op, method, path string, in, out any) error {
	if len(c.retryOpts) == 0 || method == http.MethodPost {
		return c.roundTrip(ctx, op, method, path, in, out)
	}

	opts := append([]retry.Option{
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.log.V(1).Info("retrying AWX request", "operation", op, "attempt", attempt, "delay", delay, "error", err.Error())
		}),
	}, c.retryOpts...)

	err := retry.Do(ctx, func() error {
		err := c.roundTrip(ctx, op, method, path, in, out)
		var ce *CommunicationError
		if !errors.As(err, &ce) {
			return err
		}
		if !ce.Retryable() {
			return retry.Fatal(err)
		}
		return retry.After(err, ce.RetryAfter)
	}, opts...)

	// Strip the retry wrapping so callers see the API error itself.
	var ce *CommunicationError
	if errors.As(err, &ce) {
		return ce
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &CommunicationError{Operation: op, Err: err}
	}

	return c.do(op, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CommunicationError{Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommunicationError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &CommunicationError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
			RetryAfter: retryAfter(resp),
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	switch dst := out.(type) {
	case *string:
		*dst = string(body)
		return nil
	case *[]byte:
		*dst = body
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &CommunicationError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}

// retryAfter reads the delay-seconds form of Retry-After sent with 429 and
// 503 responses.
func retryAfter(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
