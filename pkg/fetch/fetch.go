package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Error is a fetch failure, terminal or after the retry budget ran out.
type Error struct {
	URL      string
	Status   int // last HTTP status, 0 on transport error
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v (attempts: %d)", e.URL, e.Err, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: status %d (attempts: %d)", e.URL, e.Status, e.Attempts)
}

func (e *Error) Unwrap() error { return e.Err }

// RetryPolicy decides how many times a request is attempted and how long
// to wait between attempts.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Jitter         time.Duration
	Retryable      func(status int, err error) bool
}

// DefaultRetryable retries transport errors, 429 and every 5xx. Other
// non-success statuses are terminal.
func DefaultRetryable(status int, err error) bool {
	if err != nil {
		return true
	}
	return status == 429 || status >= 500
}

// backoff is the wait before the next attempt: exponential from
// InitialBackoff, capped at MaxBackoff, plus random jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			d = p.MaxBackoff
			break
		}
	}
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return d
}

// Config configures the HTTP client.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Retry     RetryPolicy
}

// Client fetches pages over HTTP with bounded retry.
type Client struct {
	http  *resty.Client
	retry RetryPolicy
	log   *slog.Logger
}

// New creates a fetch client.
func New(cfg Config, log *slog.Logger) *Client {
	hc := resty.New()
	if cfg.Timeout > 0 {
		hc.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		hc.SetHeader("User-Agent", cfg.UserAgent)
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 3
	}
	if retry.Retryable == nil {
		retry.Retryable = DefaultRetryable
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{http: hc, retry: retry, log: log}
}

// Get returns the response body for rawURL, retrying retryable failures
// per the client's policy. Terminal conditions (malformed URL, most 4xx)
// fail without retry. Every attempt is logged.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.http.R().SetContext(ctx).Get(rawURL)

		status := 0
		if err == nil {
			status = resp.StatusCode()
		}

		switch {
		case err == nil && resp.IsSuccess():
			c.log.Info("fetch ok", "url", rawURL, "status", status, "attempt", attempt)
			return resp.Body(), nil
		case !c.retry.Retryable(status, err):
			c.log.Warn("fetch failed", "url", rawURL, "status", status, "attempt", attempt, "err", err)
			return nil, &Error{URL: rawURL, Status: status, Attempts: attempt, Err: err}
		case attempt >= c.retry.MaxAttempts:
			c.log.Error("fetch gave up", "url", rawURL, "status", status, "attempts", attempt, "err", err)
			return nil, &Error{URL: rawURL, Status: status, Attempts: attempt, Err: err}
		}

		wait := c.retry.backoff(attempt)
		c.log.Warn("fetch retry", "url", rawURL, "status", status,
			"attempt", attempt, "max", c.retry.MaxAttempts, "wait", wait, "err", err)
		select {
		case <-ctx.Done():
			return nil, &Error{URL: rawURL, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
}
