package whttp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
	DefaultBackoffStep = time.Second

	// maxErrorBody caps how much of an upstream error body ends up in logs.
	maxErrorBody = 512
)

// Fetcher performs outbound GET requests bounded by a per-attempt timeout and
// retried with a linear backoff on transport failures. HTTP error statuses are
// not failures for the Fetcher: the response is handed back to the caller.
//
// A Fetcher holds no per-call state and is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	maxAttempts int
	timeout     time.Duration
	backoffStep time.Duration

	// wait blocks for d or until ctx is done. Tests swap it out.
	wait func(ctx context.Context, d time.Duration) error
}

type FetcherOption func(*Fetcher)

func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

func WithAttemptTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithBackoffStep(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d >= 0 {
			f.backoffStep = d
		}
	}
}

// NewFetcher wraps h. The http.Client should not carry its own Timeout: each
// attempt gets a deadline from the Fetcher instead.
func NewFetcher(h *http.Client, opts ...FetcherOption) *Fetcher {
	if h == nil {
		h = NewLoggingClient()
	}

	f := &Fetcher{
		client:      h,
		maxAttempts: DefaultMaxAttempts,
		timeout:     DefaultTimeout,
		backoffStep: DefaultBackoffStep,
		wait:        sleep,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch issues a GET to url with the given headers. On success the caller owns
// the response body and must close it; closing it also releases the attempt's
// timeout.
func (f *Fetcher) Fetch(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * f.backoffStep
			slog.DebugContext(ctx, "retrying outbound request", "url", url, "attempt", attempt, "backoff_ms", backoff.Milliseconds())

			if err := f.wait(ctx, backoff); err != nil {
				return nil, &NetworkError{URL: url, Attempts: attempt - 1, Err: err}
			}
		}

		res, err := f.attempt(ctx, url, header)
		if err == nil {
			return res, nil
		}

		lastErr = err
		slog.DebugContext(ctx, "outbound request attempt failed", "url", url, "attempt", attempt, "error", err.Error())

		// The caller gave up; further attempts would fail the same way.
		if ctx.Err() != nil {
			return nil, &NetworkError{URL: url, Attempts: attempt, Err: lastErr}
		}
	}

	slog.WarnContext(ctx, "outbound request failed", "url", url, "attempts", f.maxAttempts, "error", lastErr.Error())

	return nil, &NetworkError{URL: url, Attempts: f.maxAttempts, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}

	res, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	res.Body = &cancelOnClose{ReadCloser: res.Body, cancel: cancel}

	return res, nil
}

// CheckStatus turns a non-2xx response into an *UpstreamError, draining and
// closing the body. 2xx responses are left untouched.
func CheckStatus(service string, res *http.Response) error {
	if IsSuccess(res.StatusCode) {
		return nil
	}

	defer res.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))

	return &UpstreamError{
		Service:    service,
		StatusCode: res.StatusCode,
		Body:       strings.TrimSpace(string(b)),
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
