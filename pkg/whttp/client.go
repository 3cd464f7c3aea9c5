package whttp

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// LoggingRoundTripper logs every outbound request with its status and
// latency. Response bodies are only logged when DumpBodies is set.
type LoggingRoundTripper struct {
	Proxied    http.RoundTripper
	DumpBodies bool
}

func (lrt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	proxied := lrt.Proxied
	if proxied == nil {
		proxied = http.DefaultTransport
	}

	ctx := req.Context()
	t0 := time.Now()

	res, err := proxied.RoundTrip(req)
	if err != nil {
		slog.ErrorContext(ctx, "outbound request",
			"http.request.method", req.Method,
			"http.request.url", req.URL.String(),
			"http.request.duration_ms", time.Since(t0).Milliseconds(),
			"error", err.Error())
		return res, err
	}

	fields := []any{
		"http.request.method", req.Method,
		"http.request.url", req.URL.String(),
		"http.request.duration_ms", time.Since(t0).Milliseconds(),
		"http.response.status", res.StatusCode,
	}

	if lrt.DumpBodies {
		body, rerr := io.ReadAll(res.Body)
		res.Body.Close()
		if rerr != nil {
			return nil, rerr
		}

		res.Body = io.NopCloser(bytes.NewReader(body))
		fields = append(fields, "http.response.body", string(body))
	}

	slog.InfoContext(ctx, "outbound request", fields...)

	return res, nil
}

// NewLoggingClient returns a client for use behind a Fetcher: it carries no
// overall timeout since the Fetcher bounds each attempt.
func NewLoggingClient() *http.Client {
	return &http.Client{
		Transport: LoggingRoundTripper{Proxied: http.DefaultTransport},
	}
}

// NewDebugClient is like NewLoggingClient but also logs response bodies.
func NewDebugClient() *http.Client {
	return &http.Client{
		Transport: LoggingRoundTripper{Proxied: http.DefaultTransport, DumpBodies: true},
	}
}

// Identity is how this service presents itself to upstream providers.
// Nominatim's usage policy requires an identifying User-Agent.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
}

// Header builds a fresh header set for one request.
func (i Identity) Header() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	if i.UserAgent != "" {
		h.Set("User-Agent", i.UserAgent)
	}
	if i.AcceptLanguage != "" {
		h.Set("Accept-Language", i.AcceptLanguage)
	}

	return h
}
