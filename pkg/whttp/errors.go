package whttp

import (
	"fmt"
	"net/http"
)

// NetworkError is returned by the Fetcher once every attempt failed at the
// transport level. It unwraps to the error of the last attempt so callers
// can still tell a timeout from a DNS or connection failure.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError means the upstream service answered, but not with a 2xx.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s responded with status %d", e.Service, e.StatusCode)
	}

	return fmt.Sprintf("%s responded with status %d: %s", e.Service, e.StatusCode, e.Body)
}

// ParseError means the upstream payload did not have the expected shape.
type ParseError struct {
	Service string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unexpected %s response: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("unexpected %s response: %s: %v", e.Service, e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsSuccess reports whether the status code is in the 2xx range.
func IsSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
