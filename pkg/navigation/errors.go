package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// InvalidRequestError means the caller's input was missing or malformed. It
// is never retried.
type InvalidRequestError struct {
	Field   string
	Message string
}

func (e *InvalidRequestError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AddressNotFoundError means at least one of the place names of a composed
// route could not be geocoded.
type AddressNotFoundError struct {
	Queries []string
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("could not find address for %s", strings.Join(quoted(e.Queries), " and "))
}

// StatusCode maps an error returned by Service to the HTTP status the API
// responds with: caller mistakes are a 400, everything else a 500.
func StatusCode(err error) int {
	var invalid *InvalidRequestError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func quoted(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}

	return out
}
