package geocode

import (
	"context"
	"errors"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// ErrAddressNotFound is returned by Reverse when nothing is known about the
// requested coordinate.
var ErrAddressNotFound = errors.New("no address found for coordinate")

// Client resolves free-text place names into candidate coordinates.
type Client interface {
	Search(ctx context.Context, query string, limit int, countryCode string) ([]location.Candidate, error)
}

// ReverseClient resolves a coordinate into a human-readable address.
type ReverseClient interface {
	Reverse(ctx context.Context, c location.Coordinate) (*location.Address, error)
}

// Config is the immutable set of settings a geocoder is built with.
type Config struct {
	BaseURL  string
	Identity whttp.Identity
}
