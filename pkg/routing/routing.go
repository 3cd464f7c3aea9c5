package routing

import (
	"context"
	"errors"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

const DefaultOSRMURL = "https://router.project-osrm.org"

// ErrNoRoute is returned when the routing service found no route between the
// two points. The request itself was valid.
var ErrNoRoute = errors.New("no route found between origin and destination")

// Client computes driving routes between two coordinates.
type Client interface {
	Route(ctx context.Context, origin, destination location.Coordinate) (*Route, error)
}

// Route is the best route between two points. Polyline, when present, has at
// least two points.
type Route struct {
	Polyline        []location.Coordinate `json:"route"`
	DistanceMeters  float64               `json:"distance"`
	DurationSeconds float64               `json:"duration"`
}

type Config struct {
	BaseURL  string
	Profile  string
	Identity whttp.Identity
}
