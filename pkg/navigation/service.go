package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/manzanit0/mobacesso/pkg/geocode"
	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/routing"
)

const (
	DefaultSearchLimit = 5
	DefaultCountryCode = "br"
)

type Config struct {
	// SearchLimit caps the candidates returned by Search.
	SearchLimit int
	// CountryCode restricts geocoding to one country (ISO 3166-1 alpha-2).
	CountryCode string
}

// CompleteRoute is a route between two place names, along with the places
// they were resolved to.
type CompleteRoute struct {
	Origin      location.Candidate `json:"origin"`
	Destination location.Candidate `json:"destination"`
	routing.Route
}

// CoordinatesQuery carries the raw components of a coordinate route request.
// A nil component is a missing one.
type CoordinatesQuery struct {
	StartLatitude  *float64
	StartLongitude *float64
	EndLatitude    *float64
	EndLongitude   *float64
}

// Service composes the geocoder and the router into the operations the API
// exposes. It keeps no state between calls.
type Service struct {
	cfg      Config
	geocoder geocode.Client
	reverser geocode.ReverseClient
	router   routing.Client
}

// NewService builds a Service. reverser may be nil, in which case Reverse
// always fails.
func NewService(cfg Config, g geocode.Client, r routing.Client, reverser geocode.ReverseClient) *Service {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}

	if cfg.CountryCode == "" {
		cfg.CountryCode = DefaultCountryCode
	}

	return &Service{cfg: cfg, geocoder: g, router: r, reverser: reverser}
}

// Search returns the candidates matching query, possibly none.
func (s *Service) Search(ctx context.Context, query string) (_ []location.Candidate, err error) {
	defer timed(ctx, "navigation.Search", "query", query)(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &InvalidRequestError{Field: "q", Message: "search query is required"}
	}

	candidates, err := s.geocoder.Search(ctx, query, s.cfg.SearchLimit, s.cfg.CountryCode)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return candidates, nil
}

// RouteBetweenCoordinates validates every component before routing, so a bad
// request never reaches the network.
func (s *Service) RouteBetweenCoordinates(ctx context.Context, q CoordinatesQuery) (_ *routing.Route, err error) {
	defer timed(ctx, "navigation.RouteBetweenCoordinates", "query", q.String())(&err)

	origin, destination, err := q.coordinates()
	if err != nil {
		return nil, err
	}

	route, err := s.router.Route(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("route between coordinates: %w", err)
	}

	return route, nil
}

// RouteBetweenNames resolves both names concurrently and, only when both
// resolve, routes between them. Each name resolves to the first candidate the
// geocoder returns: that is the geocoder's ranking, not a guaranteed best match.
func (s *Service) RouteBetweenNames(ctx context.Context, origin, destination string) (_ *CompleteRoute, err error) {
	defer timed(ctx, "navigation.RouteBetweenNames", "origin", origin, "destination", destination)(&err)

	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)

	if origin == "" || destination == "" {
		return nil, &InvalidRequestError{Message: "origin and destination are required"}
	}

	var origins, destinations []location.Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		origins, err = s.geocoder.Search(gctx, origin, 1, s.cfg.CountryCode)
		if err != nil {
			return fmt.Errorf("resolve origin: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		destinations, err = s.geocoder.Search(gctx, destination, 1, s.cfg.CountryCode)
		if err != nil {
			return fmt.Errorf("resolve destination: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var missing []string
	if len(origins) == 0 {
		missing = append(missing, origin)
	}
	if len(destinations) == 0 {
		missing = append(missing, destination)
	}
	if len(missing) > 0 {
		return nil, &AddressNotFoundError{Queries: missing}
	}

	from, to := origins[0], destinations[0]

	route, err := s.router.Route(ctx, from.Coordinate(), to.Coordinate())
	if err != nil {
		return nil, fmt.Errorf("route between %q and %q: %w", origin, destination, err)
	}

	return &CompleteRoute{Origin: from, Destination: to, Route: *route}, nil
}

// Reverse returns the address at the given coordinate.
func (s *Service) Reverse(ctx context.Context, latitude, longitude *float64) (_ *location.Address, err error) {
	defer timed(ctx, "navigation.Reverse")(&err)

	if latitude == nil || longitude == nil {
		return nil, &InvalidRequestError{Message: "lat and lng are required"}
	}

	coord := location.Coordinate{Latitude: *latitude, Longitude: *longitude}
	if err := coord.Validate(); err != nil {
		return nil, &InvalidRequestError{Message: err.Error()}
	}

	if s.reverser == nil {
		return nil, errors.New("reverse geocoding is not configured")
	}

	address, err := s.reverser.Reverse(ctx, coord)
	if err != nil {
		return nil, fmt.Errorf("reverse: %w", err)
	}

	return address, nil
}

func (q CoordinatesQuery) coordinates() (origin, destination location.Coordinate, err error) {
	if q.StartLatitude == nil || q.StartLongitude == nil || q.EndLatitude == nil || q.EndLongitude == nil {
		return origin, destination, &InvalidRequestError{Message: "origin and destination coordinates are required"}
	}

	origin = location.Coordinate{Latitude: *q.StartLatitude, Longitude: *q.StartLongitude}
	if err := origin.Validate(); err != nil {
		return origin, destination, &InvalidRequestError{Field: "origin", Message: err.Error()}
	}

	destination = location.Coordinate{Latitude: *q.EndLatitude, Longitude: *q.EndLongitude}
	if err := destination.Validate(); err != nil {
		return origin, destination, &InvalidRequestError{Field: "destination", Message: err.Error()}
	}

	return origin, destination, nil
}

func (q CoordinatesQuery) String() string {
	return fmt.Sprintf("%s,%s;%s,%s", fmtPtr(q.StartLatitude), fmtPtr(q.StartLongitude), fmtPtr(q.EndLatitude), fmtPtr(q.EndLongitude))
}

func fmtPtr(f *float64) string {
	if f == nil {
		return "?"
	}

	return fmt.Sprint(*f)
}
