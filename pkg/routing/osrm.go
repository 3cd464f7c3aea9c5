package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

const serviceName = "osrm"

// OSRM queries an OSRM routing server.
type OSRM struct {
	cfg     Config
	fetcher *whttp.Fetcher
}

var _ Client = (*OSRM)(nil)

func NewOSRMClient(cfg Config, f *whttp.Fetcher) *OSRM {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOSRMURL
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OSRM{cfg: cfg, fetcher: f}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route asks OSRM for the full geometry of the best route from origin to
// destination.
func (c *OSRM) Route(ctx context.Context, origin, destination location.Coordinate) (*Route, error) {
	endpoint := c.routeURL(origin, destination)

	res, err := c.fetcher.Fetch(ctx, endpoint, c.cfg.Identity.Header())
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	defer res.Body.Close()

	var d routeResponse
	if res.StatusCode == http.StatusBadRequest {
		// OSRM answers NoRoute and friends with a 400 and a JSON body.
		if jerr := json.NewDecoder(res.Body).Decode(&d); jerr == nil && strings.EqualFold(d.Code, "NoRoute") {
			return nil, ErrNoRoute
		}

		return nil, fmt.Errorf("route: %w", &whttp.UpstreamError{Service: serviceName, StatusCode: res.StatusCode, Body: d.Message})
	}

	if err := whttp.CheckStatus(serviceName, res); err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}

	if err := json.NewDecoder(res.Body).Decode(&d); err != nil {
		return nil, &whttp.ParseError{Service: serviceName, Reason: "decode route response", Err: err}
	}

	if len(d.Routes) == 0 || strings.EqualFold(d.Code, "NoRoute") {
		return nil, ErrNoRoute
	}

	best := d.Routes[0]

	if best.Distance < 0 || best.Duration < 0 {
		return nil, &whttp.ParseError{Service: serviceName, Reason: fmt.Sprintf("negative distance %v or duration %v", best.Distance, best.Duration)}
	}

	coords := best.Geometry.Coordinates
	if len(coords) == 1 {
		return nil, &whttp.ParseError{Service: serviceName, Reason: "route geometry has a single point"}
	}

	polyline := make([]location.Coordinate, 0, len(coords))
	for _, pair := range coords {
		// GeoJSON positions are [longitude, latitude].
		polyline = append(polyline, location.Coordinate{Latitude: pair[1], Longitude: pair[0]})
	}

	return &Route{
		Polyline:        polyline,
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}, nil
}

// routeURL renders both points longitude first, which is what OSRM expects.
func (c *OSRM) routeURL(origin, destination location.Coordinate) string {
	return fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson",
		c.cfg.BaseURL, c.cfg.Profile, lonLat(origin), lonLat(destination))
}

func lonLat(c location.Coordinate) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}
