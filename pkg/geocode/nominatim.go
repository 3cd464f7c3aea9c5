package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

const serviceName = "nominatim"

// Nominatim talks to an OpenStreetMap Nominatim instance.
type Nominatim struct {
	cfg     Config
	fetcher *whttp.Fetcher

	// reverse builds reverse lookup URLs and parses their responses. The
	// requests themselves go through fetcher.
	reverse geo.HTTPGeocoder
}

var _ Client = (*Nominatim)(nil)
var _ ReverseClient = (*Nominatim)(nil)

func NewNominatimClient(cfg Config, f *whttp.Fetcher) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Nominatim{
		cfg:     cfg,
		fetcher: f,
		reverse: openstreetmap.GeocoderWithURL(cfg.BaseURL + "/").(geo.HTTPGeocoder),
	}
}

type searchResult struct {
	PlaceID     json.Number `json:"place_id"`
	DisplayName string      `json:"display_name"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
}

// Search returns up to limit candidates for query, restricted to countryCode
// when it is not empty. No results is not an error.
func (c *Nominatim) Search(ctx context.Context, query string, limit int, countryCode string) ([]location.Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if countryCode != "" {
		q.Set("countrycodes", countryCode)
	}

	endpoint := fmt.Sprintf("%s/search?%s", c.cfg.BaseURL, q.Encode())

	res, err := c.fetcher.Fetch(ctx, endpoint, c.cfg.Identity.Header())
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}

	if err := whttp.CheckStatus(serviceName, res); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	defer res.Body.Close()

	var results []searchResult
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		return nil, &whttp.ParseError{Service: serviceName, Reason: "decode search results", Err: err}
	}

	candidates := make([]location.Candidate, 0, len(results))
	for _, r := range results {
		cand, err := r.candidate()
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, cand)
	}

	return candidates, nil
}

func (r searchResult) candidate() (location.Candidate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return location.Candidate{}, &whttp.ParseError{Service: serviceName, Reason: fmt.Sprintf("latitude %q of place %s", r.Lat, r.PlaceID), Err: err}
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil {
		return location.Candidate{}, &whttp.ParseError{Service: serviceName, Reason: fmt.Sprintf("longitude %q of place %s", r.Lon, r.PlaceID), Err: err}
	}

	coord := location.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		return location.Candidate{}, &whttp.ParseError{Service: serviceName, Reason: fmt.Sprintf("place %s", r.PlaceID), Err: err}
	}

	var id int64
	if r.PlaceID != "" {
		id, err = r.PlaceID.Int64()
		if err != nil {
			return location.Candidate{}, &whttp.ParseError{Service: serviceName, Reason: fmt.Sprintf("place_id %q", r.PlaceID), Err: err}
		}
	}

	return location.Candidate{
		ID:          id,
		DisplayName: r.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
	}, nil
}
