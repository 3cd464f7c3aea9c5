package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/codingsince1985/geo-golang"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

// Reverse looks up the address of a coordinate. The URL and the response
// parsing come from geo-golang's OpenStreetMap geocoder, while the request
// goes through the Fetcher so it carries the service identity and gets the
// same timeout and retries as Search.
func (c *Nominatim) Reverse(ctx context.Context, coord location.Coordinate) (*location.Address, error) {
	endpoint := c.reverse.ReverseGeocodeURL(geo.Location{Lat: coord.Latitude, Lng: coord.Longitude})

	res, err := c.fetcher.Fetch(ctx, endpoint, c.cfg.Identity.Header())
	if err != nil {
		return nil, fmt.Errorf("reverse geocode %f,%f: %w", coord.Latitude, coord.Longitude, err)
	}

	if err := whttp.CheckStatus(serviceName, res); err != nil {
		return nil, fmt.Errorf("reverse geocode %f,%f: %w", coord.Latitude, coord.Longitude, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode %f,%f: read body: %w", coord.Latitude, coord.Longitude, err)
	}

	// Nominatim answers 200 {"error": "Unable to geocode"} for places it
	// knows nothing about.
	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &failure); err != nil {
		return nil, &whttp.ParseError{Service: serviceName, Reason: "decode reverse result", Err: err}
	}
	if failure.Error != "" {
		return nil, ErrAddressNotFound
	}

	parser := c.reverse.ResponseParserFactory()
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(parser); err != nil {
		return nil, &whttp.ParseError{Service: serviceName, Reason: "decode reverse result", Err: err}
	}

	address, err := parser.Address()
	if err != nil {
		return nil, &whttp.ParseError{Service: serviceName, Reason: "reverse result", Err: err}
	}

	if address == nil || address.FormattedAddress == "" {
		return nil, ErrAddressNotFound
	}

	return &location.Address{
		FormattedAddress: address.FormattedAddress,
		Street:           address.Street,
		City:             address.City,
		State:            address.State,
		Country:          address.Country,
		CountryCode:      address.CountryCode,
		Coordinate:       coord,
	}, nil
}
