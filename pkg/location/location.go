package location

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 point. Note that most routing APIs expect the
// opposite order (longitude first) on the wire.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Candidate is one possible match for a free-text location query.
type Candidate struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Coordinate returns the candidate's position.
func (c Candidate) Coordinate() Coordinate {
	return Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Address is the result of reverse geocoding a coordinate.
type Address struct {
	FormattedAddress string     `json:"formatted_address"`
	Street           string     `json:"street,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	Country          string     `json:"country,omitempty"`
	CountryCode      string     `json:"country_code,omitempty"`
	Coordinate       Coordinate `json:"coordinate"`
}

// BoundingBox is an inclusive latitude/longitude rectangle.
type BoundingBox struct {
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// Validate checks that the latitude is within [-90, 90] and the longitude
// within [-180, 180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}

	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}

	return nil
}

func (b BoundingBox) Validate() error {
	if err := (Coordinate{Latitude: b.MinLatitude, Longitude: b.MinLongitude}).Validate(); err != nil {
		return fmt.Errorf("min corner: %w", err)
	}

	if err := (Coordinate{Latitude: b.MaxLatitude, Longitude: b.MaxLongitude}).Validate(); err != nil {
		return fmt.Errorf("max corner: %w", err)
	}

	if b.MinLatitude > b.MaxLatitude {
		return fmt.Errorf("min latitude %v is greater than max latitude %v", b.MinLatitude, b.MaxLatitude)
	}

	if b.MinLongitude > b.MaxLongitude {
		return fmt.Errorf("min longitude %v is greater than max longitude %v", b.MinLongitude, b.MaxLongitude)
	}

	return nil
}

// Contains reports whether c lies inside the box, borders included.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Latitude >= b.MinLatitude && c.Latitude <= b.MaxLatitude &&
		c.Longitude >= b.MinLongitude && c.Longitude <= b.MaxLongitude
}
