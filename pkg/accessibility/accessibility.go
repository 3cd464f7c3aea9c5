package accessibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manzanit0/mobacesso/pkg/location"
)

const StatusPending = "pending"

// ErrInvalidPoint wraps every validation failure of a NewPoint.
var ErrInvalidPoint = errors.New("invalid accessibility point")

// Feature describes one accessibility aspect of a point, e.g. a ramp.
type Feature struct {
	ID          int64  `json:"id" db:"id"`
	PointID     int64  `json:"point_id" db:"point_id"`
	Type        string `json:"feature_type" db:"feature_type"`
	Description string `json:"description" db:"description"`
}

// Point is a user-reported place and its accessibility features. New points
// start as pending until reviewed.
type Point struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Features []Feature `json:"accessibility_features" db:"-"`
}

type NewFeature struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type NewPoint struct {
	Name      string       `json:"name"`
	Latitude  *float64     `json:"latitude"`
	Longitude *float64     `json:"longitude"`
	Features  []NewFeature `json:"features"`
}

type Repository interface {
	CreatePoint(ctx context.Context, p NewPoint) (*Point, error)
	QueryPoints(ctx context.Context, box location.BoundingBox) ([]Point, error)
}

func (p NewPoint) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPoint)
	}

	if p.Latitude == nil || p.Longitude == nil {
		return fmt.Errorf("%w: latitude and longitude are required", ErrInvalidPoint)
	}

	if err := (location.Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}).Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPoint, err.Error())
	}

	for i, f := range p.Features {
		if strings.TrimSpace(f.Type) == "" {
			return fmt.Errorf("%w: feature %d has no type", ErrInvalidPoint, i)
		}
	}

	return nil
}

// attachFeatures groups features under their points, keeping the order of
// both slices. Points without features get an empty, non-nil list.
func attachFeatures(points []Point, features []Feature) []Point {
	byPoint := make(map[int64][]Feature, len(points))
	for _, f := range features {
		byPoint[f.PointID] = append(byPoint[f.PointID], f)
	}

	for i := range points {
		if ff, ok := byPoint[points[i].ID]; ok {
			points[i].Features = ff
		} else {
			points[i].Features = []Feature{}
		}
	}

	return points
}
