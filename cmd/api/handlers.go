package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/mobacesso/pkg/accessibility"
	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/navigation"
)

type completeRouteRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func searchController(svc *navigation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		candidates, err := svc.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, "search", err)
			return
		}

		c.JSON(http.StatusOK, candidates)
	}
}

func routeController(svc *navigation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := queryFloats(c, "startLat", "startLng", "endLat", "endLng")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		route, err := svc.RouteBetweenCoordinates(c.Request.Context(), navigation.CoordinatesQuery{
			StartLatitude:  v[0],
			StartLongitude: v[1],
			EndLatitude:    v[2],
			EndLongitude:   v[3],
		})
		if err != nil {
			respondError(c, "route", err)
			return
		}

		c.JSON(http.StatusOK, route)
	}
}

func completeRouteController(svc *navigation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req completeRouteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a json object with origin and destination"})
			return
		}

		route, err := svc.RouteBetweenNames(c.Request.Context(), req.Origin, req.Destination)
		if err != nil {
			respondError(c, "complete-route", err)
			return
		}

		c.JSON(http.StatusOK, route)
	}
}

func reverseController(svc *navigation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := queryFloats(c, "lat", "lng")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		address, err := svc.Reverse(c.Request.Context(), v[0], v[1])
		if err != nil {
			respondError(c, "reverse", err)
			return
		}

		c.JSON(http.StatusOK, address)
	}
}

func createPointController(repo accessibility.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p accessibility.NewPoint
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a json accessibility point"})
			return
		}

		if err := p.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		point, err := repo.CreatePoint(c.Request.Context(), p)
		if err != nil {
			respondError(c, "create-point", err)
			return
		}

		c.JSON(http.StatusCreated, point)
	}
}

func queryPointsController(repo accessibility.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := queryFloats(c, "minLat", "maxLat", "minLng", "maxLng")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if v[0] == nil || v[1] == nil || v[2] == nil || v[3] == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minLat, maxLat, minLng and maxLng are required"})
			return
		}

		box := location.BoundingBox{
			MinLatitude:  *v[0],
			MaxLatitude:  *v[1],
			MinLongitude: *v[2],
			MaxLongitude: *v[3],
		}
		if err := box.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		points, err := repo.QueryPoints(c.Request.Context(), box)
		if err != nil {
			respondError(c, "query-points", err)
			return
		}

		c.JSON(http.StatusOK, points)
	}
}

// queryFloats reads the given query parameters in order. A parameter that is
// absent or blank comes back nil, so "startLat=" counts as missing rather
// than as zero.
func queryFloats(c *gin.Context, keys ...string) ([]*float64, error) {
	out := make([]*float64, len(keys))
	for i, k := range keys {
		raw, ok := c.GetQuery(k)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			continue
		}

		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number, got %q", k, raw)
		}

		out[i] = &f
	}

	return out, nil
}

// respondError writes the error payload. Server side failures are logged,
// caller mistakes are not.
func respondError(c *gin.Context, op string, err error) {
	status := navigation.StatusCode(err)
	if errors.Is(err, accessibility.ErrInvalidPoint) {
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "operation", op, "error", err.Error())
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
