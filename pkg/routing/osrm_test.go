package routing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/routing"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

var (
	se       = location.Coordinate{Latitude: -23.5503, Longitude: -46.6339}
	paulista = location.Coordinate{Latitude: -23.5614, Longitude: -46.6559}
)

func newClient(t *testing.T, h http.HandlerFunc) *routing.OSRM {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return routing.NewOSRMClient(routing.Config{BaseURL: srv.URL}, whttp.NewFetcher(srv.Client(), whttp.WithBackoffStep(0)))
}

func TestRouteSendsLongitudeFirst(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/route/v1/driving/-46.6339,-23.5503;-46.6559,-23.5614"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}

		if got := r.URL.Query().Get("overview"); got != "full" {
			t.Errorf("overview = %q, want full", got)
		}

		if got := r.URL.Query().Get("geometries"); got != "geojson" {
			t.Errorf("geometries = %q, want geojson", got)
		}

		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"geometry":{"type":"LineString","coordinates":[[-46.6339,-23.5503],[-46.6559,-23.5614]]},"distance":3120.4,"duration":415.2}]}`))
	})

	got, err := c.Route(context.Background(), se, paulista)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &routing.Route{
		Polyline:        []location.Coordinate{se, paulista},
		DistanceMeters:  3120.4,
		DurationSeconds: 415.2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("route mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteFailures(t *testing.T) {
	testCases := []struct {
		desc    string
		status  int
		body    string
		wantErr func(error) bool
	}{
		{
			desc:    "zero routes is a no-route error",
			status:  http.StatusOK,
			body:    `{"code":"Ok","routes":[]}`,
			wantErr: func(err error) bool { return errors.Is(err, routing.ErrNoRoute) },
		},
		{
			desc:    "an OSRM NoRoute answer is a no-route error",
			status:  http.StatusBadRequest,
			body:    `{"code":"NoRoute","message":"Impossible route between points"}`,
			wantErr: func(err error) bool { return errors.Is(err, routing.ErrNoRoute) },
		},
		{
			desc:   "other 400s are upstream errors",
			status: http.StatusBadRequest,
			body:   `{"code":"InvalidQuery","message":"Query string malformed"}`,
			wantErr: func(err error) bool {
				var ue *whttp.UpstreamError
				return errors.As(err, &ue) && ue.StatusCode == http.StatusBadRequest
			},
		},
		{
			desc:   "a 5xx is an upstream error",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			wantErr: func(err error) bool {
				var ue *whttp.UpstreamError
				return errors.As(err, &ue) && ue.StatusCode == http.StatusBadGateway
			},
		},
		{
			desc:   "a single point geometry is a parse error",
			status: http.StatusOK,
			body:   `{"code":"Ok","routes":[{"geometry":{"coordinates":[[-46.6,-23.5]]},"distance":0,"duration":0}]}`,
			wantErr: func(err error) bool {
				var pe *whttp.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			desc:   "a negative distance is a parse error",
			status: http.StatusOK,
			body:   `{"code":"Ok","routes":[{"geometry":{"coordinates":[[-46.6,-23.5],[-46.7,-23.6]]},"distance":-1,"duration":10}]}`,
			wantErr: func(err error) bool {
				var pe *whttp.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			desc:   "garbage is a parse error",
			status: http.StatusOK,
			body:   `<html>`,
			wantErr: func(err error) bool {
				var pe *whttp.ParseError
				return errors.As(err, &pe)
			},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tC.status)
				_, _ = w.Write([]byte(tC.body))
			})

			_, err := c.Route(context.Background(), se, paulista)
			if err == nil || !tC.wantErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
