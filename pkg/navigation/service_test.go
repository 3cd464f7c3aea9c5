package navigation_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/navigation"
	"github.com/manzanit0/mobacesso/pkg/routing"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

type searchCall struct {
	Query   string
	Limit   int
	Country string
}

type fakeGeocoder struct {
	mu       sync.Mutex
	results  map[string][]location.Candidate
	errs     map[string]error
	calls    []searchCall
	delay    time.Duration
	inflight int
	maxPar   int
}

func (f *fakeGeocoder) Search(ctx context.Context, query string, limit int, country string) ([]location.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{Query: query, Limit: limit, Country: country})
	f.inflight++
	if f.inflight > f.maxPar {
		f.maxPar = f.inflight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--

	if err, ok := f.errs[query]; ok {
		return nil, err
	}

	return f.results[query], nil
}

type fakeRouter struct {
	route *routing.Route
	err   error
	calls [][2]location.Coordinate
}

func (f *fakeRouter) Route(_ context.Context, origin, destination location.Coordinate) (*routing.Route, error) {
	f.calls = append(f.calls, [2]location.Coordinate{origin, destination})
	return f.route, f.err
}

type fakeReverser struct {
	address *location.Address
}

func (f *fakeReverser) Reverse(_ context.Context, c location.Coordinate) (*location.Address, error) {
	a := *f.address
	a.Coordinate = c
	return &a, nil
}

var (
	praca = location.Candidate{ID: 1, DisplayName: "Praça da Sé, São Paulo", Latitude: -23.5503, Longitude: -46.6339}
	av    = location.Candidate{ID: 2, DisplayName: "Avenida Paulista, São Paulo", Latitude: -23.5614, Longitude: -46.6559}

	twoPointRoute = &routing.Route{
		Polyline:        []location.Coordinate{praca.Coordinate(), av.Coordinate()},
		DistanceMeters:  500,
		DurationSeconds: 60,
	}
)

func ptr(f float64) *float64 { return &f }

func TestSearch(t *testing.T) {
	g := &fakeGeocoder{results: map[string][]location.Candidate{"Praça da Sé": {praca}}}
	svc := navigation.NewService(navigation.Config{}, g, &fakeRouter{}, nil)

	got, err := svc.Search(context.Background(), "  Praça da Sé ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]location.Candidate{praca}, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []searchCall{{Query: "Praça da Sé", Limit: 5, Country: "br"}}
	if diff := cmp.Diff(wantCalls, g.calls); diff != "" {
		t.Errorf("geocoder calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	g := &fakeGeocoder{results: map[string][]location.Candidate{"nowhere": {}}}
	svc := navigation.NewService(navigation.Config{}, g, &fakeRouter{}, nil)

	got, err := svc.Search(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	g := &fakeGeocoder{}
	svc := navigation.NewService(navigation.Config{}, g, &fakeRouter{}, nil)

	for _, q := range []string{"", "   "} {
		_, err := svc.Search(context.Background(), q)

		var invalid *navigation.InvalidRequestError
		if !errors.As(err, &invalid) {
			t.Errorf("Search(%q): expected InvalidRequestError, got %v", q, err)
		}
	}

	if len(g.calls) != 0 {
		t.Errorf("expected no geocoder calls, got %d", len(g.calls))
	}
}

func TestRouteBetweenCoordinatesValidation(t *testing.T) {
	full := navigation.CoordinatesQuery{
		StartLatitude:  ptr(-23.5503),
		StartLongitude: ptr(-46.6339),
		EndLatitude:    ptr(-23.5614),
		EndLongitude:   ptr(-46.6559),
	}

	testCases := []struct {
		desc   string
		mutate func(q *navigation.CoordinatesQuery)
	}{
		{desc: "missing start latitude", mutate: func(q *navigation.CoordinatesQuery) { q.StartLatitude = nil }},
		{desc: "missing start longitude", mutate: func(q *navigation.CoordinatesQuery) { q.StartLongitude = nil }},
		{desc: "missing end latitude", mutate: func(q *navigation.CoordinatesQuery) { q.EndLatitude = nil }},
		{desc: "missing end longitude", mutate: func(q *navigation.CoordinatesQuery) { q.EndLongitude = nil }},
		{desc: "out of range latitude", mutate: func(q *navigation.CoordinatesQuery) { q.EndLatitude = ptr(123) }},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			r := &fakeRouter{route: twoPointRoute}
			svc := navigation.NewService(navigation.Config{}, &fakeGeocoder{}, r, nil)

			q := full
			tC.mutate(&q)

			_, err := svc.RouteBetweenCoordinates(context.Background(), q)

			var invalid *navigation.InvalidRequestError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidRequestError, got %v", err)
			}

			if navigation.StatusCode(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", navigation.StatusCode(err))
			}

			if len(r.calls) != 0 {
				t.Errorf("expected no router calls, got %d", len(r.calls))
			}
		})
	}
}

func TestRouteBetweenCoordinates(t *testing.T) {
	r := &fakeRouter{route: twoPointRoute}
	svc := navigation.NewService(navigation.Config{}, &fakeGeocoder{}, r, nil)

	got, err := svc.RouteBetweenCoordinates(context.Background(), navigation.CoordinatesQuery{
		StartLatitude:  ptr(praca.Latitude),
		StartLongitude: ptr(praca.Longitude),
		EndLatitude:    ptr(av.Latitude),
		EndLongitude:   ptr(av.Longitude),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.DistanceMeters != 500 {
		t.Errorf("distance = %v, want 500", got.DistanceMeters)
	}

	wantCalls := [][2]location.Coordinate{{praca.Coordinate(), av.Coordinate()}}
	if diff := cmp.Diff(wantCalls, r.calls); diff != "" {
		t.Errorf("router calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteBetweenNames(t *testing.T) {
	g := &fakeGeocoder{
		results: map[string][]location.Candidate{
			"Praça da Sé":  {praca},
			"Av. Paulista": {av},
		},
		delay: 20 * time.Millisecond,
	}
	r := &fakeRouter{route: twoPointRoute}
	svc := navigation.NewService(navigation.Config{}, g, r, nil)

	got, err := svc.RouteBetweenNames(context.Background(), "Praça da Sé", "Av. Paulista")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &navigation.CompleteRoute{Origin: praca, Destination: av, Route: *twoPointRoute}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("complete route mismatch (-want +got):\n%s", diff)
	}

	if got.Route.DistanceMeters != 500 {
		t.Errorf("distance = %v, want 500", got.Route.DistanceMeters)
	}

	for _, c := range g.calls {
		if c.Limit != 1 {
			t.Errorf("geocode of %q used limit %d, want 1", c.Query, c.Limit)
		}
	}

	if g.maxPar != 2 {
		t.Errorf("expected both lookups in flight together, max parallelism was %d", g.maxPar)
	}

	wantRoute := [][2]location.Coordinate{{praca.Coordinate(), av.Coordinate()}}
	if diff := cmp.Diff(wantRoute, r.calls); diff != "" {
		t.Errorf("router calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteBetweenNamesPicksFirstCandidate(t *testing.T) {
	other := location.Candidate{ID: 3, DisplayName: "Sé, Olinda", Latitude: -8.01, Longitude: -34.85}
	g := &fakeGeocoder{results: map[string][]location.Candidate{
		"Sé":       {praca, other},
		"Paulista": {av},
	}}
	r := &fakeRouter{route: twoPointRoute}
	svc := navigation.NewService(navigation.Config{}, g, r, nil)

	got, err := svc.RouteBetweenNames(context.Background(), "Sé", "Paulista")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Origin != praca {
		t.Errorf("origin = %+v, want the first candidate", got.Origin)
	}
}

func TestRouteBetweenNamesFailures(t *testing.T) {
	upstream := &whttp.UpstreamError{Service: "nominatim", StatusCode: http.StatusServiceUnavailable}

	testCases := []struct {
		desc        string
		origin      string
		destination string
		results     map[string][]location.Candidate
		errs        map[string]error
		routerErr   error
		wantErr     func(error) bool
		wantRouted  bool
		wantStatus  int
	}{
		{
			desc:        "missing origin is an invalid request",
			origin:      "",
			destination: "Av. Paulista",
			wantErr: func(err error) bool {
				var e *navigation.InvalidRequestError
				return errors.As(err, &e)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			desc:        "origin not found never reaches the router",
			origin:      "Nowhere",
			destination: "Av. Paulista",
			results:     map[string][]location.Candidate{"Av. Paulista": {av}},
			wantErr: func(err error) bool {
				var e *navigation.AddressNotFoundError
				return errors.As(err, &e) && cmp.Equal(e.Queries, []string{"Nowhere"})
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			desc:        "both not found are reported together",
			origin:      "Nowhere",
			destination: "Neverland",
			wantErr: func(err error) bool {
				var e *navigation.AddressNotFoundError
				return errors.As(err, &e) && cmp.Equal(e.Queries, []string{"Nowhere", "Neverland"})
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			desc:        "a geocoding failure aborts the composition",
			origin:      "Praça da Sé",
			destination: "Av. Paulista",
			results:     map[string][]location.Candidate{"Praça da Sé": {praca}},
			errs:        map[string]error{"Av. Paulista": upstream},
			wantErr: func(err error) bool {
				var e *whttp.UpstreamError
				return errors.As(err, &e) && e.StatusCode == http.StatusServiceUnavailable
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			desc:        "a routing failure yields no partial result",
			origin:      "Praça da Sé",
			destination: "Av. Paulista",
			results:     map[string][]location.Candidate{"Praça da Sé": {praca}, "Av. Paulista": {av}},
			routerErr:   routing.ErrNoRoute,
			wantErr:     func(err error) bool { return errors.Is(err, routing.ErrNoRoute) },
			wantRouted:  true,
			wantStatus:  http.StatusInternalServerError,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			g := &fakeGeocoder{results: tC.results, errs: tC.errs}
			r := &fakeRouter{route: twoPointRoute, err: tC.routerErr}
			if tC.routerErr != nil {
				r.route = nil
			}
			svc := navigation.NewService(navigation.Config{}, g, r, nil)

			got, err := svc.RouteBetweenNames(context.Background(), tC.origin, tC.destination)
			if got != nil {
				t.Errorf("expected no result, got %+v", got)
			}

			if err == nil || !tC.wantErr(err) {
				t.Fatalf("unexpected error: %v", err)
			}

			if routed := len(r.calls) > 0; routed != tC.wantRouted {
				t.Errorf("router invoked = %v, want %v", routed, tC.wantRouted)
			}

			if status := navigation.StatusCode(err); status != tC.wantStatus {
				t.Errorf("status = %d, want %d", status, tC.wantStatus)
			}
		})
	}
}

func TestReverse(t *testing.T) {
	rev := &fakeReverser{address: &location.Address{FormattedAddress: "Praça da Sé, São Paulo"}}
	svc := navigation.NewService(navigation.Config{}, &fakeGeocoder{}, &fakeRouter{}, rev)

	got, err := svc.Reverse(context.Background(), ptr(-23.5503), ptr(-46.6339))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.FormattedAddress != "Praça da Sé, São Paulo" {
		t.Errorf("address = %q", got.FormattedAddress)
	}

	_, err = svc.Reverse(context.Background(), nil, ptr(-46.6339))
	if navigation.StatusCode(err) != http.StatusBadRequest {
		t.Errorf("expected a 400 for a missing latitude, got %v", err)
	}
}
