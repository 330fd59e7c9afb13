package http_test

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/voltfinder/internal/adapters/commercial"
	"github.com/samirrijal/voltfinder/internal/adapters/headless"
	api "github.com/samirrijal/voltfinder/internal/adapters/http"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/core/usecases"
	"github.com/samirrijal/voltfinder/internal/mapcore"
	"github.com/samirrijal/voltfinder/internal/mapcore/cluster"
	"github.com/samirrijal/voltfinder/internal/mapcore/events"
	"github.com/samirrijal/voltfinder/internal/mapcore/provider"
	"github.com/samirrijal/voltfinder/internal/pkg/geospatial"
)

// memStations is an in-memory station repository.
type memStations struct {
	mu       sync.Mutex
	stations map[string]domain.Station
}

func newMemStations(sts ...domain.Station) *memStations {
	m := &memStations{stations: make(map[string]domain.Station)}
	for _, st := range sts {
		m.stations[st.ID] = st
	}
	return m
}

func (m *memStations) GetByID(_ context.Context, id string) (*domain.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stations[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &st, nil
}

func (m *memStations) FindInBounds(_ context.Context, b domain.Bounds, limit int) ([]domain.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Station
	for _, st := range m.stations {
		if b.Contains(st.Location) && len(out) < limit {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStations) FindNearby(_ context.Context, center domain.LatLng, radius float64, limit int) ([]domain.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Station
	for _, st := range m.stations {
		if d := geospatial.Haversine(center, st.Location); d <= radius {
			st.Distance = &d
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b domain.Station) int { return cmp.Compare(*a.Distance, *b.Distance) })
	return out[:min(len(out), limit)], nil
}

func (m *memStations) UpdateStatus(_ context.Context, id string, status domain.MarkerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stations[id]
	if !ok {
		return ports.ErrNotFound
	}
	st.Status = status
	m.stations[id] = st
	return nil
}

func (m *memStations) UpsertBatch(_ context.Context, sts []domain.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range sts {
		m.stations[st.ID] = st
	}
	return nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var bilbao = []domain.Station{
	{ID: "abando", Name: "Abando", Location: domain.LatLng{Lat: 43.2610, Lng: -2.9270}, Status: domain.MarkerFree},
	{ID: "moyua", Name: "Moyua", Location: domain.LatLng{Lat: 43.2630, Lng: -2.9350}, Status: domain.MarkerBusy},
	{ID: "deusto", Name: "Deusto", Location: domain.LatLng{Lat: 43.2710, Lng: -2.9470}, Status: domain.MarkerFree},
}

type testEnv struct {
	app   *fiber.App
	deps  *api.Dependencies
	clk   *clock.Mock
	tiles *headless.TileEngine
	sdk   *headless.SDK
	repo  *memStations
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	tiles := headless.NewTileEngine()
	sdk := headless.NewSDK()
	views := headless.NewViewFactory()
	clk := clock.NewMock()
	repo := newMemStations(bilbao...)

	engines := provider.Engines{
		Tile:   tiles,
		Loader: commercial.NewLoader(sdk.LoadFunc(0), time.Second),
		Views:  views,
	}
	surfaces := map[provider.Kind]ports.SurfaceSource{
		provider.Leaflet: tiles,
		provider.Google:  sdk,
		provider.RNMaps:  views,
	}
	sessions := usecases.NewMapSessionService(engines, surfaces, repo, nil,
		usecases.SessionOptions{Provider: "leaflet", Theme: "light", Width: 800, Height: 600},
		mapcore.WithClock(clk))
	t.Cleanup(sessions.Close)

	deps := &api.Dependencies{
		Sessions: sessions,
		Stations: usecases.NewStationService(repo),
		Clusters: usecases.NewClusterService(repo, nil, cluster.Options{Radius: 60, MaxZoom: 16, MinPoints: 2, Extent: 256}, 0, 0),
		DB:       pingerFunc(func(context.Context) error { return nil }),
		Version:  "test",
	}
	return &testEnv{app: setupApp(deps), deps: deps, clk: clk, tiles: tiles, sdk: sdk, repo: repo}
}

func setupApp(deps *api.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	api.SetupRoutes(app, deps)
	return app
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func (e *testEnv) createSession(t *testing.T, body any) domain.RegionSnapshot {
	t.Helper()
	code, data := e.do(t, "POST", "/v1/sessions", body)
	if code != fiber.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", code, data)
	}
	var snap domain.RegionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func TestHealthHandler(t *testing.T) {
	env := setupEnv(t)
	env.createSession(t, nil)

	code, data := env.do(t, "GET", "/v1/health", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var body struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.Version != "test" || body.Sessions != 1 {
		t.Errorf("unexpected health body: %+v", body)
	}
}

func TestReadyHandler_DatabaseDown(t *testing.T) {
	env := setupEnv(t)
	env.deps.DB = pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	code, data := env.do(t, "GET", "/v1/ready", nil)
	if code != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", code, data)
	}
	if !strings.Contains(string(data), "connection refused") {
		t.Errorf("expected database error in body, got %s", data)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := setupEnv(t)

	snap := env.createSession(t, map[string]any{"provider": "rn-maps"})
	if snap.Provider != "rn-maps" || !snap.Mounted {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	path := "/v1/sessions/" + snap.SessionID

	if code, _ := env.do(t, "GET", path, nil); code != 200 {
		t.Fatalf("get: expected 200, got %d", code)
	}
	if code, _ := env.do(t, "DELETE", path, nil); code != fiber.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", code)
	}
	code, data := env.do(t, "GET", path, nil)
	if code != fiber.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", code)
	}
	var apiErr api.APIError
	if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Code != "not_found" {
		t.Errorf("expected not_found error, got %s", data)
	}
}

func TestCreateSession_UnknownProviderFallsBack(t *testing.T) {
	env := setupEnv(t)

	snap := env.createSession(t, map[string]any{"provider": "mapbox"})
	if snap.Provider != "leaflet" {
		t.Errorf("expected leaflet fallback, got %s", snap.Provider)
	}
}

func TestListSessions_Paginates(t *testing.T) {
	env := setupEnv(t)
	for i := 0; i < 3; i++ {
		env.createSession(t, nil)
	}

	code, data := env.do(t, "GET", "/v1/sessions?limit=2", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var page struct {
		Data       []domain.RegionSnapshot `json:"data"`
		Pagination api.Pagination          `json:"pagination"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 2 || page.Pagination.Total != 3 {
		t.Errorf("expected 2 of 3, got %d of %d", len(page.Data), page.Pagination.Total)
	}
}

func TestOverlays(t *testing.T) {
	env := setupEnv(t)
	path := "/v1/sessions/" + env.createSession(t, nil).SessionID

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"marker", "PUT", "/markers/m1", map[string]any{"lat": 43.26, "lng": -2.93, "status": "busy"}, 204},
		{"marker bad status", "PUT", "/markers/m2", map[string]any{"lat": 43.26, "lng": -2.93, "status": "exploded"}, 400},
		{"marker out of range", "PUT", "/markers/m3", map[string]any{"lat": 91, "lng": 0}, 400},
		{"polyline", "PUT", "/polylines/l1", map[string]any{"points": []map[string]float64{{"lat": 43.26, "lng": -2.93}, {"lat": 43.27, "lng": -2.94}}}, 204},
		{"polyline too short", "PUT", "/polylines/l2", map[string]any{"points": []map[string]float64{{"lat": 43.26, "lng": -2.93}}}, 400},
		{"polygon", "PUT", "/polygons/p1", map[string]any{"points": []map[string]float64{{"lat": 43.26, "lng": -2.93}, {"lat": 43.27, "lng": -2.94}, {"lat": 43.25, "lng": -2.95}}, "opacity": 0.5}, 204},
		{"remove unknown marker", "DELETE", "/markers/nope", nil, 204},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, data := env.do(t, tc.method, path+tc.path, tc.body)
			if code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, code, data)
			}
		})
	}

	_, data := env.do(t, "GET", path, nil)
	var snap domain.RegionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Markers != 1 || snap.Polylines != 1 || snap.Polygons != 1 {
		t.Errorf("expected 1/1/1 overlays, got %d/%d/%d", snap.Markers, snap.Polylines, snap.Polygons)
	}
}

func TestPan_ReportsRegion(t *testing.T) {
	env := setupEnv(t)
	path := "/v1/sessions/" + env.createSession(t, nil).SessionID

	code, data := env.do(t, "POST", path+"/pan", map[string]any{"lat": 43.263, "lng": -2.935, "zoom": 14})
	if code != fiber.StatusAccepted {
		t.Fatalf("pan: expected 202, got %d: %s", code, data)
	}
	env.clk.Add(events.RegionDebounceWindow)

	_, data = env.do(t, "GET", path, nil)
	var snap domain.RegionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Region == nil {
		t.Fatal("expected region after pan")
	}
	if math.Abs(snap.Region.Zoom-14) > 1e-6 {
		t.Errorf("expected zoom 14, got %v", snap.Region.Zoom)
	}
	if !snap.Region.Bounds.Contains(domain.LatLng{Lat: 43.263, Lng: -2.935}) {
		t.Errorf("bounds %+v do not contain the pan center", snap.Region.Bounds)
	}
}

func TestCamera_Validation(t *testing.T) {
	env := setupEnv(t)
	path := "/v1/sessions/" + env.createSession(t, nil).SessionID

	if code, _ := env.do(t, "PUT", path+"/camera", map[string]any{"lat": 43.26, "lng": -2.93, "zoom": 30}); code != 400 {
		t.Errorf("zoom 30: expected 400, got %d", code)
	}
	if code, _ := env.do(t, "PUT", path+"/camera", map[string]any{"lat": 43.26, "lng": -2.93, "zoom": 12}); code != 204 {
		t.Errorf("valid camera: expected 204, got %d", code)
	}
	if code, _ := env.do(t, "POST", path+"/fit", map[string]any{
		"nw": map[string]float64{"lat": 43.28, "lng": -2.96},
		"se": map[string]float64{"lat": 43.25, "lng": -2.92},
	}); code != 204 {
		t.Errorf("fit: expected 204, got %d", code)
	}
	if code, _ := env.do(t, "PUT", "/v1/sessions/missing/camera", map[string]any{"lat": 0, "lng": 0, "zoom": 1}); code != 404 {
		t.Errorf("unknown session: expected 404, got %d", code)
	}
}

func TestSetTheme(t *testing.T) {
	env := setupEnv(t)
	google := "/v1/sessions/" + env.createSession(t, map[string]string{"provider": "google"}).SessionID
	leaflet := "/v1/sessions/" + env.createSession(t, nil).SessionID

	if code, data := env.do(t, "PUT", google+"/theme", map[string]string{"theme": "dark"}); code != 204 {
		t.Fatalf("google theme: expected 204, got %d: %s", code, data)
	}
	if got := env.sdk.Last().Styles(); !reflect.DeepEqual(got, commercial.Styles(commercial.ThemeDark)) {
		t.Errorf("expected dark styles, got %v", got)
	}
	if code, _ := env.do(t, "PUT", google+"/theme", map[string]string{}); code != 400 {
		t.Errorf("empty theme: expected 400, got %d", code)
	}
	if code, _ := env.do(t, "PUT", leaflet+"/theme", map[string]string{"theme": "dark"}); code != 409 {
		t.Errorf("leaflet theme: expected 409, got %d", code)
	}
	if code, _ := env.do(t, "PUT", "/v1/sessions/missing/theme", map[string]string{"theme": "dark"}); code != 404 {
		t.Errorf("unknown session: expected 404, got %d", code)
	}
}

func TestLoadStations(t *testing.T) {
	env := setupEnv(t)
	path := "/v1/sessions/" + env.createSession(t, nil).SessionID

	code, data := env.do(t, "POST", path+"/stations", map[string]any{
		"nw": map[string]float64{"lat": 43.265, "lng": -2.94},
		"se": map[string]float64{"lat": 43.255, "lng": -2.92},
	})
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, data)
	}
	var body struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(data, &body)
	if body.Count != 2 {
		t.Errorf("expected abando and moyua, got %d stations", body.Count)
	}
	if n := len(env.tiles.Last().Markers()); n != 2 {
		t.Errorf("expected 2 markers on the map, got %d", n)
	}
}

func TestNearbyStations(t *testing.T) {
	env := setupEnv(t)

	code, data := env.do(t, "GET", "/v1/stations/nearby?lat=43.2630&lng=-2.9350&radius=1000", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, data)
	}
	var body struct {
		Data []domain.Station `json:"data"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0].ID != "moyua" {
		t.Fatalf("expected moyua then abando, got %+v", body.Data)
	}
	if body.Data[0].Distance == nil || *body.Data[0].Distance > 1 {
		t.Errorf("expected moyua at ~0 m, got %v", body.Data[0].Distance)
	}

	if code, _ := env.do(t, "GET", "/v1/stations/nearby?lng=-2.9", nil); code != 400 {
		t.Errorf("missing lat: expected 400, got %d", code)
	}
}

func TestGetStation(t *testing.T) {
	env := setupEnv(t)

	if code, _ := env.do(t, "GET", "/v1/stations/deusto", nil); code != 200 {
		t.Errorf("expected 200, got %d", code)
	}
	if code, _ := env.do(t, "GET", "/v1/stations/nope", nil); code != 404 {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestClustersHandler(t *testing.T) {
	env := setupEnv(t)

	code, data := env.do(t, "GET", "/v1/clusters?nw_lat=43.28&nw_lng=-2.96&se_lat=43.25&se_lng=-2.92&zoom=10", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, data)
	}
	var body struct {
		Data []cluster.Item `json:"data"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || !body.Data[0].IsCluster() || body.Data[0].Cluster.PointCount != 3 {
		t.Errorf("expected one cluster of 3 at zoom 10, got %+v", body.Data)
	}

	if code, _ := env.do(t, "GET", "/v1/clusters?nw_lat=43.28&nw_lng=-2.96&se_lat=43.25&se_lng=-2.92&zoom=40", nil); code != 400 {
		t.Errorf("zoom 40: expected 400, got %d", code)
	}
}

func TestGraphQL_StationsNearby(t *testing.T) {
	env := setupEnv(t)

	code, data := env.do(t, "POST", "/graphql", map[string]any{
		"query": `{ stationsNearby(lat: 43.263, lng: -2.935, radius: 500) { id distance } }`,
	})
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var body struct {
		Data struct {
			StationsNearby []struct {
				ID string `json:"id"`
			} `json:"stationsNearby"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Errors) > 0 {
		t.Fatalf("graphql errors: %v", body.Errors)
	}
	if len(body.Data.StationsNearby) != 1 || body.Data.StationsNearby[0].ID != "moyua" {
		t.Errorf("expected only moyua within 500 m, got %+v", body.Data.StationsNearby)
	}
}

func TestWebSocket_RejectsPlainRequest(t *testing.T) {
	env := setupEnv(t)

	if code, _ := env.do(t, "GET", "/ws?session=x", nil); code != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", code)
	}
}

func TestCaching_SessionsNotCached(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest("GET", "/v1/sessions", nil)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}

	req = httptest.NewRequest("GET", "/v1/stations/abando", nil)
	resp, err = env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag on station responses")
	}
	req = httptest.NewRequest("GET", "/v1/stations/abando", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotModified {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}
