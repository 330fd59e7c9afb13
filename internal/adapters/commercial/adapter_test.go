package commercial_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/voltfinder/internal/adapters/commercial"
	"github.com/samirrijal/voltfinder/internal/adapters/headless"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/mapcore"
	"github.com/samirrijal/voltfinder/internal/mapcore/events"
)

var container = &ports.Container{ID: "map", Width: 1024, Height: 768}

func mounted(t *testing.T, theme string) (*commercial.Adapter, *headless.SDK, *clock.Mock) {
	t.Helper()
	sdk := headless.NewSDK()
	clk := clock.NewMock()
	a := commercial.New(commercial.NewLoader(sdk.LoadFunc(0), time.Second), theme, mapcore.WithClock(clk))
	require.NoError(t, a.Mount(context.Background(), container))
	return a, sdk, clk
}

func TestMount_AppliesTheme(t *testing.T) {
	_, sdk, _ := mounted(t, commercial.ThemeDark)
	m := sdk.Last()
	require.NotNil(t, m)
	assert.Equal(t, commercial.Styles(commercial.ThemeDark), m.Styles())
	assert.Equal(t, 2, m.ListenerCount())
	assert.Equal(t, commercial.DefaultCenter, m.Center())
}

func TestMount_LoadFailurePropagates(t *testing.T) {
	boom := errors.New("quota exceeded")
	l := commercial.NewLoader(func(context.Context) (commercial.SDK, error) { return nil, boom }, time.Second)
	a := commercial.New(l, commercial.ThemeLight)

	err := a.Mount(context.Background(), container)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, commercial.ErrSDKUnavailable)

	assert.NotPanics(t, func() {
		a.AddMarker("x", domain.LatLng{}, nil)
		a.Unmount()
	})
}

func TestMount_NilContainer(t *testing.T) {
	a := commercial.New(commercial.NewLoader(headless.NewSDK().LoadFunc(0), time.Second), "")
	assert.ErrorIs(t, a.Mount(context.Background(), nil), ports.ErrNoContainer)
}

func TestMount_UnmountWhileLoadingAborts(t *testing.T) {
	sdk := headless.NewSDK()
	release := make(chan struct{})
	l := commercial.NewLoader(func(context.Context) (commercial.SDK, error) {
		<-release
		return sdk, nil
	}, time.Second)
	a := commercial.New(l, commercial.ThemeLight)

	done := make(chan error, 1)
	go func() { done <- a.Mount(context.Background(), container) }()
	require.Eventually(t, func() bool { return l.Waiting() == 1 }, time.Second, time.Millisecond)

	a.Unmount()
	close(release)

	assert.ErrorIs(t, <-done, commercial.ErrMountAborted)
	assert.Nil(t, sdk.Last(), "no map is created for an aborted mount")

	require.NoError(t, a.Mount(context.Background(), container))
	assert.NotNil(t, sdk.Last())
}

func TestMount_ConcurrentCallsShareLoad(t *testing.T) {
	sdk := headless.NewSDK()
	release := make(chan struct{})
	l := commercial.NewLoader(func(context.Context) (commercial.SDK, error) {
		<-release
		return sdk, nil
	}, time.Second)
	a := commercial.New(l, commercial.ThemeLight)

	errs := make(chan error, 2)
	go func() { errs <- a.Mount(context.Background(), container) }()
	require.Eventually(t, func() bool { return l.Waiting() == 1 }, time.Second, time.Millisecond)
	go func() { errs <- a.Mount(context.Background(), container) }()

	close(release)
	assert.NoError(t, <-errs)
	assert.NoError(t, <-errs)
	require.NotNil(t, sdk.Last())
	assert.Equal(t, 2, sdk.Last().ListenerCount(), "one map is attached once")
	assert.NoError(t, a.Mount(context.Background(), container))
}

func TestSetTheme_SwitchesWithoutRemount(t *testing.T) {
	a, sdk, _ := mounted(t, commercial.ThemeLight)
	m := sdk.Last()

	a.SetTheme(commercial.ThemeDark)
	assert.Same(t, m, sdk.Last())
	assert.Equal(t, commercial.Styles(commercial.ThemeDark), m.Styles())
	assert.Equal(t, commercial.ThemeDark, a.Theme())

	a.SetTheme("sepia")
	assert.Equal(t, commercial.ThemeLight, a.Theme())
	assert.Equal(t, commercial.Styles(commercial.ThemeLight), m.Styles())
}

func TestSetTheme_RememberedWhileUnmounted(t *testing.T) {
	a, sdk, _ := mounted(t, commercial.ThemeLight)
	a.Unmount()
	a.SetTheme(commercial.ThemeDark)

	require.NoError(t, a.Mount(context.Background(), container))
	assert.Equal(t, commercial.Styles(commercial.ThemeDark), sdk.Last().Styles())
}

func TestAddMarker_Replace(t *testing.T) {
	a, sdk, _ := mounted(t, "")
	a.AddMarker("s1", domain.LatLng{Lat: 1, Lng: 1}, nil)
	a.AddMarker("s1", domain.LatLng{Lat: 2, Lng: 2}, &domain.MarkerOptions{IconURL: "pin.png", ZIndex: 2})

	ovs := sdk.Last().Overlays()
	require.Len(t, ovs, 1)
	assert.Equal(t, domain.LatLng{Lat: 2, Lng: 2}, ovs[0].Position)
	require.NotNil(t, ovs[0].Icon)
	assert.Equal(t, "pin.png", ovs[0].Icon.URL)
	assert.Equal(t, 2, ovs[0].ZIndex)

	a.RemoveMarker("missing")
	assert.Len(t, sdk.Last().Overlays(), 1)
}

func TestPolylinePolygonDefaults(t *testing.T) {
	a, sdk, _ := mounted(t, "")
	pts := []domain.LatLng{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}}
	a.AddPolyline("l", pts, nil)
	a.AddPolygon("p", pts, &domain.PolygonOptions{FillColor: "#ff0000"})

	kinds := map[string]*headless.Overlay{}
	for _, o := range sdk.Last().Overlays() {
		kinds[o.Kind] = o
	}
	require.Len(t, kinds, 2)
	assert.Equal(t, domain.DefaultOverlayColor, kinds["polyline"].StrokeColor)
	assert.Equal(t, domain.DefaultPolylineWidth, kinds["polyline"].StrokeWeight)
	assert.Equal(t, "#ff0000", kinds["polygon"].FillColor)
	assert.Equal(t, domain.DefaultPolygonOpacity, kinds["polygon"].FillOpacity)
}

func TestAddPolygon_ZeroOpacity(t *testing.T) {
	a, sdk, _ := mounted(t, "")
	zero := 0.0
	a.AddPolygon("p", []domain.LatLng{{}, {Lat: 1}, {Lng: 1}}, &domain.PolygonOptions{Opacity: &zero})

	ovs := sdk.Last().Overlays()
	require.Len(t, ovs, 1)
	assert.Zero(t, ovs[0].FillOpacity)
}

func TestIdle_MapsCornersAndDebounces(t *testing.T) {
	a, sdk, clk := mounted(t, "")
	var got []domain.RegionChangedEvent
	a.On(domain.EventRegionChanged, events.NewHandler(func(ev domain.Event) {
		got = append(got, ev.(domain.RegionChangedEvent))
	}))

	a.SetCamera(domain.LatLng{Lat: 48.8566, Lng: 2.3522}, 12)
	clk.Add(events.RegionDebounceWindow)

	require.Len(t, got, 1, "setCenter and setZoom idle signals coalesce")
	ev := got[0]
	assert.Equal(t, 12.0, ev.Zoom)
	assert.Equal(t, domain.LatLng{Lat: 48.8566, Lng: 2.3522}, ev.Center)

	b, ok := sdk.Last().Bounds()
	require.True(t, ok)
	assert.Equal(t, domain.LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng}, ev.Bounds.NW)
	assert.Equal(t, domain.LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng}, ev.Bounds.SE)
	assert.True(t, ev.Bounds.Valid())
}

func TestFitBounds_Contains(t *testing.T) {
	a, _, clk := mounted(t, "")
	var got []domain.RegionChangedEvent
	a.On(domain.EventRegionChanged, events.NewHandler(func(ev domain.Event) {
		got = append(got, ev.(domain.RegionChangedEvent))
	}))

	nw := domain.LatLng{Lat: -23.55, Lng: -46.70}
	se := domain.LatLng{Lat: -23.60, Lng: -46.62}
	a.FitBounds(se, nw, 40)
	clk.Add(events.RegionDebounceWindow)

	require.Len(t, got, 1)
	assert.True(t, got[0].Bounds.Contains(nw))
	assert.True(t, got[0].Bounds.Contains(se))
}

func TestPressAndUnmount(t *testing.T) {
	a, sdk, clk := mounted(t, "")
	m := sdk.Last()
	var presses, regions int
	a.On(domain.EventPress, events.NewHandler(func(ev domain.Event) {
		presses++
		assert.Equal(t, domain.PressEvent{Position: domain.LatLng{Lat: 10, Lng: 20}}, ev)
	}))
	a.On(domain.EventRegionChanged, events.NewHandler(func(domain.Event) { regions++ }))

	m.Click(domain.LatLng{Lat: 10, Lng: 20})
	assert.Equal(t, 1, presses)

	a.AddMarker("s1", domain.LatLng{}, nil)
	m.Pan(domain.LatLng{Lat: 1, Lng: 1}, 10)
	a.Unmount()
	clk.Add(time.Second)
	m.Click(domain.LatLng{Lat: 10, Lng: 20})

	assert.Equal(t, 1, presses)
	assert.Zero(t, regions)
	assert.Zero(t, m.ListenerCount())
	assert.Empty(t, m.Overlays())

	require.NoError(t, a.Mount(context.Background(), container))
	markers, _, _ := a.OverlayCounts()
	assert.Zero(t, markers)
}
