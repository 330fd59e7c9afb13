package headless

import (
	"math"
	"sync"
	"time"

	"github.com/samirrijal/voltfinder/internal/adapters/native"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// ViewFactory creates NativeViews.
type ViewFactory struct {
	mu          sync.Mutex
	last        *NativeView
	byContainer map[string]*NativeView

	// Fail makes NewView return ErrEngineUnavailable.
	Fail bool
}

var _ native.ViewFactory = (*ViewFactory)(nil)

func NewViewFactory() *ViewFactory {
	return &ViewFactory{byContainer: make(map[string]*NativeView)}
}

func (f *ViewFactory) NewView(c *ports.Container, initial native.Region) (native.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return nil, ErrEngineUnavailable
	}
	w, h := float64(c.Width), float64(c.Height)
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	v := &NativeView{width: w, height: h, region: initial}
	f.last = v
	if f.byContainer != nil {
		f.byContainer[c.ID] = v
	}
	return v, nil
}

// Last returns the most recently created view.
func (f *ViewFactory) Last() *NativeView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Surface returns the view last created in containerID.
func (f *ViewFactory) Surface(containerID string) (ports.Surface, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byContainer[containerID]
	if !ok {
		return nil, false
	}
	return nativeSurface{v}, true
}

// Release forgets the view created in containerID.
func (f *ViewFactory) Release(containerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byContainer, containerID)
}

// NativeView is a headless native map view. Camera changes settle
// immediately and report OnRegionChangeComplete synchronously.
type NativeView struct {
	mu        sync.Mutex
	width     float64
	height    float64
	region    native.Region
	listeners native.Listeners
	tree      native.Tree
	renders   int
	detached  bool
	lastAnim  time.Duration
}

func (v *NativeView) AnimateToRegion(r native.Region, duration time.Duration) {
	v.mu.Lock()
	v.region = r
	v.lastAnim = duration
	v.mu.Unlock()
	v.settle(r)
}

// FitToCoordinates picks the smallest region showing every coordinate
// inside the padded frame.
func (v *NativeView) FitToCoordinates(coords []native.Coordinate, p native.EdgePadding, animated bool) {
	if len(coords) == 0 {
		return
	}
	minLat, maxLat := coords[0].Latitude, coords[0].Latitude
	minLng, maxLng := coords[0].Longitude, coords[0].Longitude
	for _, c := range coords[1:] {
		minLat, maxLat = math.Min(minLat, c.Latitude), math.Max(maxLat, c.Latitude)
		minLng, maxLng = math.Min(minLng, c.Longitude), math.Max(maxLng, c.Longitude)
	}

	v.mu.Lock()
	availH := math.Max(v.height-p.Top-p.Bottom, 1)
	availW := math.Max(v.width-p.Left-p.Right, 1)
	r := native.Region{
		Latitude:       (minLat + maxLat) / 2,
		Longitude:      (minLng + maxLng) / 2,
		LatitudeDelta:  (maxLat - minLat) * v.height / availH,
		LongitudeDelta: (maxLng - minLng) * v.width / availW,
	}
	v.region = r
	v.mu.Unlock()
	v.settle(r)
}

func (v *NativeView) Render(t native.Tree) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tree = t
	v.renders++
}

func (v *NativeView) SetListeners(l native.Listeners) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = l
}

func (v *NativeView) Detach() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detached = true
	v.tree = native.Tree{}
}

// Press simulates a tap at c.
func (v *NativeView) Press(c native.Coordinate) {
	v.mu.Lock()
	fn := v.listeners.OnPress
	v.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

// Gesture simulates a pan or pinch passing through regions.
func (v *NativeView) Gesture(regions ...native.Region) {
	for _, r := range regions {
		v.mu.Lock()
		v.region = r
		v.mu.Unlock()
		v.settle(r)
	}
}

// ImageLoaded simulates the pin image of key finishing loading.
func (v *NativeView) ImageLoaded(key string) {
	v.mu.Lock()
	fn := v.listeners.OnMarkerImageLoaded
	v.mu.Unlock()
	if fn != nil {
		fn(key)
	}
}

func (v *NativeView) Region() native.Region {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.region
}

// Tree returns the last rendered element tree.
func (v *NativeView) Tree() native.Tree {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree
}

// Renders returns how many times Render was called.
func (v *NativeView) Renders() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders
}

func (v *NativeView) Detached() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.detached
}

// LastAnimation returns the duration of the last AnimateToRegion call.
func (v *NativeView) LastAnimation() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastAnim
}

func (v *NativeView) settle(r native.Region) {
	v.mu.Lock()
	fn := v.listeners.OnRegionChangeComplete
	v.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}
