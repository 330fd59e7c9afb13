package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/mapcore/events"
)

func TestEmitter_RegistrationOrder(t *testing.T) {
	e := events.NewEmitter()
	var order []string
	e.On(domain.EventPress, events.NewHandler(func(domain.Event) { order = append(order, "a") }))
	e.On(domain.EventPress, events.NewHandler(func(domain.Event) { order = append(order, "b") }))
	e.On(domain.EventPress, events.NewHandler(func(domain.Event) { order = append(order, "c") }))

	e.Emit(domain.PressEvent{Position: domain.LatLng{Lat: 1, Lng: 2}})

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestEmitter_OffRemovesFirstMatch(t *testing.T) {
	e := events.NewEmitter()
	calls := 0
	h := events.NewHandler(func(domain.Event) { calls++ })

	e.On(domain.EventPress, h)
	e.On(domain.EventPress, h)
	e.Off(domain.EventPress, h)
	assert.Equal(t, 1, e.Count(domain.EventPress))

	e.Emit(domain.PressEvent{})
	assert.Equal(t, 1, calls)
}

func TestEmitter_OffUnregisteredIsNoop(t *testing.T) {
	e := events.NewEmitter()
	registered := events.NewHandler(func(domain.Event) {})
	e.On(domain.EventRegionChanged, registered)

	e.Off(domain.EventRegionChanged, events.NewHandler(func(domain.Event) {}))
	e.Off(domain.EventPress, registered)

	assert.Equal(t, 1, e.Count(domain.EventRegionChanged))
}

func TestEmitter_OnlyMatchingEvent(t *testing.T) {
	e := events.NewEmitter()
	var press, region int
	e.On(domain.EventPress, events.NewHandler(func(domain.Event) { press++ }))
	e.On(domain.EventRegionChanged, events.NewHandler(func(domain.Event) { region++ }))

	e.Emit(domain.RegionChangedEvent{Zoom: 3})

	assert.Equal(t, 0, press)
	assert.Equal(t, 1, region)
}

func TestEmitter_UnknownEventIgnored(t *testing.T) {
	e := events.NewEmitter()
	e.On(domain.EventName("drag"), events.NewHandler(func(domain.Event) {}))
	assert.Equal(t, 0, e.Count(domain.EventName("drag")))
}

func TestEmitter_ClearStopsDispatchInProgress(t *testing.T) {
	e := events.NewEmitter()
	second := 0
	e.On(domain.EventPress, events.NewHandler(func(domain.Event) { e.Clear() }))
	e.On(domain.EventPress, events.NewHandler(func(domain.Event) { second++ }))

	e.Emit(domain.PressEvent{})

	assert.Equal(t, 0, second, "handlers after Clear must not run")
	assert.Equal(t, 0, e.Count(domain.EventPress))
}

func TestEmitter_EmitAtStaleEpoch(t *testing.T) {
	e := events.NewEmitter()
	epoch := e.Epoch()
	e.Clear()

	calls := 0
	e.On(domain.EventPress, events.NewHandler(func(domain.Event) { calls++ }))

	assert.Equal(t, 0, e.EmitAt(epoch, domain.PressEvent{}))
	assert.Equal(t, 0, calls)
}
