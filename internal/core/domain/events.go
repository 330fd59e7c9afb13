package domain

// EventName identifies an adapter event.
type EventName string

const (
	EventPress         EventName = "press"
	EventRegionChanged EventName = "regionChanged"
)

// Valid reports whether n is an event adapters emit.
func (n EventName) Valid() bool {
	return n == EventPress || n == EventRegionChanged
}

// Event is the payload delivered to handlers: PressEvent or RegionChangedEvent.
type Event interface {
	Name() EventName
}

// PressEvent is the geographic point under a tap or click.
type PressEvent struct {
	Position LatLng `json:"position"`
}

func (PressEvent) Name() EventName { return EventPress }

// RegionChangedEvent is a snapshot of the viewport after it settled.
type RegionChangedEvent struct {
	Center LatLng  `json:"center"`
	Zoom   float64 `json:"zoom"`
	Bounds Bounds  `json:"bounds"`
}

func (RegionChangedEvent) Name() EventName { return EventRegionChanged }
