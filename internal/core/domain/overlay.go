package domain

// MarkerStatus is the availability state rendered by a station pin.
type MarkerStatus string

const (
	MarkerFree        MarkerStatus = "free"
	MarkerBusy        MarkerStatus = "busy"
	MarkerClosed      MarkerStatus = "closed"
	MarkerMaintenance MarkerStatus = "maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s MarkerStatus) Valid() bool {
	switch s {
	case MarkerFree, MarkerBusy, MarkerClosed, MarkerMaintenance:
		return true
	}
	return false
}

// Default overlay styling shared by every backend.
const (
	DefaultOverlayColor   = "#3b82f6"
	DefaultPolylineWidth  = 3.0
	DefaultStrokeOpacity  = 0.8
	DefaultPolygonStroke  = 2.0
	DefaultPolygonOpacity = 0.2
)

// MarkerOptions customises a marker. The zero value renders the backend's
// default pin.
type MarkerOptions struct {
	IconURL string       `json:"icon_url,omitempty"`
	Anchor  *[2]float64  `json:"anchor,omitempty"`
	ZIndex  int          `json:"z_index,omitempty"`
	Status  MarkerStatus `json:"status,omitempty"`
}

// PolylineOptions styles a polyline.
type PolylineOptions struct {
	Width float64 `json:"width,omitempty"`
	Color string  `json:"color,omitempty"`
}

// WithDefaults fills unset fields.
func (o *PolylineOptions) WithDefaults() PolylineOptions {
	out := PolylineOptions{Width: DefaultPolylineWidth, Color: DefaultOverlayColor}
	if o == nil {
		return out
	}
	if o.Width > 0 {
		out.Width = o.Width
	}
	if o.Color != "" {
		out.Color = o.Color
	}
	return out
}

// PolygonOptions styles a polygon.
type PolygonOptions struct {
	FillColor   string  `json:"fill_color,omitempty"`
	StrokeColor string  `json:"stroke_color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	// Opacity is the fill opacity in [0, 1]. Nil takes the default.
	Opacity *float64 `json:"opacity,omitempty"`
}

// WithDefaults fills unset fields. Opacity is always set on the result.
func (o *PolygonOptions) WithDefaults() PolygonOptions {
	opacity := DefaultPolygonOpacity
	out := PolygonOptions{
		FillColor:   DefaultOverlayColor,
		StrokeColor: DefaultOverlayColor,
		StrokeWidth: DefaultPolygonStroke,
		Opacity:     &opacity,
	}
	if o == nil {
		return out
	}
	if o.FillColor != "" {
		out.FillColor = o.FillColor
	}
	if o.StrokeColor != "" {
		out.StrokeColor = o.StrokeColor
	}
	if o.StrokeWidth > 0 {
		out.StrokeWidth = o.StrokeWidth
	}
	if o.Opacity != nil {
		opacity = min(max(*o.Opacity, 0), 1)
	}
	return out
}
