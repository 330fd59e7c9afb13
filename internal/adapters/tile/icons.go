package tile

import (
	"fmt"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

const (
	osmTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	osmAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	osmMaxZoom     = 19
)

var statusColors = map[domain.MarkerStatus]string{
	domain.MarkerFree:        "#22c55e",
	domain.MarkerBusy:        "#f59e0b",
	domain.MarkerClosed:      "#ef4444",
	domain.MarkerMaintenance: "#6b7280",
}

// divIcon renders the default round pin in color.
func divIcon(color string) Icon {
	return Icon{
		ClassName: "custom-div-icon",
		HTML: fmt.Sprintf(`<div style="width:24px;height:24px;border-radius:50%%;`+
			`background-color:%s;border:2px solid white;box-shadow:0 2px 4px %s;"></div>`,
			color, "rgba(0, 0, 0, 0.3)"),
		Size:   [2]float64{24, 24},
		Anchor: [2]float64{12, 12},
	}
}

// markerIcon picks the icon for opts: the custom image when IconURL is set,
// otherwise a round pin coloured by status.
func markerIcon(opts *domain.MarkerOptions) Icon {
	if opts != nil && opts.IconURL != "" {
		anchor := [2]float64{16, 32}
		if opts.Anchor != nil {
			anchor = *opts.Anchor
		}
		return Icon{
			URL:         opts.IconURL,
			Size:        [2]float64{32, 32},
			Anchor:      anchor,
			PopupAnchor: [2]float64{0, -32},
		}
	}

	color := domain.DefaultOverlayColor
	if opts != nil {
		if c, ok := statusColors[opts.Status]; ok {
			color = c
		}
	}
	return divIcon(color)
}
