package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/usecases"
	"github.com/samirrijal/voltfinder/internal/mapcore/provider"
)

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p point) latLng() domain.LatLng { return domain.LatLng{Lat: p.Lat, Lng: p.Lng} }

func (p point) valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

type cameraRequest struct {
	point
	Zoom float64 `json:"zoom"`
}

type fitRequest struct {
	NW      point    `json:"nw"`
	SE      point    `json:"se"`
	Padding *float64 `json:"padding,omitempty"`
}

type markerRequest struct {
	point
	Status  domain.MarkerStatus `json:"status,omitempty"`
	IconURL string              `json:"icon_url,omitempty"`
	Anchor  *[2]float64         `json:"anchor,omitempty"`
	ZIndex  int                 `json:"z_index,omitempty"`
}

type polylineRequest struct {
	Points []point `json:"points"`
	domain.PolylineOptions
}

type polygonRequest struct {
	Points []point `json:"points"`
	domain.PolygonOptions
}

type stationsRequest struct {
	NW    point `json:"nw"`
	SE    point `json:"se"`
	Limit int   `json:"limit,omitempty"`
}

func latLngs(pts []point) ([]domain.LatLng, bool) {
	out := make([]domain.LatLng, len(pts))
	for i, p := range pts {
		if !p.valid() {
			return nil, false
		}
		out[i] = p.latLng()
	}
	return out, true
}

func validZoom(z float64) bool { return z >= 0 && z <= 22 }

// CreateSessionHandler mounts a new map session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req usecases.SessionOptions
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		snap, err := deps.Sessions.Create(c.UserContext(), req)
		if err != nil {
			return errFrom(c, err)
		}
		c.Location("/v1/sessions/" + snap.SessionID)
		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// ListSessionsHandler returns a page of session snapshots.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, pg := paginate(c, deps.Sessions.List(), 50, 200)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetSessionHandler returns the current region and overlay counts.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Snapshot(c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(snap)
	}
}

// DeleteSessionHandler unmounts a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.Params("id")); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SessionHolder puts the holder of the :id session on the user context.
func SessionHolder(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		c.SetUserContext(provider.WithHolder(c.UserContext(), sess.Holder()))
		return c.Next()
	}
}

// SetThemeHandler switches the theme of the session's map.
func SetThemeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Theme string `json:"theme"`
		}
		if err := c.BodyParser(&req); err != nil || req.Theme == "" {
			return errBadRequest(c, "theme is required")
		}
		if err := deps.Sessions.SetTheme(c.UserContext(), req.Theme); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetCameraHandler moves the camera.
func SetCameraHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req cameraRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.valid() || !validZoom(req.Zoom) {
			return errBadRequest(c, "lat, lng or zoom out of range")
		}
		if err := deps.Sessions.SetCamera(c.Params("id"), req.latLng(), req.Zoom); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// FitBoundsHandler fits the camera to a rectangle. A missing padding uses
// the backend default.
func FitBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req fitRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.NW.valid() || !req.SE.valid() {
			return errBadRequest(c, "corner out of range")
		}
		padding := -1.0
		if req.Padding != nil {
			padding = *req.Padding
		}
		if err := deps.Sessions.FitBounds(c.Params("id"), req.NW.latLng(), req.SE.latLng(), padding); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PutMarkerHandler adds or replaces a marker.
func PutMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req markerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.valid() {
			return errBadRequest(c, "lat or lng out of range")
		}
		opts := domain.MarkerOptions{Status: req.Status, IconURL: req.IconURL, Anchor: req.Anchor, ZIndex: req.ZIndex}
		if err := deps.Sessions.PutMarker(c.Params("id"), c.Params("marker"), req.latLng(), opts); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteMarkerHandler removes a marker. Unknown markers succeed.
func DeleteMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.RemoveMarker(c.Params("id"), c.Params("marker")); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PutPolylineHandler adds or replaces a polyline.
func PutPolylineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req polylineRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		pts, ok := latLngs(req.Points)
		if !ok || len(pts) < 2 {
			return errBadRequest(c, "a polyline needs at least two valid points")
		}
		if err := deps.Sessions.PutPolyline(c.Params("id"), c.Params("shape"), pts, &req.PolylineOptions); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PutPolygonHandler adds or replaces a polygon.
func PutPolygonHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req polygonRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		pts, ok := latLngs(req.Points)
		if !ok || len(pts) < 3 {
			return errBadRequest(c, "a polygon needs at least three valid points")
		}
		if err := deps.Sessions.PutPolygon(c.Params("id"), c.Params("shape"), pts, &req.PolygonOptions); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// LoadStationsHandler places the stations inside a rectangle as markers.
func LoadStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req stationsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.NW.valid() || !req.SE.valid() {
			return errBadRequest(c, "corner out of range")
		}
		b := domain.Bounds{NW: req.NW.latLng(), SE: req.SE.latLng()}
		stations, err := deps.Sessions.LoadStations(c.UserContext(), c.Params("id"), b, req.Limit)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"data": stations, "count": len(stations)})
	}
}

// PressHandler simulates a tap.
func PressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req point
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.valid() {
			return errBadRequest(c, "lat or lng out of range")
		}
		if err := deps.Sessions.Press(c.Params("id"), req.latLng()); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	}
}

// PanHandler simulates a drag and pinch gesture.
func PanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req cameraRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.valid() || !validZoom(req.Zoom) {
			return errBadRequest(c, "lat, lng or zoom out of range")
		}
		if err := deps.Sessions.Pan(c.Params("id"), req.latLng(), req.Zoom); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	}
}

// NearbyStationsHandler returns stations around a point, nearest first.
func NearbyStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := point{Lat: c.QueryFloat("lat", 999), Lng: c.QueryFloat("lng", 999)}
		if !p.valid() {
			return errBadRequest(c, "lat and lng are required")
		}
		radius := c.QueryFloat("radius", 1000)
		limit := c.QueryInt("limit", 20)

		stations, err := deps.Stations.FindNearby(c.UserContext(), p.latLng(), radius, limit)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"data": stations, "count": len(stations)})
	}
}

// GetStationHandler returns one station.
func GetStationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := deps.Stations.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(st)
	}
}

// ClustersHandler clusters the stations of a viewport.
func ClustersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		nw := point{Lat: c.QueryFloat("nw_lat", 999), Lng: c.QueryFloat("nw_lng", 999)}
		se := point{Lat: c.QueryFloat("se_lat", 999), Lng: c.QueryFloat("se_lng", 999)}
		if !nw.valid() || !se.valid() {
			return errBadRequest(c, "nw_lat, nw_lng, se_lat and se_lng are required")
		}
		zoom := c.QueryFloat("zoom", -1)

		items, err := deps.Clusters.Clusters(c.UserContext(), domain.Bounds{NW: nw.latLng(), SE: se.latLng()}, zoom)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "count": len(items)})
	}
}
