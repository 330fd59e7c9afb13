package domain

import (
	"time"
)

// Station is a charging station as supplied by the station API.
// Only ID, Location and Status reach the map adapters.
type Station struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Location  LatLng       `json:"location"`
	Status    MarkerStatus `json:"status"`
	UpdatedAt time.Time    `json:"updated_at"`
	Distance  *float64     `json:"distance_m,omitempty"`
}

// StationStatusChange announces a new availability state for a station.
type StationStatusChange struct {
	StationID string       `json:"station_id"`
	Status    MarkerStatus `json:"status"`
	Time      time.Time    `json:"time"`
}

// MapEvent is an adapter event tagged with the session that produced it,
// as published to the broker and relayed to WebSocket clients.
type MapEvent struct {
	SessionID string    `json:"session_id"`
	Type      EventName `json:"type"`
	Payload   Event     `json:"payload"`
	Time      time.Time `json:"time"`
}

// RegionSnapshot describes a session's current viewport and overlay counts.
type RegionSnapshot struct {
	SessionID string              `json:"session_id"`
	Provider  string              `json:"provider"`
	Mounted   bool                `json:"mounted"`
	Region    *RegionChangedEvent `json:"region,omitempty"`
	Markers   int                 `json:"markers"`
	Polylines int                 `json:"polylines"`
	Polygons  int                 `json:"polygons"`
}
