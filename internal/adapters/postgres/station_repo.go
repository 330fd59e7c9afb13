package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// StationRepo implements ports.StationRepository with pgx.
type StationRepo struct {
	db *DB
}

// NewStationRepo creates a new StationRepo.
func NewStationRepo(db *DB) *StationRepo {
	return &StationRepo{db: db}
}

const stationColumns = `id, name,
	       ST_Y(location::geometry) as lat,
	       ST_X(location::geometry) as lng,
	       status, updated_at`

func scanStation(row pgx.Row) (domain.Station, error) {
	var s domain.Station
	var status string
	err := row.Scan(&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lng, &status, &s.UpdatedAt)
	s.Status = domain.MarkerStatus(status)
	return s, err
}

// UpsertBatch inserts or updates many stations using pgx.Batch.
func (r *StationRepo) UpsertBatch(ctx context.Context, stations []domain.Station) error {
	batch := &pgx.Batch{}
	for _, s := range stations {
		batch.Queue(`
			INSERT INTO stations (id, name, location, status, updated_at)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, now())
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, location = EXCLUDED.location,
			    status = EXCLUDED.status, updated_at = now()
		`, s.ID, s.Name, s.Location.Lng, s.Location.Lat, string(s.Status))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range stations {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a station by id.
func (r *StationRepo) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	s, err := scanStation(r.db.Pool.QueryRow(ctx, `
		SELECT `+stationColumns+`
		FROM stations WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindInBounds returns stations inside the rectangle using the GiST index.
func (r *StationRepo) FindInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+stationColumns+`
		FROM stations
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography
		ORDER BY id
		LIMIT $5
	`, b.NW.Lng, b.SE.Lat, b.SE.Lng, b.NW.Lat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// FindNearby returns stations within radiusMeters using PostGIS ST_DWithin,
// ordered by distance.
func (r *StationRepo) FindNearby(ctx context.Context, center domain.LatLng, radiusMeters float64, limit int) ([]domain.Station, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+stationColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM stations
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance, id
		LIMIT $4
	`, center.Lng, center.Lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		var s domain.Station
		var status string
		var d float64
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lng, &status, &s.UpdatedAt, &d); err != nil {
			return nil, err
		}
		s.Status = domain.MarkerStatus(status)
		s.Distance = &d
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// UpdateStatus sets the availability of a station.
func (r *StationRepo) UpdateStatus(ctx context.Context, id string, status domain.MarkerStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE stations SET status = $2, updated_at = now() WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
