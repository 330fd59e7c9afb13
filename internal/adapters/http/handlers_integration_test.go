//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	api "github.com/samirrijal/voltfinder/internal/adapters/http"
	"github.com/samirrijal/voltfinder/internal/adapters/postgres"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/usecases"
	"github.com/samirrijal/voltfinder/internal/mapcore/cluster"
	"github.com/samirrijal/voltfinder/internal/pkg/config"
)

// setupTestDB connects to the test database and applies migrations.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("voltfinder-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := db.Migrate(ctx, func(string) {}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func setupDBDeps(db *postgres.DB) *api.Dependencies {
	repo := postgres.NewStationRepo(db)
	return &api.Dependencies{
		Stations: usecases.NewStationService(repo),
		Clusters: usecases.NewClusterService(repo, nil, cluster.Options{}, 0, 0),
		DB:       db,
	}
}

func seedStations(t *testing.T, db *postgres.DB, prefix string) {
	repo := postgres.NewStationRepo(db)
	sts := make([]domain.Station, len(bilbao))
	for i, st := range bilbao {
		st.ID = prefix + st.ID
		st.UpdatedAt = time.Now()
		sts[i] = st
	}
	if err := repo.UpsertBatch(context.Background(), sts); err != nil {
		t.Fatalf("seed stations: %v", err)
	}
}

func TestGetStation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	prefix := "it" + time.Now().Format("150405") + "-"
	seedStations(t, db, prefix)
	app := setupApp(setupDBDeps(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/stations/"+prefix+"moyua", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var st domain.Station
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if st.Name != "Moyua" || st.Status != domain.MarkerBusy {
		t.Errorf("unexpected station: %+v", st)
	}
}

func TestNearbyStations_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	seedStations(t, db, "near-")
	app := setupApp(setupDBDeps(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/stations/nearby?lat=43.263&lng=-2.935&radius=2000", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Data []domain.Station `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data) < 3 {
		t.Fatalf("expected at least 3 nearby stations, got %d", len(body.Data))
	}
	for i := 1; i < len(body.Data); i++ {
		if *body.Data[i].Distance < *body.Data[i-1].Distance {
			t.Fatalf("stations not ordered by distance: %+v", body.Data)
		}
	}
}
