package weather

import (
	"database/sql"
	"log/slog"
	"net/http"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/config"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/db/migrate"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/repository"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

func TestRegisterFeature_RestoresPersistedStations(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := dbConn.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if err := migrate.Run(dbConn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	// A previous run left this station in the registry.
	repo := repository.NewRepository(dbConn)
	firstSeen := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	if err := repo.UpsertStation("WS-01", firstSeen); err != nil {
		t.Fatalf("UpsertStation: %v", err)
	}

	cfg := config.Config{
		Interval:           5 * time.Second,
		ClockSkewTolerance: 30 * time.Second,
	}
	feature := RegisterFeature(http.NewServeMux(), dbConn, &fakeSubscriber{}, cfg, slog.New(slog.DiscardHandler))
	defer feature.Close()

	for _, s := range feature.Tracker.Snapshot(time.Now().UTC()) {
		if s.StationID == "WS-01" {
			if s.Status != types.StatusOffline {
				t.Errorf("restored status = %s; want %s", s.Status, types.StatusOffline)
			}
			return
		}
	}
	t.Fatal("station from the registry not visible in the snapshot")
}
