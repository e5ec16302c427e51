package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/db/migrate"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if err := migrate.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func TestUpsertStation_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	first := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if err := repo.UpsertStation("WS-01", first); err != nil {
		t.Fatalf("UpsertStation: %v", err)
	}
	// Second upsert with a later time must not overwrite first_seen.
	if err := repo.UpsertStation("WS-01", first.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertStation (again): %v", err)
	}

	stations, err := repo.GetStations()
	if err != nil {
		t.Fatalf("GetStations: %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("got %d stations, want 1", len(stations))
	}
	if !stations[0].FirstSeen.Equal(first) {
		t.Errorf("FirstSeen = %v; want %v", stations[0].FirstSeen, first)
	}
}

func TestInsertAndGetTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seq := []types.Transition{
		{StationID: "WS-01", From: "", To: types.StatusOK, At: base},
		{StationID: "WS-01", From: types.StatusOK, To: types.StatusStale, At: base.Add(15 * time.Second)},
		{StationID: "WS-01", From: types.StatusStale, To: types.StatusOffline, At: base.Add(40 * time.Second)},
	}
	for _, tr := range seq {
		if err := repo.InsertTransition(tr); err != nil {
			t.Fatalf("InsertTransition(%+v): %v", tr, err)
		}
	}

	got, err := repo.GetTransitions("WS-01", 10)
	if err != nil {
		t.Fatalf("GetTransitions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d transitions, want 3", len(got))
	}
	// Newest first.
	if got[0].To != types.StatusOffline {
		t.Errorf("got[0].To = %s; want %s", got[0].To, types.StatusOffline)
	}
	if got[2].To != types.StatusOK {
		t.Errorf("got[2].To = %s; want %s", got[2].To, types.StatusOK)
	}
	if !got[0].At.Equal(base.Add(40 * time.Second)) {
		t.Errorf("got[0].At = %v; want %v", got[0].At, base.Add(40*time.Second))
	}
}

func TestGetTransitions_Limit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tr := types.Transition{
			StationID: "WS-01",
			From:      types.StatusOK,
			To:        types.StatusStale,
			At:        base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.InsertTransition(tr); err != nil {
			t.Fatalf("InsertTransition: %v", err)
		}
	}

	got, err := repo.GetTransitions("WS-01", 2)
	if err != nil {
		t.Fatalf("GetTransitions: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d transitions, want 2", len(got))
	}
}

func TestGetTransitions_UnknownStationEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	got, err := repo.GetTransitions("nope", 10)
	if err != nil {
		t.Fatalf("GetTransitions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d transitions, want 0", len(got))
	}
}

func TestMigrationsAreRerunSafe(t *testing.T) {
	db := setupTestDB(t)
	if err := migrate.Run(db); err != nil {
		t.Fatalf("second migrate.Run: %v", err)
	}
}
