// Package repository persists the station registry and the status-transition
// event log. Readings themselves are never stored here; the engine is a live
// monitor, not a time-series store.
package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/insert-status-event.sql
var insertStatusEventSQL string

//go:embed sql/get-status-events.sql
var getStatusEventsSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

// StationRow is one row of the persisted station registry.
type StationRow struct {
	ID        string    `json:"id"`
	FirstSeen time.Time `json:"first_seen"`
}

type EventRepository interface {
	UpsertStation(id string, firstSeen time.Time) error
	InsertTransition(tr types.Transition) error
	GetTransitions(stationID string, limit int) ([]types.Transition, error)
	GetStations() ([]StationRow, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) EventRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) UpsertStation(id string, firstSeen time.Time) error {
	_, err := r.db.Exec(upsertStationSQL, id, firstSeen.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert station %q: %w", id, err)
	}
	return nil
}

func (r *repositoryImpl) InsertTransition(tr types.Transition) error {
	// The station row must exist first so the FK holds; first_seen is the
	// moment of the first recorded transition.
	if err := r.UpsertStation(tr.StationID, tr.At); err != nil {
		return err
	}
	_, err := r.db.Exec(insertStatusEventSQL,
		tr.StationID,
		string(tr.From),
		string(tr.To),
		tr.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert status event for %q: %w", tr.StationID, err)
	}
	return nil
}

func (r *repositoryImpl) GetTransitions(stationID string, limit int) ([]types.Transition, error) {
	rows, err := r.db.Query(getStatusEventsSQL, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close status events rows", "error", err)
		}
	}()

	var out []types.Transition
	for rows.Next() {
		var tr types.Transition
		var from, to, at string
		if err := rows.Scan(&tr.StationID, &from, &to, &at); err != nil {
			return nil, err
		}
		t, err := parseStoredTime(at)
		if err != nil {
			return nil, err
		}
		tr.From = types.Status(from)
		tr.To = types.Status(to)
		tr.At = t
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStations() ([]StationRow, error) {
	rows, err := r.db.Query(getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()

	var out []StationRow
	for rows.Next() {
		var s StationRow
		var firstSeen string
		if err := rows.Scan(&s.ID, &firstSeen); err != nil {
			return nil, err
		}
		t, err := parseStoredTime(firstSeen)
		if err != nil {
			return nil, err
		}
		s.FirstSeen = t
		out = append(out, s)
	}
	return out, rows.Err()
}

func parseStoredTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", s, err, err2)
		}
	}
	return t, nil
}
