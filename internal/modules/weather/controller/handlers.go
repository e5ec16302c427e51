package controller

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/repository"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/tracker"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/views"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/utils"
)

// StateSource is the tracker surface the controller reads. Snapshots are
// computed synchronously against the request time.
type StateSource interface {
	Snapshot(now time.Time) []types.StationSnapshot
	StationDetail(id string, now time.Time) (tracker.Detail, bool)
}

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type weatherControllerImpl struct {
	state StateSource
	repo  repository.EventRepository
}

func NewWeatherController(state StateSource, repo repository.EventRepository) WeatherController {
	return &weatherControllerImpl{state: state, repo: repo}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /api/v1/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1/stations/{id}", c.handleStation)
	mux.HandleFunc("GET /api/v1/stations/{id}/events", c.handleStationEvents)
}

func (c *weatherControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	now := time.Now().UTC()
	snapshots := c.state.Snapshot(now)

	rows := make([]views.StationRow, 0, len(snapshots))
	for _, s := range snapshots {
		var last *types.Reading
		if d, ok := c.state.StationDetail(s.StationID, now); ok {
			last = d.LastReading
		}
		rows = append(rows, views.BuildRow(s, last))
	}

	data := views.DashboardData{
		Rows:        rows,
		GeneratedAt: now.Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderDashboard(w, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
}

func (c *weatherControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	snapshots := c.state.Snapshot(time.Now().UTC())
	utils.WriteJSON(w, http.StatusOK, snapshots)
}

func (c *weatherControllerImpl) handleStation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing station id")
		return
	}

	detail, ok := c.state.StationDetail(id, time.Now().UTC())
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "unknown station")
		return
	}
	utils.WriteJSON(w, http.StatusOK, detail)
}

func (c *weatherControllerImpl) handleStationEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing station id")
		return
	}

	limit, err := parseLimitQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := c.repo.GetTransitions(id, limit)
	if err != nil {
		slog.Error("get status events failed", "station_id", id, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	if events == nil {
		events = []types.Transition{}
	}
	utils.WriteJSON(w, http.StatusOK, events)
}
