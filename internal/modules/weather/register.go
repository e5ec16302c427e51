package weather

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/config"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/controller"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/repository"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/tracker"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/mqtt"
)

// Feature bundles the wired-up health engine. The caller owns the tick loop
// (call Tracker.Evaluate periodically) and must Close on shutdown.
type Feature struct {
	Tracker *tracker.Tracker
	sink    *asyncSink
}

func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.Handleable, cfg config.Config, logger *slog.Logger) *Feature {
	repo := repository.NewRepository(db)
	sink := newAsyncSink(repo, logger)

	trk := tracker.New(tracker.Params{
		StaleAfter:             cfg.StaleAfter(),
		OfflineAfter:           cfg.OfflineAfter(),
		InvalidStreakThreshold: 3,
	}, sink, logger)

	// Stations seen before a restart come back as OFFLINE instead of
	// vanishing from the dashboard until their next message.
	if stations, err := repo.GetStations(); err != nil {
		logger.Warn("failed to restore station registry", "error", err)
	} else {
		for _, s := range stations {
			trk.Restore(s.ID, s.FirstSeen)
		}
	}

	registerMQTTHandler(subscriber, trk, cfg.ClockSkewTolerance, logger)

	weatherController := controller.NewWeatherController(trk, repo)
	weatherController.RegisterRoutes(mux)

	return &Feature{Tracker: trk, sink: sink}
}

// Close flushes the transition log writer.
func (f *Feature) Close() {
	f.sink.Close()
}
