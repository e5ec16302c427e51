package weather

import (
	"log/slog"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/ingest"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/tracker"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/validate"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/mqtt"
)

// registerMQTTHandler wires the ingest → validate → track pipeline onto the
// subscriber. Each message runs the full sequence on the paho handler
// goroutine; nothing here blocks.
func registerMQTTHandler(subscriber mqtt.Handleable, trk *tracker.Tracker, clockSkewTolerance time.Duration, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(topic string, payload []byte) {
		now := time.Now().UTC()

		reading, decErr := ingest.Decode(topic, payload)
		if decErr != nil {
			logger.Warn("failed to decode payload",
				"topic", topic,
				"station_id", decErr.StationID,
				"reason", decErr.Reason,
			)
			trk.RecordInvalid(decErr.StationID, types.ReasonMalformed, now)
			return
		}

		verdict := validate.Check(reading, now, clockSkewTolerance)
		if !verdict.Valid {
			logger.Warn("reading failed validation",
				"station_id", reading.StationID,
				"reason", string(verdict.Reason),
				"detail", verdict.Detail,
			)
			trk.RecordInvalid(reading.StationID, verdict.Reason, now)
			return
		}

		trk.RecordValid(reading, now)
		logger.Debug("processed reading",
			"station_id", reading.StationID,
			"timestamp", reading.Timestamp,
		)
	})
}
