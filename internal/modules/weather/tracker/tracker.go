// Package tracker owns the per-station health state machine and the rolling
// aggregation windows. It is fed from two independent event sources: the MQTT
// receive path (validated readings and failures) and a periodic tick, because
// silence alone must degrade a station to STALE and then OFFLINE.
package tracker

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

// Params configures the state machine thresholds. StaleAfter and OfflineAfter
// are derived from the configured station send interval (2x and 6x).
type Params struct {
	StaleAfter             time.Duration
	OfflineAfter           time.Duration
	InvalidStreakThreshold int
}

// TransitionSink receives every status change. Implementations must not
// block; the tracker calls the sink while holding the station's record lock.
type TransitionSink interface {
	OnTransition(tr types.Transition)
}

type stationRecord struct {
	mu sync.Mutex

	id        string
	status    types.Status
	firstSeen time.Time // receipt time of the first message, valid or not
	lastSeen  *time.Time
	lastValid *types.Reading

	consecutiveInvalid int
	lastFailure        types.Reason

	window window
	daily  dailyStats
	hourly hourlyStats
}

// Tracker holds one record per station ever observed. Records are created on
// first message and never destroyed. The outer map lock only guards lookup
// and insertion; each record carries its own mutex, so stations do not
// serialize each other.
type Tracker struct {
	params Params
	sink   TransitionSink
	logger *slog.Logger

	mu       sync.RWMutex
	stations map[string]*stationRecord
}

func New(params Params, sink TransitionSink, logger *slog.Logger) *Tracker {
	return &Tracker{
		params:   params,
		sink:     sink,
		logger:   logger,
		stations: make(map[string]*stationRecord),
	}
}

func (t *Tracker) station(id string, now time.Time) *stationRecord {
	t.mu.RLock()
	rec := t.stations[id]
	t.mu.RUnlock()
	if rec != nil {
		return rec
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if rec = t.stations[id]; rec != nil {
		return rec
	}
	rec = &stationRecord{
		id:        id,
		firstSeen: now,
		hourly:    make(hourlyStats),
	}
	t.stations[id] = rec
	t.logger.Info("station discovered", "station_id", id)
	return rec
}

// Restore re-creates the record of a station known from the persisted
// registry, typically at startup. The restored record starts OFFLINE: the
// process has not heard from the station yet, and a restart is not a status
// change, so no transition is emitted. A station already tracked is left
// untouched.
func (t *Tracker) Restore(id string, firstSeen time.Time) {
	if id == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stations[id] != nil {
		return
	}
	t.stations[id] = &stationRecord{
		id:        id,
		status:    types.StatusOffline,
		firstSeen: firstSeen,
		hourly:    make(hourlyStats),
	}
	t.logger.Info("station restored from registry", "station_id", id)
}

// RecordValid applies a reading that passed validation. A valid reading
// always clears STALE, OFFLINE and INVALID immediately, regardless of prior
// state. An out-of-order (older) timestamp still feeds the window but does
// not move last_seen backwards.
func (t *Tracker) RecordValid(r types.Reading, now time.Time) {
	rec := t.station(r.StationID, now)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.lastSeen == nil || r.Timestamp.After(*rec.lastSeen) {
		ts := r.Timestamp
		rec.lastSeen = &ts
	}
	rec.lastValid = &r
	rec.consecutiveInvalid = 0
	rec.lastFailure = ""

	rec.window.add(r)
	rec.window.expire(now)
	rec.daily.update(now, r.Temperature, r.Humidity)
	rec.hourly.update(now, r.Temperature, r.Humidity)

	t.setStatus(rec, types.StatusOK, now)
}

// RecordInvalid applies a decode failure or a failed validation. It counts
// against the invalid streak but does not advance last_seen: an invalid
// reading is not proof the station is alive and measuring. A single glitch
// does not flip the status; the streak threshold does.
func (t *Tracker) RecordInvalid(stationID string, reason types.Reason, now time.Time) {
	if stationID == "" {
		stationID = types.UnknownStation
	}
	rec := t.station(stationID, now)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.consecutiveInvalid++
	rec.lastFailure = reason

	if rec.status == "" {
		// First-ever message for this station is already bad. There is no
		// trustworthy data yet, so the record starts out STALE rather than OK.
		t.setStatus(rec, types.StatusStale, now)
	}
	if rec.consecutiveInvalid >= t.params.InvalidStreakThreshold {
		t.setStatus(rec, types.StatusInvalid, now)
	}
}

// Evaluate re-classifies every known station against now. It is invoked on a
// periodic tick, independent of message arrival, and is idempotent for a
// fixed now. INVALID is never cleared by the passage of time, only by a
// subsequent valid reading.
func (t *Tracker) Evaluate(now time.Time) {
	for _, rec := range t.records() {
		rec.mu.Lock()

		rec.window.expire(now)
		rec.hourly.prune(now)

		if rec.status != types.StatusInvalid {
			ref := rec.firstSeen
			if rec.lastSeen != nil {
				ref = *rec.lastSeen
			}
			gap := now.Sub(ref)

			switch {
			case gap > t.params.OfflineAfter:
				t.setStatus(rec, types.StatusOffline, now)
			case gap > t.params.StaleAfter:
				t.setStatus(rec, types.StatusStale, now)
			case rec.lastSeen != nil:
				// Never OK without at least one valid reading.
				t.setStatus(rec, types.StatusOK, now)
			}
		}

		rec.mu.Unlock()
	}
}

// Snapshot returns the current per-station view, sorted by station id.
// It has no side effects beyond lazy window expiry and always reflects the
// given now, not the time of the last insertion.
func (t *Tracker) Snapshot(now time.Time) []types.StationSnapshot {
	recs := t.records()

	out := make([]types.StationSnapshot, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		out = append(out, t.snapshotLocked(rec, now))
		rec.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StationID < out[j].StationID })
	return out
}

func (t *Tracker) snapshotLocked(rec *stationRecord, now time.Time) types.StationSnapshot {
	avgTemp, avgHum := rec.window.averages(now)
	return types.StationSnapshot{
		StationID:        rec.id,
		Status:           rec.status,
		LastSeen:         rec.lastSeen,
		AvgTemperature5m: avgTemp,
		AvgHumidity5m:    avgHum,
	}
}

// DailySummary is the min/max view for the current UTC day.
type DailySummary struct {
	Date    string   `json:"date"`
	TempMin *float64 `json:"temp_min,omitempty"`
	TempMax *float64 `json:"temp_max,omitempty"`
	HumMin  *float64 `json:"hum_min,omitempty"`
	HumMax  *float64 `json:"hum_max,omitempty"`
}

// HourlySummary is the aggregate for one UTC hour.
type HourlySummary struct {
	Hour    string   `json:"hour"`
	Count   int      `json:"count"`
	TempAvg float64  `json:"temp_avg"`
	HumAvg  float64  `json:"hum_avg"`
	TempMin *float64 `json:"temp_min,omitempty"`
	TempMax *float64 `json:"temp_max,omitempty"`
	HumMin  *float64 `json:"hum_min,omitempty"`
	HumMax  *float64 `json:"hum_max,omitempty"`
}

// Detail is the full per-station view for the detail endpoint.
type Detail struct {
	types.StationSnapshot
	LastReading        *types.Reading  `json:"last_reading,omitempty"`
	ConsecutiveInvalid int             `json:"consecutive_invalid"`
	LastFailure        types.Reason    `json:"last_failure,omitempty"`
	WindowSize         int             `json:"window_size"`
	Daily              *DailySummary   `json:"daily,omitempty"`
	Hourly             []HourlySummary `json:"hourly,omitempty"`
}

// StationDetail returns the extended view of one station, or false if the
// station has never been observed.
func (t *Tracker) StationDetail(id string, now time.Time) (Detail, bool) {
	t.mu.RLock()
	rec := t.stations[id]
	t.mu.RUnlock()
	if rec == nil {
		return Detail{}, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	d := Detail{
		StationSnapshot:    t.snapshotLocked(rec, now),
		LastReading:        rec.lastValid,
		ConsecutiveInvalid: rec.consecutiveInvalid,
		LastFailure:        rec.lastFailure,
		WindowSize:         rec.window.size(),
	}

	if rec.daily.date != "" {
		d.Daily = &DailySummary{
			Date:    rec.daily.date,
			TempMin: rec.daily.tMin,
			TempMax: rec.daily.tMax,
			HumMin:  rec.daily.hMin,
			HumMax:  rec.daily.hMax,
		}
	}

	for key, b := range rec.hourly {
		d.Hourly = append(d.Hourly, HourlySummary{
			Hour:    key,
			Count:   b.count,
			TempAvg: b.tSum / float64(b.count),
			HumAvg:  b.hSum / float64(b.count),
			TempMin: b.tMin,
			TempMax: b.tMax,
			HumMin:  b.hMin,
			HumMax:  b.hMax,
		})
	}
	sort.Slice(d.Hourly, func(i, j int) bool { return d.Hourly[i].Hour < d.Hourly[j].Hour })

	return d, true
}

func (t *Tracker) records() []*stationRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*stationRecord, 0, len(t.stations))
	for _, rec := range t.stations {
		out = append(out, rec)
	}
	return out
}

// setStatus must be called with rec.mu held.
func (t *Tracker) setStatus(rec *stationRecord, to types.Status, at time.Time) {
	from := rec.status
	if from == to {
		return
	}
	rec.status = to

	t.logger.Info("station status changed",
		"station_id", rec.id,
		"from", string(from),
		"to", string(to),
	)
	if t.sink != nil {
		t.sink.OnTransition(types.Transition{
			StationID: rec.id,
			From:      from,
			To:        to,
			At:        at,
		})
	}
}
