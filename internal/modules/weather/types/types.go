package types

import (
	"fmt"
	"time"
)

// Status is the health classification of a station.
type Status string

const (
	StatusOK      Status = "OK"
	StatusStale   Status = "STALE"
	StatusInvalid Status = "INVALID"
	StatusOffline Status = "OFFLINE"
)

// UnknownStation is the bucket for payloads whose station id could not be
// recovered from the message or the topic.
const UnknownStation = "unknown"

// Reading is one decoded sensor sample. Immutable once constructed.
type Reading struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// Reason classifies why a reading failed validation.
type Reason string

const (
	ReasonMalformed       Reason = "MALFORMED"
	ReasonOutOfRange      Reason = "OUT_OF_RANGE"
	ReasonFutureTimestamp Reason = "FUTURE_TIMESTAMP"
)

// Verdict is the outcome of validating one Reading.
type Verdict struct {
	Valid  bool
	Reason Reason
	Detail string
}

// DecodeError reports a payload that could not be turned into a Reading.
// StationID is set when it could be recovered from the payload or the topic,
// otherwise it is UnknownStation.
type DecodeError struct {
	StationID  string
	Reason     string
	RawPayload []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload for station %q: %s", e.StationID, e.Reason)
}

// StationSnapshot is the per-station view handed to the presentation layer.
type StationSnapshot struct {
	StationID        string     `json:"station_id"`
	Status           Status     `json:"status"`
	LastSeen         *time.Time `json:"last_seen,omitempty"`
	AvgTemperature5m *float64   `json:"avg_temperature_5m,omitempty"`
	AvgHumidity5m    *float64   `json:"avg_humidity_5m,omitempty"`
}

// Transition is a single status change observed by the tracker.
type Transition struct {
	StationID string    `json:"station_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	At        time.Time `json:"at"`
}
