// Package ingest turns raw MQTT payloads into structured readings.
//
// The wire contract is a JSON object with exactly these fields:
//
//	{
//	  "station_id":  "WS-01",
//	  "temperature": 21.4,
//	  "humidity":    48.0,
//	  "timestamp":   "2026-08-30T10:15:00Z"
//	}
//
// RFC 3339 is the canonical timestamp form (what the station binary
// publishes); a bare integer of Unix epoch seconds is accepted as well.
package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

type wirePayload struct {
	StationID   *string         `json:"station_id"`
	Temperature *float64        `json:"temperature"`
	Humidity    *float64        `json:"humidity"`
	Timestamp   json.RawMessage `json:"timestamp"`
}

// Decode parses one message payload into a Reading. A malformed payload is
// reported as a DecodeError, never as a panic or a dropped message; the error
// carries the best available station attribution so the health engine can
// count it against the right station.
func Decode(topic string, payload []byte) (types.Reading, *types.DecodeError) {
	var wire wirePayload
	if err := json.Unmarshal(payload, &wire); err != nil {
		return types.Reading{}, &types.DecodeError{
			StationID:  stationFromTopic(topic),
			Reason:     fmt.Sprintf("invalid JSON: %v", err),
			RawPayload: payload,
		}
	}

	sid := ""
	if wire.StationID != nil {
		sid = strings.TrimSpace(*wire.StationID)
	}
	if sid == "" {
		sid = stationFromTopic(topic)
	}

	fail := func(reason string) (types.Reading, *types.DecodeError) {
		return types.Reading{}, &types.DecodeError{
			StationID:  sid,
			Reason:     reason,
			RawPayload: payload,
		}
	}

	if sid == types.UnknownStation {
		return fail("missing station_id")
	}
	if wire.Temperature == nil {
		return fail("missing temperature")
	}
	if wire.Humidity == nil {
		return fail("missing humidity")
	}
	if math.IsNaN(*wire.Temperature) || math.IsInf(*wire.Temperature, 0) {
		return fail("temperature is not a finite number")
	}
	if math.IsNaN(*wire.Humidity) || math.IsInf(*wire.Humidity, 0) {
		return fail("humidity is not a finite number")
	}
	if len(wire.Timestamp) == 0 {
		return fail("missing timestamp")
	}

	ts, err := parseTimestamp(wire.Timestamp)
	if err != nil {
		return fail(fmt.Sprintf("unparsable timestamp: %v", err))
	}

	return types.Reading{
		StationID:   sid,
		Timestamp:   ts.UTC(),
		Temperature: *wire.Temperature,
		Humidity:    *wire.Humidity,
	}, nil
}

// parseTimestamp accepts an RFC 3339 string or Unix epoch seconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("not RFC 3339: %q", s)
		}
		return t, nil
	}

	var epoch int64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		return time.Unix(epoch, 0), nil
	}

	return time.Time{}, fmt.Errorf("neither string nor integer: %s", string(raw))
}

// stationFromTopic recovers the station id from a per-station topic such as
// "weather/WS-01". The bare aggregate topic carries no station hint.
func stationFromTopic(topic string) string {
	i := strings.LastIndex(topic, "/")
	if i < 0 || i == len(topic)-1 {
		return types.UnknownStation
	}
	sid := strings.TrimSpace(topic[i+1:])
	if sid == "" || sid == "#" || sid == "+" {
		return types.UnknownStation
	}
	return sid
}
