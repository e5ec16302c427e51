// Package station simulates a weather station: a bounded random walk over
// temperature and humidity, with optional fault injection so every health
// state of the engine can be exercised against a live broker.
package station

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

// Message is one payload to publish. Reading is set for well-formed samples;
// for injected faults Raw carries the broken payload and Fault names the kind.
type Message struct {
	Reading *types.Reading
	Raw     []byte
	Fault   string
}

type Simulator struct {
	stationID string
	faultRate float64
	rng       *rand.Rand

	temp float64
	hum  float64
}

func New(stationID string, faultRate float64, seed int64) *Simulator {
	rng := rand.New(rand.NewSource(seed))
	return &Simulator{
		stationID: stationID,
		faultRate: faultRate,
		rng:       rng,
		temp:      12 + rng.Float64()*10,
		hum:       40 + rng.Float64()*30,
	}
}

func (s *Simulator) StationID() string { return s.stationID }

// Next produces the payload for one send interval.
func (s *Simulator) Next(now time.Time) Message {
	s.walk()

	if s.faultRate > 0 && s.rng.Float64() < s.faultRate {
		return s.fault(now)
	}

	r := types.Reading{
		StationID:   s.stationID,
		Timestamp:   now.UTC().Truncate(time.Second),
		Temperature: round1(s.temp),
		Humidity:    round1(s.hum),
	}
	return Message{Reading: &r}
}

func (s *Simulator) walk() {
	s.temp += s.rng.Float64()*1.0 - 0.5
	s.hum += s.rng.Float64()*3.0 - 1.5

	if s.temp < -20 {
		s.temp = -20
	}
	if s.temp > 40 {
		s.temp = 40
	}
	if s.hum < 10 {
		s.hum = 10
	}
	if s.hum > 95 {
		s.hum = 95
	}
}

func (s *Simulator) fault(now time.Time) Message {
	ts := now.UTC().Truncate(time.Second)
	switch s.rng.Intn(5) {
	case 0:
		// Probe failure sentinel.
		return Message{Fault: "sensor_error", Raw: s.marshal(types.Reading{
			StationID: s.stationID, Timestamp: ts, Temperature: -999, Humidity: round1(s.hum),
		})}
	case 1:
		return Message{Fault: "out_of_range", Raw: s.marshal(types.Reading{
			StationID: s.stationID, Timestamp: ts, Temperature: round1(s.temp), Humidity: 150,
		})}
	case 2:
		return Message{Fault: "future_timestamp", Raw: s.marshal(types.Reading{
			StationID: s.stationID, Timestamp: ts.Add(10 * time.Minute),
			Temperature: round1(s.temp), Humidity: round1(s.hum),
		})}
	case 3:
		return Message{Fault: "malformed", Raw: fmt.Appendf(nil,
			`{"station_id":%q,"temperature":"n/a","humidity":`, s.stationID)}
	default:
		// Skipped send: the server only sees silence.
		return Message{Fault: "drop"}
	}
}

func (s *Simulator) marshal(r types.Reading) []byte {
	data, err := json.Marshal(r)
	if err != nil {
		// Reading marshalling cannot fail; keep the publisher moving anyway.
		return []byte("{}")
	}
	return data
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
