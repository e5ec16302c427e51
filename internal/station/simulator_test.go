package station

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNextProducesValidReadings(t *testing.T) {
	sim := New("WS-01", 0, 42)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		msg := sim.Next(now.Add(time.Duration(i) * 5 * time.Second))
		if msg.Reading == nil {
			t.Fatalf("Next() with faultRate 0 returned fault %q", msg.Fault)
		}
		r := msg.Reading
		if r.StationID != "WS-01" {
			t.Errorf("StationID = %q; want %q", r.StationID, "WS-01")
		}
		if r.Temperature < -50 || r.Temperature > 60 {
			t.Errorf("Temperature = %v out of plausible range", r.Temperature)
		}
		if r.Humidity < 0 || r.Humidity > 100 {
			t.Errorf("Humidity = %v out of plausible range", r.Humidity)
		}
		if !r.Timestamp.Equal(r.Timestamp.Truncate(time.Second)) {
			t.Errorf("Timestamp = %v not truncated to seconds", r.Timestamp)
		}
	}
}

func TestNextAlwaysFaultsAtRateOne(t *testing.T) {
	sim := New("WS-02", 1, 7)
	now := time.Now()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		msg := sim.Next(now)
		if msg.Reading != nil {
			t.Fatal("Next() with faultRate 1 returned a clean reading")
		}
		if msg.Fault != "drop" && len(msg.Raw) == 0 {
			t.Fatalf("fault %q has empty payload", msg.Fault)
		}
		seen[msg.Fault] = true
	}
	for _, kind := range []string{"sensor_error", "out_of_range", "future_timestamp", "malformed", "drop"} {
		if !seen[kind] {
			t.Errorf("fault kind %q never produced in 100 sends", kind)
		}
	}
}

func TestFaultPayloadShapes(t *testing.T) {
	sim := New("WS-03", 1, 3)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		msg := sim.Next(now)
		if msg.Fault == "drop" {
			continue
		}
		var decoded map[string]any
		err := json.Unmarshal(msg.Raw, &decoded)
		switch msg.Fault {
		case "malformed":
			if err == nil {
				t.Errorf("malformed payload unexpectedly parsed: %s", msg.Raw)
			}
		default:
			if err != nil {
				t.Errorf("fault %q payload does not parse: %v", msg.Fault, err)
			}
		}
	}
}

func TestDeterministicForSeed(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	a, b := New("WS-04", 0.2, 99), New("WS-04", 0.2, 99)

	for i := 0; i < 50; i++ {
		ma, mb := a.Next(now), b.Next(now)
		if ma.Fault != mb.Fault {
			t.Fatalf("send %d: fault %q != %q", i, ma.Fault, mb.Fault)
		}
		if (ma.Reading == nil) != (mb.Reading == nil) {
			t.Fatalf("send %d: reading presence diverged", i)
		}
		if ma.Reading != nil && *ma.Reading != *mb.Reading {
			t.Fatalf("send %d: readings diverged: %+v vs %+v", i, *ma.Reading, *mb.Reading)
		}
	}
}
