package tracker

import (
	"testing"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

func wreading(sec int, temp float64) types.Reading {
	return types.Reading{StationID: "WS-01", Timestamp: at(sec), Temperature: temp, Humidity: 50}
}

func TestWindowKeepsEntriesOldestFirst(t *testing.T) {
	var w window
	w.add(wreading(10, 1))
	w.add(wreading(30, 3))
	w.add(wreading(20, 2))

	want := []time.Time{at(10), at(20), at(30)}
	if len(w.entries) != len(want) {
		t.Fatalf("len = %d; want %d", len(w.entries), len(want))
	}
	for i, ts := range want {
		if !w.entries[i].ts.Equal(ts) {
			t.Errorf("entries[%d].ts = %v; want %v", i, w.entries[i].ts, ts)
		}
	}
}

func TestWindowExpireDropsOnlyOldEntries(t *testing.T) {
	var w window
	w.add(wreading(0, 1))
	w.add(wreading(100, 2))
	w.add(wreading(200, 3))

	w.expire(at(350)) // cutoff at t=50

	if got := w.size(); got != 2 {
		t.Fatalf("size after expire = %d; want 2", got)
	}
	if !w.entries[0].ts.Equal(at(100)) {
		t.Errorf("oldest remaining = %v; want %v", w.entries[0].ts, at(100))
	}
}

func TestWindowAveragesEmpty(t *testing.T) {
	var w window
	avgT, avgH := w.averages(at(0))
	if avgT != nil || avgH != nil {
		t.Errorf("averages of empty window = (%v, %v); want (nil, nil)", avgT, avgH)
	}
}
