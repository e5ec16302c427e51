package tracker

import (
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

// windowSpan is the trailing period covered by the rolling averages.
const windowSpan = 5 * time.Minute

type windowEntry struct {
	ts   time.Time
	temp float64
	hum  float64
}

// window holds the recent valid readings of one station, oldest first.
// Expiry is lazy: callers expire on every add and every read, so the window
// never needs a background sweep.
type window struct {
	entries []windowEntry
}

func (w *window) add(r types.Reading) {
	e := windowEntry{ts: r.Timestamp, temp: r.Temperature, hum: r.Humidity}

	// Readings normally arrive in order; append and fix up the rare
	// out-of-order timestamp so the slice stays oldest-first.
	n := len(w.entries)
	if n == 0 || !e.ts.Before(w.entries[n-1].ts) {
		w.entries = append(w.entries, e)
		return
	}
	i := n
	for i > 0 && w.entries[i-1].ts.After(e.ts) {
		i--
	}
	w.entries = append(w.entries, windowEntry{})
	copy(w.entries[i+1:], w.entries[i:])
	w.entries[i] = e
}

// expire drops every entry older than windowSpan relative to now.
func (w *window) expire(now time.Time) {
	cutoff := now.Add(-windowSpan)
	i := 0
	for i < len(w.entries) && w.entries[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}

// averages expires stale entries and returns the arithmetic means over the
// remainder, or nils when the window is empty.
func (w *window) averages(now time.Time) (avgTemp, avgHum *float64) {
	w.expire(now)
	if len(w.entries) == 0 {
		return nil, nil
	}

	var tSum, hSum float64
	for _, e := range w.entries {
		tSum += e.temp
		hSum += e.hum
	}
	n := float64(len(w.entries))
	t := tSum / n
	h := hSum / n
	return &t, &h
}

func (w *window) size() int { return len(w.entries) }
