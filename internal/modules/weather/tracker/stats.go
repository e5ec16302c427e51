package tracker

import "time"

const (
	dayKeyFormat  = "2006-01-02"
	hourKeyFormat = "2006-01-02 15:00"

	// Hourly buckets older than this are dropped on tick.
	hourlyRetention = 24 * time.Hour
)

// dailyStats tracks min/max for the current UTC day; a reading from a new day
// resets the extremes.
type dailyStats struct {
	date                   string
	tMin, tMax, hMin, hMax *float64
}

func (d *dailyStats) update(at time.Time, temp, hum float64) {
	day := at.UTC().Format(dayKeyFormat)
	if d.date != day {
		*d = dailyStats{date: day}
	}
	d.tMin = minPtr(d.tMin, temp)
	d.tMax = maxPtr(d.tMax, temp)
	d.hMin = minPtr(d.hMin, hum)
	d.hMax = maxPtr(d.hMax, hum)
}

type hourBucket struct {
	count                  int
	tSum, hSum             float64
	tMin, tMax, hMin, hMax *float64
}

// hourlyStats aggregates readings into per-hour buckets keyed by UTC hour.
type hourlyStats map[string]*hourBucket

func (h hourlyStats) update(at time.Time, temp, hum float64) {
	key := at.UTC().Truncate(time.Hour).Format(hourKeyFormat)
	b := h[key]
	if b == nil {
		b = &hourBucket{}
		h[key] = b
	}
	b.count++
	b.tSum += temp
	b.hSum += hum
	b.tMin = minPtr(b.tMin, temp)
	b.tMax = maxPtr(b.tMax, temp)
	b.hMin = minPtr(b.hMin, hum)
	b.hMax = maxPtr(b.hMax, hum)
}

func (h hourlyStats) prune(now time.Time) {
	cutoff := now.UTC().Add(-hourlyRetention)
	for key := range h {
		t, err := time.Parse(hourKeyFormat, key)
		if err != nil || t.Before(cutoff) {
			delete(h, key)
		}
	}
}

func minPtr(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func maxPtr(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}
