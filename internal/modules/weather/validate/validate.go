// Package validate applies schema and range checks to decoded readings.
// Check is a pure function; it never touches shared state.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

const (
	MinTemperature = -50.0
	MaxTemperature = 60.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0

	// Sensors report -999 when the probe fails.
	sensorErrorValue = -999.0
)

// Check validates one Reading against the wire schema, the physical ranges
// and the clock. Checks run in order and short-circuit on the first failure.
func Check(r types.Reading, now time.Time, clockSkewTolerance time.Duration) types.Verdict {
	if r.StationID == "" {
		return invalid(types.ReasonMalformed, "empty station_id")
	}
	if r.Timestamp.IsZero() {
		return invalid(types.ReasonMalformed, "zero timestamp")
	}
	if math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0) {
		return invalid(types.ReasonMalformed, "temperature is not a finite number")
	}
	if math.IsNaN(r.Humidity) || math.IsInf(r.Humidity, 0) {
		return invalid(types.ReasonMalformed, "humidity is not a finite number")
	}

	if r.Temperature == sensorErrorValue {
		return invalid(types.ReasonOutOfRange, fmt.Sprintf("temperature %v is the sensor error value", r.Temperature))
	}
	if r.Temperature < MinTemperature || r.Temperature > MaxTemperature {
		return invalid(types.ReasonOutOfRange,
			fmt.Sprintf("temperature %v outside [%v, %v]", r.Temperature, MinTemperature, MaxTemperature))
	}
	if r.Humidity < MinHumidity || r.Humidity > MaxHumidity {
		return invalid(types.ReasonOutOfRange,
			fmt.Sprintf("humidity %v outside [%v, %v]", r.Humidity, MinHumidity, MaxHumidity))
	}

	if r.Timestamp.After(now.Add(clockSkewTolerance)) {
		return invalid(types.ReasonFutureTimestamp,
			fmt.Sprintf("timestamp %s is beyond now+%s", r.Timestamp.Format(time.RFC3339), clockSkewTolerance))
	}

	return types.Verdict{Valid: true}
}

func invalid(reason types.Reason, detail string) types.Verdict {
	return types.Verdict{Valid: false, Reason: reason, Detail: detail}
}
