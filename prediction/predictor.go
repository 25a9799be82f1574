// Package prediction computes bus arrival predictions and reconciles them
// against observed arrivals. Everything here is pure arithmetic: no I/O,
// no shared state, safe for concurrent use.
package prediction

import (
	"math"
	"time"
)

const (
	TrafficLow    = "low"
	TrafficMedium = "medium"
	TrafficHigh   = "high"

	WeatherClear = "clear"
	WeatherRainy = "rainy"
	WeatherSnowy = "snowy"
	WeatherFoggy = "foggy"

	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeNight     = "night"
)

// Multiplier tables. A value absent from its table contributes no
// adjustment (factor 1.0), which also covers the defaults: medium traffic
// and clear weather. Foggy is listed at 1.0 on purpose; it has no modeled
// effect in the source rule set.
var (
	trafficMultipliers = map[string]float64{
		TrafficLow:    0.8,
		TrafficMedium: 1.0,
		TrafficHigh:   1.5,
	}

	weatherMultipliers = map[string]float64{
		WeatherClear: 1.0,
		WeatherRainy: 1.3,
		WeatherSnowy: 1.3,
		WeatherFoggy: 1.0,
	}

	timeOfDayMultipliers = map[string]float64{
		TimeMorning:   1.2,
		TimeAfternoon: 1.0,
		TimeEvening:   1.2,
		TimeNight:     1.0,
	}
)

// Factors is the snapshot of conditions captured at prediction time.
// DistanceToStop is carried through to the stored record but does not
// enter the travel-time arithmetic.
type Factors struct {
	TrafficConditions string
	WeatherConditions string
	TimeOfDay         string
	CurrentSpeed      float64
	DistanceToStop    float64
}

// TravelTimeMinutes applies the four independent multiplicative
// adjustments to baseTimeMin. neutralSpeedKMH is the speed at which the
// speed adjustment is a no-op; CurrentSpeed == 0 means speed unknown and
// disables the adjustment entirely rather than dividing by zero. The
// speed term is unbounded: a very low nonzero speed produces an
// arbitrarily large result.
func TravelTimeMinutes(baseTimeMin float64, f Factors, neutralSpeedKMH float64) float64 {
	t := baseTimeMin
	t *= multiplier(trafficMultipliers, f.TrafficConditions)
	t *= multiplier(weatherMultipliers, f.WeatherConditions)
	t *= multiplier(timeOfDayMultipliers, f.TimeOfDay)
	if f.CurrentSpeed > 0 {
		t *= neutralSpeedKMH / f.CurrentSpeed
	}
	return t
}

// Compute returns the predicted arrival time: now plus the adjusted
// travel time. For baseTimeMin > 0 the result is strictly after now.
func Compute(baseTimeMin float64, f Factors, neutralSpeedKMH float64, now time.Time) time.Time {
	minutes := TravelTimeMinutes(baseTimeMin, f, neutralSpeedKMH)
	return now.Add(time.Duration(minutes * float64(time.Minute)))
}

// Reconcile scores a prediction against the observed arrival: 100 minus
// 2 points per minute of absolute deviation, clamped to [0, 100] and
// rounded to the nearest integer. 50 minutes of deviation or more
// yields 0.
func Reconcile(predicted, actual time.Time) float64 {
	diffMinutes := math.Abs(predicted.Sub(actual).Minutes())
	accuracy := 100 - 2*diffMinutes
	if accuracy < 0 {
		accuracy = 0
	}
	return math.Round(accuracy)
}

// TimeOfDayForHour buckets a wall-clock hour: morning [5,12),
// afternoon [12,17), evening [17,21), night otherwise.
func TimeOfDayForHour(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return TimeMorning
	case hour >= 12 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 21:
		return TimeEvening
	default:
		return TimeNight
	}
}

func multiplier(table map[string]float64, value string) float64 {
	if m, ok := table[value]; ok {
		return m
	}
	return 1.0
}
