package analysis

import (
	"math"
	"time"
)

// VM3 regression coefficients for ActiGraph counts per epoch
const (
	VM3Slope     = 0.000863
	VM3Intercept = 0.668876
)

// EpochCounts is one ActiGraph epoch row.
type EpochCounts struct {
	Time                time.Time
	Axis1, Axis2, Axis3 float64
}

// VM3 returns the vector magnitude of the three count axes.
func VM3(axis1, axis2, axis3 float64) float64 {
	return math.Sqrt(axis1*axis1 + axis2*axis2 + axis3*axis3)
}

// VM3MET converts three-axis counts to METs.
func VM3MET(axis1, axis2, axis3 float64) float64 {
	return VM3Slope*VM3(axis1, axis2, axis3) + VM3Intercept
}

// VM3ForMinute returns the METs of the first epoch inside
// [start, start+1m). ok is false when no epoch falls in the minute.
func VM3ForMinute(rows []EpochCounts, start time.Time) (met float64, ok bool) {
	end := start.Add(time.Minute)
	for _, r := range rows {
		if !r.Time.Before(start) && r.Time.Before(end) {
			return VM3MET(r.Axis1, r.Axis2, r.Axis3), true
		}
	}
	return 0, false
}
