package signal

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyGrid is returned when ResampleFixed is given no target times.
var ErrEmptyGrid = errors.New("empty target grid")

// Resample converts s to a uniform grid of samplingRate samples per second
// using linear interpolation between the bracketing raw samples.
//
// The first output sample is the first raw sample, copied verbatim. Grid
// times advance by 1000/samplingRate ms and are truncated to whole
// milliseconds on output. When the raw samples bracketing a grid time are
// more than gapTolerance ms apart the output is NaN; a gapTolerance of 0
// disables the check.
//
// Series with fewer than two samples return ErrInsufficientData.
func Resample(s *Series, samplingRate, gapTolerance float64) (*Series, error) {
	if samplingRate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %v", samplingRate)
	}
	if gapTolerance < 0 || math.IsNaN(gapTolerance) {
		return nil, fmt.Errorf("gap tolerance must be non-negative, got %v", gapTolerance)
	}
	n := s.Len()
	if n < 2 {
		return nil, ErrInsufficientData
	}

	unix := s.Time
	deltaT := 1000.0 / samplingRate
	last := float64(unix[n-1])

	// brackets[k] is the raw index at or after targets[k]; the origin uses -1
	targets := []float64{float64(unix[0])}
	brackets := []int{-1}

	t := float64(unix[0]) + deltaT
	after := 1
	for {
		for i := after; i < n; i++ {
			if t <= float64(unix[i]) {
				after = i
				break
			}
		}
		targets = append(targets, t)
		brackets = append(brackets, after)

		t += deltaT
		if t > last {
			break
		}
	}

	out := NewSeries(s.TimeColumn, s.Columns)
	out.Time = make([]int64, len(targets))
	out.Time[0] = unix[0]
	for k := 1; k < len(targets); k++ {
		out.Time[k] = int64(targets[k])
	}

	for _, name := range s.ChannelNames() {
		src := s.Channels[name]
		dst := make([]float64, len(targets))
		dst[0] = src[0]
		for k := 1; k < len(targets); k++ {
			dst[k] = bracketValue(unix, src, brackets[k], targets[k], gapTolerance)
		}
		out.Channels[name] = dst
	}

	return out, nil
}

// ResampleFixed interpolates s at externally supplied target times. Targets
// at or before the first raw timestamp, or past the raw series, are NaN.
// Resampling stops once the grid is exhausted or after the first target
// beyond the last raw timestamp.
func ResampleFixed(s *Series, grid []int64, gapTolerance float64) (*Series, error) {
	if gapTolerance < 0 || math.IsNaN(gapTolerance) {
		return nil, fmt.Errorf("gap tolerance must be non-negative, got %v", gapTolerance)
	}
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}
	n := s.Len()
	if n < 2 {
		return nil, ErrInsufficientData
	}

	unix := s.Time
	last := unix[n-1]

	// A bracket of 0 means there is no raw sample before the target
	var targets []int64
	var brackets []int

	after := 0
	found := false
	for _, t := range grid {
		for i := after; i < n; i++ {
			if t <= unix[i] {
				after = i
				found = true
				break
			}
		}
		bracket := 0
		if found {
			bracket = after
		}
		targets = append(targets, t)
		brackets = append(brackets, bracket)

		if t > last {
			break
		}
	}

	out := NewSeries(s.TimeColumn, s.Columns)
	out.Time = targets
	for _, name := range s.ChannelNames() {
		src := s.Channels[name]
		dst := make([]float64, len(targets))
		for k, t := range targets {
			if brackets[k] == 0 {
				dst[k] = math.NaN()
				continue
			}
			dst[k] = bracketValue(unix, src, brackets[k], float64(t), gapTolerance)
		}
		out.Channels[name] = dst
	}

	return out, nil
}

// bracketValue interpolates between raw samples after-1 and after, or
// returns NaN when they are further apart than gapTolerance.
func bracketValue(unix []int64, src []float64, after int, t, gapTolerance float64) float64 {
	t1, t2 := unix[after-1], unix[after]
	gap := t1 - t2
	if gap < 0 {
		gap = -gap
	}
	if gapTolerance == 0 || float64(gap) <= gapTolerance {
		return interpolate(float64(t1), src[after-1], float64(t2), src[after], t)
	}
	return math.NaN()
}

// interpolate evaluates the line through (t1,s1) and (t2,s2) at t, or
// returns NaN when t lies outside [t1, t2].
func interpolate(t1, s1, t2, s2, t float64) float64 {
	if t1 <= t && t <= t2 {
		m := (s2 - s1) / (t2 - t1)
		b := s1 - m*t1
		return m*t + b
	}
	return math.NaN()
}
