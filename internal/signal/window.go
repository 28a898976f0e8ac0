package signal

import (
	"time"
)

// EpochMinutes is the grid the recording boundaries are aligned to.
const EpochMinutes = 10

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window starting at start lasting d.
func NewWindow(start time.Time, d time.Duration) Window {
	return Window{Start: start, End: start.Add(d)}
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// TimeParameters returns the first and last minute boundaries used to
// segment a recording. The start is floored to the 10-minute epoch grid and
// moved one minute forward; the end is floored to the grid.
func TimeParameters(s *Series, loc *time.Location) (start, end time.Time, err error) {
	if s.Len() == 0 {
		return time.Time{}, time.Time{}, ErrInsufficientData
	}
	first := time.UnixMilli(s.Time[0]).In(loc)
	last := time.UnixMilli(s.Time[s.Len()-1]).In(loc)
	return AlignStart(first), AlignEnd(last), nil
}

// AlignStart floors t to the epoch grid and adds one minute.
func AlignStart(t time.Time) time.Time {
	return floorToEpoch(t).Add(time.Minute)
}

// AlignEnd floors t to the epoch grid.
func AlignEnd(t time.Time) time.Time {
	return floorToEpoch(t)
}

func floorToEpoch(t time.Time) time.Time {
	offset := time.Duration(t.Minute()%EpochMinutes)*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return t.Add(-offset)
}

// Minutes returns the start of every whole minute in [start, end). An end at
// or before start yields no minutes.
func Minutes(start, end time.Time) []time.Time {
	if !end.After(start) {
		return nil
	}
	n := int(end.Sub(start) / time.Minute)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Minute)
	}
	return out
}
