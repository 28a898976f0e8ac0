// Package signal holds multi-channel sensor series and the time-domain
// conditioning applied before feature extraction: cleaning, uniform-rate
// resampling, range rescaling and minute-window alignment.
package signal

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// ErrInsufficientData is returned when a series is too short to be processed.
var ErrInsufficientData = errors.New("insufficient data")

// Plausible millisecond epoch bounds for raw timestamps
const (
	MinEpochMillis = 1_000_000_000_000
	MaxEpochMillis = 10_000_000_000_000
)

// Series is a set of channels sharing one millisecond timestamp axis.
type Series struct {
	TimeColumn string
	Columns    []string // original column order, including TimeColumn
	Time       []int64  // ms since Unix epoch, non-decreasing
	Channels   map[string][]float64
}

// NewSeries creates an empty series with the given column layout.
func NewSeries(timeColumn string, columns []string) *Series {
	return &Series{
		TimeColumn: timeColumn,
		Columns:    append([]string(nil), columns...),
		Channels:   make(map[string][]float64, len(columns)),
	}
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Time)
}

// ChannelNames returns the data columns in their original order.
func (s *Series) ChannelNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c != s.TimeColumn {
			names = append(names, c)
		}
	}
	return names
}

// Channel returns the samples of a channel, or nil if absent.
func (s *Series) Channel(name string) []float64 {
	return s.Channels[name]
}

// Slice returns the samples with from <= Time < to. Channel slices share
// memory with s.
func (s *Series) Slice(from, to int64) *Series {
	lo := sort.Search(len(s.Time), func(i int) bool { return s.Time[i] >= from })
	hi := sort.Search(len(s.Time), func(i int) bool { return s.Time[i] >= to })
	if hi < lo {
		hi = lo
	}

	out := NewSeries(s.TimeColumn, s.Columns)
	out.Time = s.Time[lo:hi]
	for name, values := range s.Channels {
		out.Channels[name] = values[lo:hi]
	}
	return out
}

// SliceWindow returns the samples inside the half-open window.
func (s *Series) SliceWindow(w Window) *Series {
	return s.Slice(w.Start.UnixMilli(), w.End.UnixMilli())
}

// Timestamps converts the time axis to wall-clock times in loc.
func (s *Series) Timestamps(loc *time.Location) []time.Time {
	out := make([]time.Time, len(s.Time))
	for i, ms := range s.Time {
		out[i] = time.UnixMilli(ms).In(loc)
	}
	return out
}

// CountNaN returns how many samples of the channel are NaN.
func (s *Series) CountNaN(name string) int {
	count := 0
	for _, v := range s.Channels[name] {
		if math.IsNaN(v) {
			count++
		}
	}
	return count
}

// Clean sorts samples by time, drops duplicate timestamps (first wins), rows
// with a NaN channel and timestamps outside the plausible epoch range.
func Clean(s *Series) *Series {
	names := s.ChannelNames()

	idx := make([]int, 0, s.Len())
	for i, ts := range s.Time {
		if ts <= MinEpochMillis || ts >= MaxEpochMillis {
			continue
		}
		valid := true
		for _, name := range names {
			if math.IsNaN(s.Channels[name][i]) {
				valid = false
				break
			}
		}
		if valid {
			idx = append(idx, i)
		}
	}

	sort.SliceStable(idx, func(a, b int) bool { return s.Time[idx[a]] < s.Time[idx[b]] })

	out := NewSeries(s.TimeColumn, s.Columns)
	for _, name := range names {
		out.Channels[name] = make([]float64, 0, len(idx))
	}
	for k, i := range idx {
		if k > 0 && s.Time[i] == out.Time[len(out.Time)-1] {
			continue
		}
		out.Time = append(out.Time, s.Time[i])
		for _, name := range names {
			out.Channels[name] = append(out.Channels[name], s.Channels[name][i])
		}
	}
	return out
}

// Range is a closed target interval for Rescale.
type Range struct {
	Min, Max float64
}

// Rescale maps each listed channel from its observed range onto the target
// range. NaN samples are ignored when finding the observed range and stay NaN.
// Channels with a constant (or entirely missing) signal are left unchanged.
func Rescale(s *Series, targets map[string]Range) *Series {
	out := NewSeries(s.TimeColumn, s.Columns)
	out.Time = s.Time
	for name, values := range s.Channels {
		target, ok := targets[name]
		if !ok {
			out.Channels[name] = values
			continue
		}
		lo, hi, ok := nanMinMax(values)
		if !ok || hi == lo {
			out.Channels[name] = values
			continue
		}
		scaled := make([]float64, len(values))
		copy(scaled, values)
		floats.AddConst(-hi, scaled)
		floats.Scale((target.Max-target.Min)/(hi-lo), scaled)
		floats.AddConst(target.Max, scaled)
		out.Channels[name] = scaled
	}
	return out
}

func nanMinMax(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}
