package tabular

import (
	"fmt"
	"math"

	"metcompare/internal/signal"
)

// Column names of wrist exports
const (
	ColumnTime = "Time"
	ColumnAccX = "accX"
	ColumnAccY = "accY"
	ColumnAccZ = "accZ"
	ColumnRotX = "rotX"
	ColumnRotY = "rotY"
	ColumnRotZ = "rotZ"
)

// Kind identifies the sensor a wrist table came from.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccelerometer
	KindGyroscope
)

func (k Kind) String() string {
	switch k {
	case KindAccelerometer:
		return "accelerometer"
	case KindGyroscope:
		return "gyroscope"
	}
	return "unknown"
}

// Columns returns the time and channel columns of the sensor kind.
func (k Kind) Columns() []string {
	switch k {
	case KindAccelerometer:
		return []string{ColumnTime, ColumnAccX, ColumnAccY, ColumnAccZ}
	case KindGyroscope:
		return []string{ColumnTime, ColumnRotX, ColumnRotY, ColumnRotZ}
	}
	return nil
}

// ParseKind maps "acc"/"accelerometer" and "gyro"/"gyroscope" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "acc", "accel", "accelerometer":
		return KindAccelerometer, nil
	case "gyro", "gyroscope":
		return KindGyroscope, nil
	}
	return KindUnknown, fmt.Errorf("unknown sensor kind %q", s)
}

// SensorTable is a wrist upload with its sensor kind. A zero Kind means the
// caller did not tag it.
type SensorTable struct {
	*Table
	Kind Kind
}

// DetectKind infers the sensor from the column set. Tables carrying both or
// neither column set are KindUnknown.
func DetectKind(t *Table) Kind {
	acc := t.Has(KindAccelerometer.Columns()...)
	gyro := t.Has(KindGyroscope.Columns()...)
	switch {
	case acc && !gyro:
		return KindAccelerometer
	case gyro && !acc:
		return KindGyroscope
	}
	return KindUnknown
}

// ResolveKind returns the tagged kind, or the detected one when untagged.
func (s SensorTable) ResolveKind() Kind {
	if s.Kind != KindUnknown {
		return s.Kind
	}
	return DetectKind(s.Table)
}

// Series converts the table to a series of the sensor's columns. Cells are
// coerced to numbers and rows whose timestamp does not parse get a NaN
// channel so cleaning drops them.
func (s SensorTable) Series() (*signal.Series, error) {
	kind := s.ResolveKind()
	columns := kind.Columns()
	if columns == nil {
		return nil, fmt.Errorf("%s: cannot tell accelerometer from gyroscope", s.Name)
	}
	if missing := s.Missing(columns...); len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %v", s.Name, ErrMissingColumn, missing)
	}

	times, err := s.Floats(ColumnTime)
	if err != nil {
		return nil, err
	}

	out := signal.NewSeries(ColumnTime, columns)
	out.Time = make([]int64, len(times))
	for _, c := range columns[1:] {
		values, err := s.Floats(c)
		if err != nil {
			return nil, err
		}
		out.Channels[c] = values
	}

	for i, ts := range times {
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			out.Channels[columns[1]][i] = math.NaN()
			continue
		}
		out.Time[i] = int64(ts)
	}
	return out, nil
}
