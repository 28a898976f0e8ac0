package tabular

import (
	"fmt"
	"io"
	"time"

	"metcompare/internal/analysis"
)

// ActiGraph export columns
const (
	ColumnDate  = "date"
	ColumnEpoch = "epoch"
	ColumnAxis1 = "axis1"
	ColumnAxis2 = "axis2"
	ColumnAxis3 = "axis3"
)

// ActiGraph exports carry one preamble line before the header.
const actigraphPreamble = 1

// Date and 12-hour clock layouts of the date and epoch columns
const (
	ActiGraphDateLayout = "1/2/2006"
	ActiGraphTimeLayout = "3:04:05 PM"
)

// ActiGraphColumns are the columns an ActiGraph table must carry.
var ActiGraphColumns = []string{ColumnDate, ColumnEpoch, ColumnAxis1, ColumnAxis2, ColumnAxis3}

// ReadActiGraph reads an ActiGraph epoch export.
func ReadActiGraph(name string, r io.Reader) (*Table, error) {
	return ReadCSV(name, r, actigraphPreamble)
}

// ReadActiGraphFile reads an ActiGraph epoch export from disk.
func ReadActiGraphFile(path string) (*Table, error) {
	return ReadFile(path, actigraphPreamble)
}

// ParseActiGraphTime combines a date cell and a 12-hour clock cell in loc.
func ParseActiGraphTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(ActiGraphDateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", date, err)
	}
	c, err := time.Parse(ActiGraphTimeLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing epoch %q: %w", clock, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
}

// EpochCounts converts the table rows into epoch counts. The caller checks
// the required columns first. A row with an unparseable timestamp is an error
// naming the row; count cells that do not parse become NaN.
func EpochCounts(t *Table, loc *time.Location) ([]analysis.EpochCounts, error) {
	dates, err := t.Strings(ColumnDate)
	if err != nil {
		return nil, err
	}
	clocks, err := t.Strings(ColumnEpoch)
	if err != nil {
		return nil, err
	}
	var axes [3][]float64
	for i, c := range []string{ColumnAxis1, ColumnAxis2, ColumnAxis3} {
		if axes[i], err = t.Floats(c); err != nil {
			return nil, err
		}
	}

	out := make([]analysis.EpochCounts, t.Len())
	for i := range out {
		ts, err := ParseActiGraphTime(dates[i], clocks[i], loc)
		if err != nil {
			// 1-based file line, after the preamble and header
			return nil, fmt.Errorf("%s line %d: %w", t.Name, i+actigraphPreamble+2, err)
		}
		out[i] = analysis.EpochCounts{
			Time:  ts,
			Axis1: axes[0][i],
			Axis2: axes[1][i],
			Axis3: axes[2][i],
		}
	}
	return out, nil
}
