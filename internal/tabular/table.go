// Package tabular reads uploaded CSV files into named-column tables and
// converts sensor tables into signal series.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrNoHeader is returned when a file has no header row.
	ErrNoHeader = errors.New("no header row")
	// ErrDuplicateColumn is returned when a header names a column twice.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrMissingColumn is returned when a requested column does not exist.
	ErrMissingColumn = errors.New("missing column")
)

// Table is a CSV file held as strings, addressed by column name.
type Table struct {
	Name    string // file name or caller label, used in errors
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a table from a header and rows.
func NewTable(name string, columns []string, rows [][]string) (*Table, error) {
	t := &Table{Name: name, Columns: columns, Rows: rows, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		t.index[c] = i
	}
	return t, nil
}

// ReadCSV reads a table whose header follows skip preamble lines.
func ReadCSV(name string, r io.Reader, skip int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for i := 0; i < skip; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
			}
			return nil, fmt.Errorf("%s: reading preamble: %w", name, err)
		}
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", name, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: reading rows: %w", name, err)
	}
	return NewTable(name, header, rows)
}

// ReadFile reads a CSV file from disk.
func ReadFile(path string, skip int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(path, f, skip)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether every named column exists.
func (t *Table) Has(columns ...string) bool {
	for _, c := range columns {
		if _, ok := t.index[c]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the named columns that do not exist.
func (t *Table) Missing(columns ...string) []string {
	var missing []string
	for _, c := range columns {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Strings returns the raw values of a column. Short rows yield "".
func (t *Table) Strings(column string) ([]string, error) {
	i, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = strings.TrimSpace(row[i])
		}
	}
	return out, nil
}

// Floats returns a column coerced to numbers; values that do not parse
// become NaN.
func (t *Table) Floats(column string) ([]float64, error) {
	raw, err := t.Strings(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, s := range raw {
		out[i] = parseFloat(s)
	}
	return out, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
