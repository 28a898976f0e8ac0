// Package export writes output tables to CSV or Parquet files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"metcompare/internal/store"
)

// Output formats
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// ErrUnknownFormat is returned for a format other than csv or parquet.
var ErrUnknownFormat = errors.New("unknown output format")

// TimeLayout is the timestamp layout of both formats.
const TimeLayout = time.RFC3339

// ParseFormat normalizes a format name.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case FormatCSV, FormatParquet:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Write stores estimates at path in the given format.
func Write(path, format string, estimates []store.Estimate) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}

	if format == FormatParquet {
		fw, err := local.NewLocalFileWriter(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := writeParquet(fw, estimates); err != nil {
			fw.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return fw.Close()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeCSV(f, estimates); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// Encode writes estimates to w in the given format.
func Encode(w io.Writer, format string, estimates []store.Estimate) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if format == FormatCSV {
		return writeCSV(w, estimates)
	}

	data, err := MarshalParquet(estimates)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeCSV(w io.Writer, estimates []store.Estimate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "mets"}); err != nil {
		return err
	}
	for _, e := range estimates {
		if err := cw.Write([]string{e.Timestamp.Format(TimeLayout), formatFloatPtr(e.MET)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// Row is the Parquet layout of one estimate. A missing MET is a null.
type Row struct {
	Timestamp string   `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	UnixMilli int64    `parquet:"name=unix_ms, type=INT64"`
	MET       *float64 `parquet:"name=mets, type=DOUBLE, repetitiontype=OPTIONAL"`
}

func toRow(e store.Estimate) Row {
	return Row{
		Timestamp: e.Timestamp.Format(TimeLayout),
		UnixMilli: e.Timestamp.UnixMilli(),
		MET:       e.MET,
	}
}

// MarshalParquet encodes estimates as an in-memory Parquet file.
func MarshalParquet(estimates []store.Estimate) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeParquet(fw, estimates); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func writeParquet(fw source.ParquetFile, estimates []store.Estimate) error {
	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, e := range estimates {
		if err := pw.Write(toRow(e)); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}
