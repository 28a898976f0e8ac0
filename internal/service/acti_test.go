package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"metcompare/internal/store"
	"metcompare/internal/tabular"
)

const actiCSV = `------------ Data File Created By ActiGraph -----------
date,epoch,axis1,axis2,axis3
6/1/2021,9:31:00 AM,0,0,0
6/1/2021,9:32:00 AM,3,4,0
6/1/2021,9:34:00 AM,2000,1500,1000
`

func readActi(t *testing.T, input string) *tabular.Table {
	t.Helper()
	tbl, err := tabular.ReadActiGraph("acti.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadActiGraph() error = %v", err)
	}
	return tbl
}

func TestActiProcess(t *testing.T) {
	loc := time.FixedZone("CDT", -5*3600)
	svc := NewActiService(loc, nil)

	res, err := svc.Process(context.Background(), readActi(t, actiCSV))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(res.Estimates) != 3 {
		t.Fatalf("len(Estimates) = %d, want 3", len(res.Estimates))
	}

	want := []float64{0.668876, 0.000863*5 + 0.668876, 0.000863*math.Sqrt(7_250_000) + 0.668876}
	for i, e := range res.Estimates {
		if e.MET == nil || math.Abs(*e.MET-want[i]) > 1e-12 {
			t.Errorf("Estimates[%d].MET = %v, want %v", i, e.MET, want[i])
		}
	}
	if !res.Estimates[0].Timestamp.Equal(time.Date(2021, 6, 1, 9, 31, 0, 0, loc)) {
		t.Errorf("Estimates[0].Timestamp = %v, want 09:31 CDT", res.Estimates[0].Timestamp)
	}
	if res.Source != store.SourceActigraph {
		t.Errorf("Source = %q, want %q", res.Source, store.SourceActigraph)
	}
}

func TestActiProcessMinutes(t *testing.T) {
	svc := NewActiService(time.UTC, nil)
	start := time.Date(2021, 6, 1, 9, 31, 0, 0, time.UTC)
	minutes := []time.Time{start, start.Add(time.Minute), start.Add(2 * time.Minute)}

	res, err := svc.ProcessMinutes(context.Background(), readActi(t, actiCSV), minutes)
	if err != nil {
		t.Fatalf("ProcessMinutes() error = %v", err)
	}
	if len(res.Estimates) != 3 {
		t.Fatalf("len(Estimates) = %d, want 3", len(res.Estimates))
	}
	if res.Estimates[1].MET == nil || math.Abs(*res.Estimates[1].MET-(0.000863*5+0.668876)) > 1e-12 {
		t.Errorf("09:32 MET = %v, want VM3 of (3,4,0)", res.Estimates[1].MET)
	}
	if res.Estimates[2].MET != nil {
		t.Errorf("09:33 has no epoch, MET = %v, want empty", *res.Estimates[2].MET)
	}
	if res.Summary.Empty != 1 {
		t.Errorf("Summary.Empty = %d, want 1", res.Summary.Empty)
	}
}

func TestActiProcessErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"missing axis3", "preamble\ndate,epoch,axis1,axis2\n6/1/2021,9:31:00 AM,0,0\n", ErrMissingColumns},
		{"no epochs", "preamble\ndate,epoch,axis1,axis2,axis3\n", ErrEmptyChannel},
	}

	svc := NewActiService(time.UTC, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Process(context.Background(), readActi(t, tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Process() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Error("Process() should not return partial output")
			}
		})
	}
}

func TestActiProcessBadTime(t *testing.T) {
	svc := NewActiService(time.UTC, nil)
	input := "preamble\ndate,epoch,axis1,axis2,axis3\n6/1/2021,9:31:00 AM,0,0,0\n13/45/2021,9:32:00 AM,0,0,0\n"

	_, err := svc.Process(context.Background(), readActi(t, input))
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Errorf("Process() error = %v, want one naming line 4", err)
	}
}
