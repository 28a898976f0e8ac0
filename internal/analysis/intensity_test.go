package analysis

import (
	"math"
	"testing"
	"time"

	"metcompare/internal/store"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestIntensity(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name    string
		x, y, z []float64
		want    float64
	}{
		{"unit spread on x", []float64{1, 2, 3}, []float64{0, 0, 0}, []float64{0, 0, 0}, 1},
		{"NaN x samples skipped", []float64{1, nan, 2, 3}, []float64{0, 9, 0, 0}, []float64{0, 9, 0, 0}, 1},
		{"constant signal", []float64{1, 1}, []float64{2, 2}, []float64{3, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Intensity(tt.x, tt.y, tt.z)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Intensity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntensityTooFewSamples(t *testing.T) {
	if got := Intensity([]float64{1}, []float64{1}, []float64{1}); !math.IsNaN(got) {
		t.Errorf("Intensity(single) = %v, want NaN", got)
	}
	nan := math.NaN()
	if got := Intensity([]float64{nan, nan}, []float64{1, 1}, []float64{1, 1}); !math.IsNaN(got) {
		t.Errorf("Intensity(all NaN) = %v, want NaN", got)
	}
}

func TestRawEstimate(t *testing.T) {
	nan := math.NaN()
	x := []float64{1, nan, 2, 3}
	zero := []float64{0, 0, 0, 0}

	tests := []struct {
		name     string
		expected int
		want     float64
	}{
		{"missing within tolerance", 10, 1*IntensitySlope + IntensityIntercept},
		{"missing above a tenth", 5, nan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RawEstimate(x, zero, zero, tt.expected)
			if math.IsNaN(tt.want) {
				if !math.IsNaN(got) {
					t.Errorf("RawEstimate() = %v, want NaN", got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("RawEstimate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVM3MET(t *testing.T) {
	tests := []struct {
		name                string
		axis1, axis2, axis3 float64
		want                float64
	}{
		{"no movement", 0, 0, 0, 0.668876},
		{"3-4-5 counts", 3, 4, 0, 0.000863*5 + 0.668876},
		{"typical walking epoch", 2000, 1500, 1000, 0.000863*math.Sqrt(7_250_000) + 0.668876},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VM3MET(tt.axis1, tt.axis2, tt.axis3)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("VM3MET() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVM3ForMinute(t *testing.T) {
	start := time.Date(2021, 6, 1, 9, 31, 0, 0, time.UTC)
	rows := []EpochCounts{
		{Time: start.Add(-30 * time.Second), Axis1: 100},
		{Time: start.Add(15 * time.Second), Axis1: 3, Axis2: 4},
		{Time: start.Add(45 * time.Second), Axis1: 1000},
	}

	met, ok := VM3ForMinute(rows, start)
	if !ok {
		t.Fatal("expected an epoch inside the minute")
	}
	if want := VM3MET(3, 4, 0); math.Abs(met-want) > 1e-12 {
		t.Errorf("VM3ForMinute() = %v, want first epoch %v", met, want)
	}

	if _, ok := VM3ForMinute(rows, start.Add(time.Minute)); ok {
		t.Error("expected no epoch in the following minute")
	}
}

func TestCompareEstimates(t *testing.T) {
	start := time.Date(2021, 6, 1, 9, 31, 0, 0, time.UTC)
	at := func(i int) time.Time { return start.Add(time.Duration(i) * time.Minute) }

	wrist := []store.Estimate{
		{Timestamp: at(0), MET: floatPtr(1)},
		{Timestamp: at(1), MET: floatPtr(2)},
		{Timestamp: at(2), MET: floatPtr(3)},
		{Timestamp: at(3), MET: nil},
		{Timestamp: at(4), MET: floatPtr(9)},
	}
	reference := []store.Estimate{
		{Timestamp: at(0), MET: floatPtr(1.5)},
		{Timestamp: at(1), MET: floatPtr(2.5)},
		{Timestamp: at(2), MET: floatPtr(2)},
		{Timestamp: at(3), MET: floatPtr(1)},
	}

	got := CompareEstimates(wrist, reference)

	if got.Pairs != 3 {
		t.Fatalf("Pairs = %d, want 3", got.Pairs)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"Bias", got.Bias, 0},
		{"MAE", got.MAE, 2.0 / 3},
		{"RMSE", got.RMSE, math.Sqrt(0.5)},
		{"Correlation", got.Correlation, 0.5},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestCompareEstimatesNoOverlap(t *testing.T) {
	start := time.Date(2021, 6, 1, 9, 31, 0, 0, time.UTC)
	got := CompareEstimates(
		[]store.Estimate{{Timestamp: start, MET: floatPtr(1)}},
		[]store.Estimate{{Timestamp: start.Add(time.Minute), MET: floatPtr(1)}},
	)
	if got.Pairs != 0 || !math.IsNaN(got.MAE) || !math.IsNaN(got.Correlation) {
		t.Errorf("CompareEstimates() = %+v, want no pairs and NaN metrics", got)
	}
}
