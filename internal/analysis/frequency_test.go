package analysis

import (
	"math"
	"testing"
)

func TestFreqIntensity(t *testing.T) {
	const n = 200
	const fs = 100.0
	const bin = 10

	x := make([]float64, n+1)
	y := make([]float64, n+1)
	z := make([]float64, n+1)
	for i := range x {
		x[i] = 10 + 3*math.Cos(2*math.Pi*bin*float64(i)/n)
	}

	tests := []struct {
		name string
		topK int
		want float64
	}{
		{"strongest bin is DC", 0, 0},
		{"second strongest bin is the oscillation", 1, bin * fs / n},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FreqIntensity(x, y, z, fs, tt.topK)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FreqIntensity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFreqIntensityMissing(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name    string
		x, y, z []float64
	}{
		{"empty", nil, nil, nil},
		{"all NaN", []float64{nan, nan, nan}, []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"too few bins", []float64{1, 2, 3}, []float64{0, 0, 0}, []float64{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FreqIntensity(tt.x, tt.y, tt.z, 100, 1); !math.IsNaN(got) {
				t.Errorf("FreqIntensity() = %v, want NaN", got)
			}
		})
	}
}

func TestRMSSD(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name    string
		x, y, z []float64
		norm    Norm
		want    float64
	}{
		{
			name: "l1 scales each axis by its absolute sum",
			x:    []float64{1, 2, 3, 4},
			y:    []float64{0, 0, 0, 0},
			z:    []float64{0, 0, 0, 0},
			norm: NormL1,
			want: math.Sqrt(0.03 / 4),
		},
		{
			name: "l2 scales each axis by its euclidean norm",
			x:    []float64{1, 2, 3, 4},
			y:    []float64{0, 0, 0, 0},
			z:    []float64{0, 0, 0, 0},
			norm: NormL2,
			want: math.Sqrt(0.1 / 4),
		},
		{
			name: "minmax rescales each sample across axes",
			x:    []float64{1, 5},
			y:    []float64{1, 0},
			z:    []float64{1, 10},
			norm: NormMinMax,
			want: math.Sqrt(1.25 / 2),
		},
		{
			name: "NaN samples are dropped",
			x:    []float64{1, nan, 2, 3, 4},
			y:    []float64{0, 5, 0, 0, 0},
			z:    []float64{0, 5, 0, 0, 0},
			norm: NormL1,
			want: math.Sqrt(0.03 / 4),
		},
		{
			name: "single sample",
			x:    []float64{1},
			y:    []float64{1},
			z:    []float64{1},
			norm: NormL2,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RMSSD(tt.x, tt.y, tt.z, tt.norm)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("RMSSD() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMSSDAllNaN(t *testing.T) {
	nan := math.NaN()
	x := []float64{nan, nan}
	if got := RMSSD(x, x, x, NormL1); !math.IsNaN(got) {
		t.Errorf("RMSSD() = %v, want NaN", got)
	}
	if got := RMSSD(nil, nil, nil, NormL2); !math.IsNaN(got) {
		t.Errorf("RMSSD(empty) = %v, want NaN", got)
	}
}

func TestRMSSDDoesNotModifyInput(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	zero := []float64{0, 0, 0, 0}
	RMSSD(x, zero, zero, NormL1)
	if x[3] != 4 {
		t.Errorf("input modified: %v", x)
	}
}
