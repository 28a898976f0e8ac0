package analysis

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Norm selects how RMSSD normalizes the triaxial signal.
type Norm int

const (
	NormL2 Norm = iota
	NormL1
	NormMinMax
)

func (n Norm) String() string {
	switch n {
	case NormL1:
		return "l1"
	case NormL2:
		return "l2"
	case NormMinMax:
		return "minmax"
	}
	return "unknown"
}

// dropNaN keeps the samples where none of the three axes is NaN.
func dropNaN(x, y, z []float64) (xs, ys, zs []float64) {
	n := min(len(x), len(y), len(z))
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsNaN(z[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
		zs = append(zs, z[i])
	}
	return xs, ys, zs
}

// FreqIntensity returns the frequency in Hz of the (topK+1)-th strongest bin
// of the one-sided spectrum of the acceleration magnitude, sampled at fs.
// The first sample is excluded from the magnitude sequence. When several bins
// share that magnitude the lowest frequency wins. NaN is returned when no
// complete samples remain or the spectrum has fewer than topK+1 bins.
func FreqIntensity(x, y, z []float64, fs float64, topK int) float64 {
	xs, ys, zs := dropNaN(x, y, z)
	if len(xs) < 2 || topK < 0 {
		return math.NaN()
	}

	mag := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		mag = append(mag, math.Sqrt(xs[i]*xs[i]+ys[i]*ys[i]+zs[i]*zs[i]))
	}
	n := len(mag)
	bins := n / 2
	if bins < topK+1 {
		return math.NaN()
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, mag)
	spectrum := make([]float64, bins)
	for k := range spectrum {
		spectrum[k] = cmplx.Abs(coeffs[k]) / float64(n)
	}

	ranked := append([]float64(nil), spectrum...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ranked)))
	target := ranked[topK]

	period := float64(n) / fs
	for k, v := range spectrum {
		if v == target {
			return float64(k) / period
		}
	}
	return math.NaN()
}

// RMSSD is the root mean square of successive differences of the normalized
// triaxial signal: sqrt(sum over samples and axes of squared first
// differences divided by the sample count). NaN samples are dropped first.
//
// NormL1 and NormL2 scale each axis by its norm over the window; an axis with
// zero norm is left as is. NormMinMax rescales every sample across its three
// axes onto [0, 1], mapping samples with equal axes to 0.
func RMSSD(x, y, z []float64, norm Norm) float64 {
	xs, ys, zs := dropNaN(x, y, z)
	if len(xs) == 0 {
		return math.NaN()
	}

	switch norm {
	case NormL1:
		normalizeAxis(xs, 1)
		normalizeAxis(ys, 1)
		normalizeAxis(zs, 1)
	case NormL2:
		normalizeAxis(xs, 2)
		normalizeAxis(ys, 2)
		normalizeAxis(zs, 2)
	case NormMinMax:
		minMaxSamples(xs, ys, zs)
	}

	var sum float64
	for i := 1; i < len(xs); i++ {
		dx, dy, dz := xs[i]-xs[i-1], ys[i]-ys[i-1], zs[i]-zs[i-1]
		sum += dx*dx + dy*dy + dz*dz
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func normalizeAxis(v []float64, l float64) {
	norm := floats.Norm(v, l)
	if norm == 0 {
		return
	}
	floats.Scale(1/norm, v)
}

func minMaxSamples(xs, ys, zs []float64) {
	for i := range xs {
		lo := min(xs[i], ys[i], zs[i])
		hi := max(xs[i], ys[i], zs[i])
		if hi == lo {
			xs[i], ys[i], zs[i] = 0, 0, 0
			continue
		}
		scale := hi - lo
		xs[i] = (xs[i] - lo) / scale
		ys[i] = (ys[i] - lo) / scale
		zs[i] = (zs[i] - lo) / scale
	}
}
