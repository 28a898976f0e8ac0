package analysis

import "math"

// Linear calibration from accelerometer intensity to METs
const (
	IntensitySlope     = 0.39212
	IntensityIntercept = 1.3
)

// Intensity returns the pooled triaxial standard deviation
// sqrt((Q - P/n) / (n-1)) where Q is the sum of squares over all three axes
// and P the sum of the squared per-axis totals. Samples whose x value is NaN
// are skipped. NaN is returned with fewer than two usable samples.
func Intensity(x, y, z []float64) float64 {
	var sumX, sumY, sumZ, sumSq float64
	count := 0
	for i := range x {
		if math.IsNaN(x[i]) || i >= len(y) || i >= len(z) {
			continue
		}
		sumSq += x[i]*x[i] + y[i]*y[i] + z[i]*z[i]
		sumX += x[i]
		sumY += y[i]
		sumZ += z[i]
		count++
	}
	if count < 2 {
		return math.NaN()
	}
	n := float64(count)
	p := sumX*sumX + sumY*sumY + sumZ*sumZ
	return math.Sqrt((sumSq - p/n) / (n - 1))
}

// RawEstimate converts a window's accelerometer samples into a MET estimate.
// The estimate is NaN when more than a tenth of the expected sample count is
// missing on the x axis.
func RawEstimate(x, y, z []float64, expected int) float64 {
	missing := 0
	for _, v := range x {
		if math.IsNaN(v) {
			missing++
		}
	}
	if float64(missing) > float64(expected)/10 {
		return math.NaN()
	}
	return Intensity(x, y, z)*IntensitySlope + IntensityIntercept
}
