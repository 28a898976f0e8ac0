// Package analysis computes the per-window quantities the estimators consume:
// statistical feature vectors, dominant frequency, successive-difference
// variability, accelerometer intensity, VM3 METs and estimator agreement.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChunkSize is the number of samples summarized by each compact feature pair.
const ChunkSize = 10

// FullFeatureChannels is the channel count the full extractor expects:
// gyro X, Y, Z followed by acc X, Y, Z.
const FullFeatureChannels = 6

// fullStats is the number of statistics emitted per channel.
const fullStats = 7

// FullFeatureLen is the length of every FullFeatures vector.
const FullFeatureLen = fullStats * FullFeatureChannels

// CompactFeatureLen returns the compact vector length for the given number of
// channels each holding samples values.
func CompactFeatureLen(channels, samples int) int {
	return channels * (samples / ChunkSize) * 2
}

// CompactFeatures summarizes each channel as consecutive chunks of ChunkSize
// samples, emitting the mean and population variance of every chunk. A
// trailing partial chunk is dropped. Channels are concatenated in order.
func CompactFeatures(channels [][]float64) []float64 {
	var out []float64
	for _, ch := range channels {
		for i := 0; i+ChunkSize <= len(ch); i += ChunkSize {
			mean, variance := stat.PopMeanVariance(ch[i:i+ChunkSize], nil)
			out = append(out, mean, variance)
		}
	}
	return out
}

// FullFeatures computes median, mean, max, min, range, standard deviation and
// RMS for each of the six channels. The vector is ordered statistic first:
// all six medians, then all six means, and so on. A channel containing NaN
// yields NaN for each of its statistics. Malformed input (wrong channel count,
// empty or ragged channels) yields a zero vector of FullFeatureLen.
func FullFeatures(channels [][]float64) []float64 {
	out := make([]float64, FullFeatureLen)
	if len(channels) != FullFeatureChannels {
		return out
	}
	n := len(channels[0])
	if n == 0 {
		return out
	}
	for _, ch := range channels {
		if len(ch) != n {
			return out
		}
	}

	for c, ch := range channels {
		stats := channelStats(ch)
		for s, v := range stats {
			out[s*FullFeatureChannels+c] = v
		}
	}
	return out
}

func channelStats(ch []float64) [fullStats]float64 {
	var st [fullStats]float64
	if floats.HasNaN(ch) {
		for i := range st {
			st[i] = math.NaN()
		}
		return st
	}

	mean, variance := stat.PopMeanVariance(ch, nil)
	hi, lo := floats.Max(ch), floats.Min(ch)

	st[0] = median(ch)
	st[1] = mean
	st[2] = hi
	st[3] = lo
	st[4] = hi - lo
	st[5] = math.Sqrt(variance)
	st[6] = math.Sqrt(floats.Dot(ch, ch) / float64(len(ch)))
	return st
}

// median averages the two middle values for even lengths.
func median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// PadChannels returns copies of the channels zero-padded (or truncated) to n
// samples, the layout used for fixed-size training windows.
func PadChannels(channels [][]float64, n int) [][]float64 {
	out := make([][]float64, len(channels))
	for i, ch := range channels {
		padded := make([]float64, n)
		copy(padded, ch)
		out[i] = padded
	}
	return out
}
