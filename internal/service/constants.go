package service

import "metcompare/internal/signal"

const (
	// Wrist uploads per processing call: one accelerometer, one gyroscope
	WristTableCount = 2

	// Minute windows used for intensity and output rows
	SecondsPerMinute = 60
)

// AccelerometerRanges are the per-axis acceleration ranges of the recordings
// the models were trained on. Uploaded accelerometer channels are mapped
// onto them before windowing.
var AccelerometerRanges = map[string]signal.Range{
	"accX": {Min: -33.763857951531044, Max: 38.03060682003315},
	"accY": {Min: -43.30149280531167, Max: 34.77019433156978},
	"accZ": {Min: -36.9844767541086, Max: 37.98169060088745},
}
