package estimation

import (
	"fmt"
	"math"
	"time"

	"metcompare/internal/analysis"
)

// FeatureSet selects the classifier input.
type FeatureSet string

const (
	// FeaturesCompact is chunked mean/variance of the three gyro channels.
	FeaturesCompact FeatureSet = "compact"
	// FeaturesFull is the 42 summary statistics over gyro and acc channels.
	FeaturesFull FeatureSet = "full"
)

// DefaultFeatures returns the classifier input each policy was trained with.
func DefaultFeatures(policy string) FeatureSet {
	if policy == PolicyRegress {
		return FeaturesFull
	}
	return FeaturesCompact
}

// Config holds the window geometry shared by all windows of a run.
type Config struct {
	SamplingRate     float64 // Hz of the resampled series
	WindowSeconds    int     // gyro classification window
	FreqSamplingRate float64 // fs used for the frequency estimate
	FreqTopK         int
	Features         FeatureSet
}

// WindowInput is the resampled data of one minute. Gyro channels cover the
// classification window, acc channels the minute itself.
type WindowInput struct {
	Start               time.Time
	GyroX, GyroY, GyroZ []float64
	AccX, AccY, AccZ    []float64
}

// Outcome records every intermediate of one window.
type Outcome struct {
	Start time.Time
	Label Label
	Raw   float64 // accelerometer intensity estimate
	Freq  float64 // dominant frequency, Hz
	RMSSD float64 // l1-normalized successive difference variability
	MET   float64 // final estimate; NaN when unavailable
}

// Cascade is the two-stage estimator. It is safe for concurrent use as long
// as its classifier and policy are.
type Cascade struct {
	classifier Classifier
	policy     EstimationPolicy
	cfg        Config
}

// NewCascade validates cfg and builds a cascade.
func NewCascade(classifier Classifier, policy EstimationPolicy, cfg Config) (*Cascade, error) {
	if classifier == nil {
		return nil, fmt.Errorf("cascade needs a classifier")
	}
	if policy == nil {
		return nil, fmt.Errorf("cascade needs an estimation policy")
	}
	if cfg.SamplingRate <= 0 || cfg.WindowSeconds <= 0 {
		return nil, fmt.Errorf("invalid window geometry: %v Hz over %d s", cfg.SamplingRate, cfg.WindowSeconds)
	}
	if cfg.FreqSamplingRate <= 0 || cfg.FreqTopK < 0 {
		return nil, fmt.Errorf("invalid frequency parameters: fs=%v topK=%d", cfg.FreqSamplingRate, cfg.FreqTopK)
	}
	switch cfg.Features {
	case FeaturesCompact, FeaturesFull:
	default:
		return nil, fmt.Errorf("unknown feature set %q", cfg.Features)
	}
	return &Cascade{classifier: classifier, policy: policy, cfg: cfg}, nil
}

// Policy returns the cascade's estimation policy.
func (c *Cascade) Policy() EstimationPolicy {
	return c.policy
}

// ExpectedGyroSamples is the sample count of a complete classification window.
func (c *Cascade) ExpectedGyroSamples() int {
	return int(float64(c.cfg.WindowSeconds) * c.cfg.SamplingRate)
}

// ExpectedAccSamples is the sample count of a complete minute.
func (c *Cascade) ExpectedAccSamples() int {
	return int(60 * c.cfg.SamplingRate)
}

// FeatureLen is the classifier input length this cascade produces.
func (c *Cascade) FeatureLen() int {
	if c.cfg.Features == FeaturesFull {
		return analysis.FullFeatureLen
	}
	return analysis.CompactFeatureLen(3, c.ExpectedGyroSamples())
}

// Evaluate runs both stages on one window.
func (c *Cascade) Evaluate(in WindowInput) Outcome {
	o := Outcome{
		Start: in.Start,
		Label: c.classify(in),
		Raw:   analysis.RawEstimate(in.AccX, in.AccY, in.AccZ, c.ExpectedAccSamples()),
		Freq:  analysis.FreqIntensity(in.AccX, in.AccY, in.AccZ, c.cfg.FreqSamplingRate, c.cfg.FreqTopK),
		RMSSD: analysis.RMSSD(in.AccX, in.AccY, in.AccZ, analysis.NormL1),
	}
	o.MET = c.policy.Apply(o)
	return o
}

// GyroSufficient reports whether the gyro window is complete with fewer than
// a tenth of its rotX samples missing.
func (c *Cascade) GyroSufficient(gyroX []float64) bool {
	expected := c.ExpectedGyroSamples()
	if len(gyroX) != expected {
		return false
	}
	missing := 0
	for _, v := range gyroX {
		if math.IsNaN(v) {
			missing++
		}
	}
	return float64(missing) < float64(expected)/10
}

func (c *Cascade) classify(in WindowInput) Label {
	if !c.GyroSufficient(in.GyroX) {
		return LabelNoData
	}

	var features []float64
	switch c.cfg.Features {
	case FeaturesFull:
		channels := analysis.PadChannels([][]float64{
			in.GyroX, in.GyroY, in.GyroZ,
			in.AccX, in.AccY, in.AccZ,
		}, c.ExpectedGyroSamples())
		features = analysis.FullFeatures(channels)
	default:
		features = analysis.CompactFeatures([][]float64{in.GyroX, in.GyroY, in.GyroZ})
	}

	if c.classifier.Predict(features) == 1 {
		return LabelHigh
	}
	return LabelLow
}
