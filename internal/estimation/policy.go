// Package estimation turns a minute of wrist sensor data into a MET estimate
// with a two-stage cascade: a classifier separates low from high activity,
// then an EstimationPolicy produces the final value.
package estimation

import (
	"fmt"
	"math"
)

// Label is the first-stage activity class of a window.
type Label int

const (
	LabelNoData Label = -1 // not enough gyroscope data to classify
	LabelLow    Label = 0
	LabelHigh   Label = 1
)

func (l Label) String() string {
	switch l {
	case LabelNoData:
		return "no-data"
	case LabelLow:
		return "low"
	case LabelHigh:
		return "high"
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// MET bounds applied to low and high activity windows
const (
	RestingMET = 1.0
	LowMaxMET  = 1.5
)

// Policy names accepted by NewPolicy
const (
	PolicyClamp   = "clamp"
	PolicyRegress = "regress"
)

// Subject holds the demographics the regressor is conditioned on.
type Subject struct {
	Gender float64 // 0 or 1
	Age    int
	BMI    float64
}

// DefaultSubject is used when no demographics are configured.
var DefaultSubject = Subject{Gender: 1, Age: 34, BMI: 36}

// RegressionFeatures builds the nine-value regressor input: gender, age,
// BMI, frequency intensity, the pairwise and triple demographic products and
// the l1 RMSSD.
func RegressionFeatures(s Subject, freq, rmssdL1 float64) []float64 {
	age := float64(s.Age)
	return []float64{
		s.Gender, age, s.BMI,
		freq,
		s.Gender * age, s.Gender * s.BMI, age * s.BMI, age * s.Gender * s.BMI,
		rmssdL1,
	}
}

// RegressionFeatureLen is the length of RegressionFeatures vectors.
const RegressionFeatureLen = 9

// Classifier predicts 0 (low) or 1 (high) from a feature vector.
type Classifier interface {
	Predict(x []float64) int
}

// Regressor predicts a MET value from a feature vector.
type Regressor interface {
	Predict(x []float64) float64
}

// EstimationPolicy maps a classified window to its final MET value.
type EstimationPolicy interface {
	Name() string
	Apply(o Outcome) float64
}

// ClampPolicy bounds the raw accelerometer estimate by class: at least
// RestingMET without a label, within [RestingMET, LowMaxMET] for low
// activity and at least LowMaxMET for high activity. NaN stays NaN.
type ClampPolicy struct{}

func (ClampPolicy) Name() string { return PolicyClamp }

func (ClampPolicy) Apply(o Outcome) float64 {
	return Clamp(o.Label, o.Raw)
}

// Clamp applies the ClampPolicy bounds to est.
func Clamp(label Label, est float64) float64 {
	if math.IsNaN(est) {
		return est
	}
	switch label {
	case LabelNoData:
		return math.Max(est, RestingMET)
	case LabelLow:
		return math.Min(math.Max(est, RestingMET), LowMaxMET)
	case LabelHigh:
		return math.Max(est, LowMaxMET)
	}
	return est
}

// RegressorPolicy refines high activity windows with a regression model.
// Low activity windows are resting; windows without a label keep the raw
// accelerometer estimate.
type RegressorPolicy struct {
	Regressor Regressor
	Subject   Subject
}

func (p RegressorPolicy) Name() string { return PolicyRegress }

func (p RegressorPolicy) Apply(o Outcome) float64 {
	switch o.Label {
	case LabelLow:
		return RestingMET
	case LabelHigh:
		return p.Regressor.Predict(RegressionFeatures(p.Subject, o.Freq, o.RMSSD))
	}
	return o.Raw
}

// NewPolicy returns the policy registered under name. The regress policy
// requires a regressor.
func NewPolicy(name string, regressor Regressor, subject Subject) (EstimationPolicy, error) {
	switch name {
	case PolicyClamp:
		return ClampPolicy{}, nil
	case PolicyRegress:
		if regressor == nil {
			return nil, fmt.Errorf("policy %q needs a regression model", name)
		}
		return RegressorPolicy{Regressor: regressor, Subject: subject}, nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}
