package estimation

import (
	"math"
	"testing"
	"time"
)

type stubClassifier struct {
	label int
	seen  []float64
}

func (s *stubClassifier) Predict(x []float64) int {
	s.seen = x
	return s.label
}

type stubRegressor struct {
	value float64
	seen  []float64
}

func (s *stubRegressor) Predict(x []float64) float64 {
	s.seen = x
	return s.value
}

func TestClamp(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		label Label
		est   float64
		want  float64
	}{
		{"low below resting", LabelLow, 0.7, 1.0},
		{"low above ceiling", LabelLow, 2.0, 1.5},
		{"low inside band", LabelLow, 1.2, 1.2},
		{"high below floor", LabelHigh, 1.2, 1.5},
		{"high above floor", LabelHigh, 4.2, 4.2},
		{"no data below resting", LabelNoData, 0.5, 1.0},
		{"no data above resting", LabelNoData, 3.0, 3.0},
		{"missing stays missing", LabelHigh, nan, nan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampPolicy{}.Apply(Outcome{Label: tt.label, Raw: tt.est})
			if math.IsNaN(tt.want) {
				if !math.IsNaN(got) {
					t.Errorf("Apply() = %v, want NaN", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegressorPolicy(t *testing.T) {
	reg := &stubRegressor{value: 4.5}
	p := RegressorPolicy{Regressor: reg, Subject: DefaultSubject}

	tests := []struct {
		name string
		o    Outcome
		want float64
	}{
		{"low is resting", Outcome{Label: LabelLow, Raw: 3}, 1.0},
		{"high uses the regressor", Outcome{Label: LabelHigh, Raw: 3, Freq: 2, RMSSD: 0.1}, 4.5},
		{"no data keeps the raw estimate", Outcome{Label: LabelNoData, Raw: 2.2}, 2.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Apply(tt.o); got != tt.want {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}

	want := []float64{1, 34, 36, 2, 34, 36, 34 * 36, 34 * 36, 0.1}
	if len(reg.seen) != RegressionFeatureLen {
		t.Fatalf("regressor saw %d features, want %d", len(reg.seen), RegressionFeatureLen)
	}
	for i := range want {
		if reg.seen[i] != want[i] {
			t.Errorf("feature[%d] = %v, want %v", i, reg.seen[i], want[i])
		}
	}
}

func TestNewPolicy(t *testing.T) {
	if p, err := NewPolicy(PolicyClamp, nil, DefaultSubject); err != nil || p.Name() != PolicyClamp {
		t.Errorf("NewPolicy(clamp) = %v, %v", p, err)
	}
	if _, err := NewPolicy(PolicyRegress, nil, DefaultSubject); err == nil {
		t.Error("NewPolicy(regress) without a regressor should fail")
	}
	if p, err := NewPolicy(PolicyRegress, &stubRegressor{}, DefaultSubject); err != nil || p.Name() != PolicyRegress {
		t.Errorf("NewPolicy(regress) = %v, %v", p, err)
	}
	if _, err := NewPolicy("median", nil, DefaultSubject); err == nil {
		t.Error("NewPolicy(median) should fail")
	}
}

func testConfig(features FeatureSet) Config {
	return Config{
		SamplingRate:     20,
		WindowSeconds:    60,
		FreqSamplingRate: 100,
		FreqTopK:         1,
		Features:         features,
	}
}

func filled(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func fullWindow() WindowInput {
	const n = 1200
	return WindowInput{
		Start: time.Date(2021, 6, 1, 9, 31, 0, 0, time.UTC),
		GyroX: filled(n, func(i int) float64 { return math.Sin(float64(i) / 10) }),
		GyroY: filled(n, func(i int) float64 { return 0.1 }),
		GyroZ: filled(n, func(i int) float64 { return -0.1 }),
		AccX:  filled(n, func(i int) float64 { return float64(i % 2) }),
		AccY:  filled(n, func(i int) float64 { return 0 }),
		AccZ:  filled(n, func(i int) float64 { return 9.8 }),
	}
}

func TestCascadeEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		features     FeatureSet
		classLabel   int
		wantLabel    Label
		wantFeatures int
	}{
		{"compact low", FeaturesCompact, 0, LabelLow, 720},
		{"compact high", FeaturesCompact, 1, LabelHigh, 720},
		{"full high", FeaturesFull, 1, LabelHigh, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := &stubClassifier{label: tt.classLabel}
			c, err := NewCascade(clf, ClampPolicy{}, testConfig(tt.features))
			if err != nil {
				t.Fatalf("NewCascade() error = %v", err)
			}
			if c.FeatureLen() != tt.wantFeatures {
				t.Errorf("FeatureLen() = %d, want %d", c.FeatureLen(), tt.wantFeatures)
			}

			o := c.Evaluate(fullWindow())
			if o.Label != tt.wantLabel {
				t.Errorf("Label = %v, want %v", o.Label, tt.wantLabel)
			}
			if len(clf.seen) != tt.wantFeatures {
				t.Errorf("classifier saw %d features, want %d", len(clf.seen), tt.wantFeatures)
			}

			// alternating 0/1 on x: K = sqrt(n/4 / (n-1))
			n := 1200.0
			wantRaw := math.Sqrt(n/4/(n-1))*0.39212 + 1.3
			if math.Abs(o.Raw-wantRaw) > 1e-9 {
				t.Errorf("Raw = %v, want %v", o.Raw, wantRaw)
			}
			if o.MET != Clamp(tt.wantLabel, o.Raw) {
				t.Errorf("MET = %v, want clamped %v", o.MET, Clamp(tt.wantLabel, o.Raw))
			}
			if math.IsNaN(o.Freq) || math.IsNaN(o.RMSSD) {
				t.Errorf("Freq = %v, RMSSD = %v, want values", o.Freq, o.RMSSD)
			}
		})
	}
}

func TestCascadeInsufficientGyro(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(w *WindowInput)
	}{
		{"short window", func(w *WindowInput) {
			w.GyroX, w.GyroY, w.GyroZ = w.GyroX[:1199], w.GyroY[:1199], w.GyroZ[:1199]
		}},
		{"a tenth missing", func(w *WindowInput) {
			for i := 0; i < 120; i++ {
				w.GyroX[i] = math.NaN()
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := &stubClassifier{label: 1}
			c, _ := NewCascade(clf, ClampPolicy{}, testConfig(FeaturesCompact))
			w := fullWindow()
			tt.mutate(&w)

			o := c.Evaluate(w)
			if o.Label != LabelNoData {
				t.Errorf("Label = %v, want no-data", o.Label)
			}
			if clf.seen != nil {
				t.Error("classifier should not run without gyro data")
			}
			if o.MET < RestingMET {
				t.Errorf("MET = %v, want at least %v", o.MET, RestingMET)
			}
		})
	}
}

func TestCascadeMissingAccelerometer(t *testing.T) {
	c, _ := NewCascade(&stubClassifier{label: 0}, ClampPolicy{}, testConfig(FeaturesCompact))
	w := fullWindow()
	w.AccX, w.AccY, w.AccZ = nil, nil, nil

	o := c.Evaluate(w)
	if !math.IsNaN(o.Raw) || !math.IsNaN(o.MET) {
		t.Errorf("Raw = %v, MET = %v, want NaN", o.Raw, o.MET)
	}
	if !math.IsNaN(o.Freq) || !math.IsNaN(o.RMSSD) {
		t.Errorf("Freq = %v, RMSSD = %v, want NaN", o.Freq, o.RMSSD)
	}
}

func TestNewCascadeValidation(t *testing.T) {
	good := testConfig(FeaturesCompact)
	clf := &stubClassifier{}

	bad := []struct {
		name string
		cfg  func() Config
	}{
		{"zero rate", func() Config { c := good; c.SamplingRate = 0; return c }},
		{"zero window", func() Config { c := good; c.WindowSeconds = 0; return c }},
		{"negative topK", func() Config { c := good; c.FreqTopK = -1; return c }},
		{"unknown features", func() Config { c := good; c.Features = "wavelet"; return c }},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCascade(clf, ClampPolicy{}, tt.cfg()); err == nil {
				t.Error("NewCascade() should fail")
			}
		})
	}

	if _, err := NewCascade(nil, ClampPolicy{}, good); err == nil {
		t.Error("NewCascade(nil classifier) should fail")
	}
}

func TestDefaultFeatures(t *testing.T) {
	if DefaultFeatures(PolicyClamp) != FeaturesCompact {
		t.Error("clamp should default to compact features")
	}
	if DefaultFeatures(PolicyRegress) != FeaturesFull {
		t.Error("regress should default to full features")
	}
}
