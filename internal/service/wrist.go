package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"metcompare/internal/config"
	"metcompare/internal/estimation"
	"metcompare/internal/model"
	"metcompare/internal/signal"
	"metcompare/internal/store"
	"metcompare/internal/tabular"
)

// WristOptions controls the signal conditioning ahead of the cascade.
type WristOptions struct {
	SamplingRate   float64 // Hz
	GapToleranceMS float64 // 0 disables the gap check
	WindowSeconds  int
	Rescale        bool
	Location       *time.Location
	Workers        int // 0 uses all CPUs
}

// WristService estimates per-minute METs from wrist accelerometer and
// gyroscope recordings.
type WristService struct {
	cascade *estimation.Cascade
	opts    WristOptions
	logger  *slog.Logger
}

// NewWristService creates a wrist service around a ready cascade.
func NewWristService(cascade *estimation.Cascade, opts WristOptions, logger *slog.Logger) *WristService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WristService{cascade: cascade, opts: opts, logger: logger}
}

// NewWristServiceFromConfig loads the models named in cfg, checks that their
// feature counts match the pipeline and builds the service.
func NewWristServiceFromConfig(cfg *config.Config, logger *slog.Logger) (*WristService, error) {
	p := cfg.Pipeline
	if cfg.Models.ClassifierPath == "" {
		return nil, errors.New("models.classifier_path is required")
	}
	classifier, err := model.LoadClassifier(cfg.Models.ClassifierPath)
	if err != nil {
		return nil, fmt.Errorf("loading classifier: %w", err)
	}

	var regressor estimation.Regressor
	if p.Policy == estimation.PolicyRegress {
		r, err := model.LoadRegressor(cfg.Models.RegressorPath)
		if err != nil {
			return nil, fmt.Errorf("loading regressor: %w", err)
		}
		if err := r.CheckFeatures(estimation.RegressionFeatureLen); err != nil {
			return nil, fmt.Errorf("regressor: %w", err)
		}
		regressor = r
	}

	subject := estimation.Subject{Gender: cfg.Subject.Gender, Age: cfg.Subject.Age, BMI: cfg.Subject.BMI}
	policy, err := estimation.NewPolicy(p.Policy, regressor, subject)
	if err != nil {
		return nil, err
	}

	features := estimation.FeatureSet(p.ClassifierFeatures)
	if features == "" {
		features = estimation.DefaultFeatures(p.Policy)
	}
	cascade, err := estimation.NewCascade(classifier, policy, estimation.Config{
		SamplingRate:     p.SamplingRate,
		WindowSeconds:    p.WindowSeconds,
		FreqSamplingRate: p.FreqSamplingRate,
		FreqTopK:         p.FreqTopK,
		Features:         features,
	})
	if err != nil {
		return nil, err
	}
	if err := classifier.CheckFeatures(cascade.FeatureLen()); err != nil {
		return nil, fmt.Errorf("classifier with %s features: %w", features, err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return NewWristService(cascade, WristOptions{
		SamplingRate:   p.SamplingRate,
		GapToleranceMS: p.GapToleranceMS,
		WindowSeconds:  p.WindowSeconds,
		Rescale:        !p.DisableRescale,
		Location:       loc,
		Workers:        p.Workers,
	}, logger), nil
}

// Process runs the wrist pipeline over one accelerometer and one gyroscope
// table: clean, resample, rescale, align on the gyroscope recording and
// evaluate every minute. Either the whole table is returned or an error.
func (s *WristService) Process(ctx context.Context, tables []tabular.SensorTable) (*Result, error) {
	acc, gyro, err := s.prepare(tables)
	if err != nil {
		return nil, err
	}

	start, end, err := signal.TimeParameters(gyro, s.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("aligning gyroscope: %w", err)
	}
	minutes := signal.Minutes(start, end)

	s.logger.Info("processing wrist data",
		"acc_samples", acc.Len(),
		"gyro_samples", gyro.Len(),
		"start", start,
		"end", end,
		"windows", len(minutes),
	)

	outcomes := make([]estimation.Outcome, len(minutes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, m := range minutes {
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.cascade.Evaluate(s.window(acc, gyro, m))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluating windows: %w", err)
	}

	estimates := make([]store.Estimate, len(outcomes))
	for i, o := range outcomes {
		if o.Label == estimation.LabelNoData {
			s.logger.Debug("insufficient gyroscope data", "minute", o.Start, "raw", o.Raw)
		}
		estimates[i] = store.Estimate{Timestamp: o.Start, MET: store.Float(o.MET)}
	}

	res := &Result{
		Source:    store.SourceWrist,
		Policy:    s.cascade.Policy().Name(),
		Estimates: estimates,
		Outcomes:  outcomes,
	}
	res.Summary = summarize(estimates, outcomes)

	s.logger.Info("wrist processing complete",
		"policy", res.Policy,
		"windows", res.Summary.Windows,
		"empty", res.Summary.Empty,
		"no_data", res.Summary.Labels[estimation.LabelNoData],
		"low", res.Summary.Labels[estimation.LabelLow],
		"high", res.Summary.Labels[estimation.LabelHigh],
	)
	return res, nil
}

// prepare validates the uploads and returns the conditioned accelerometer
// and gyroscope series.
func (s *WristService) prepare(tables []tabular.SensorTable) (acc, gyro *signal.Series, err error) {
	if len(tables) != WristTableCount {
		return nil, nil, fmt.Errorf("%w: got %d", ErrFileCount, len(tables))
	}

	var accTable, gyroTable *tabular.SensorTable
	for i := range tables {
		t := &tables[i]
		switch t.ResolveKind() {
		case tabular.KindAccelerometer:
			if accTable != nil {
				return nil, nil, fmt.Errorf("%w: two accelerometer tables", ErrDuplicateSensor)
			}
			accTable = t
		case tabular.KindGyroscope:
			if gyroTable != nil {
				return nil, nil, fmt.Errorf("%w: two gyroscope tables", ErrDuplicateSensor)
			}
			gyroTable = t
		default:
			return nil, nil, fmt.Errorf("%w: %s has columns %v", ErrUnrecognizedColumns, t.Name, t.Columns)
		}
	}

	acc, err = s.condition(*accTable)
	if err != nil {
		return nil, nil, err
	}
	gyro, err = s.condition(*gyroTable)
	if err != nil {
		return nil, nil, err
	}

	if s.opts.Rescale {
		acc = signal.Rescale(acc, AccelerometerRanges)
	}
	return acc, gyro, nil
}

// condition converts, cleans and resamples one table.
func (s *WristService) condition(t tabular.SensorTable) (*signal.Series, error) {
	kind := t.ResolveKind()
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: %s table %s has no rows", ErrEmptyChannel, kind, t.Name)
	}

	raw, err := t.Series()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedColumns, err)
	}
	cleaned := signal.Clean(raw)
	if cleaned.Len() == 0 {
		return nil, fmt.Errorf("%w: %s table %s has no valid rows", ErrEmptyChannel, kind, t.Name)
	}
	if dropped := raw.Len() - cleaned.Len(); dropped > 0 {
		s.logger.Debug("dropped invalid rows", "sensor", kind.String(), "rows", dropped)
	}

	resampled, err := signal.Resample(cleaned, s.opts.SamplingRate, s.opts.GapToleranceMS)
	if err != nil {
		return nil, fmt.Errorf("resampling %s: %w", kind, err)
	}
	return resampled, nil
}

// window slices the data of the minute starting at m.
func (s *WristService) window(acc, gyro *signal.Series, m time.Time) estimation.WindowInput {
	g := gyro.SliceWindow(signal.NewWindow(m, time.Duration(s.opts.WindowSeconds)*time.Second))
	a := acc.SliceWindow(signal.NewWindow(m, SecondsPerMinute*time.Second))
	return estimation.WindowInput{
		Start: m,
		GyroX: g.Channel(tabular.ColumnRotX),
		GyroY: g.Channel(tabular.ColumnRotY),
		GyroZ: g.Channel(tabular.ColumnRotZ),
		AccX:  a.Channel(tabular.ColumnAccX),
		AccY:  a.Channel(tabular.ColumnAccY),
		AccZ:  a.Channel(tabular.ColumnAccZ),
	}
}
