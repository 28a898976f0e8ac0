package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"
)

// Config represents the application configuration
type Config struct {
	Pipeline PipelineConfig `json:"pipeline"`
	Models   ModelsConfig   `json:"models"`
	Subject  SubjectConfig  `json:"subject"`
	Output   OutputConfig   `json:"output"`
}

// PipelineConfig holds signal processing and estimation settings
type PipelineConfig struct {
	SamplingRate       float64 `json:"sampling_rate"`    // Hz
	GapToleranceMS     float64 `json:"gap_tolerance_ms"` // 0 disables the gap check
	WindowSeconds      int     `json:"window_seconds"`
	FreqSamplingRate   float64 `json:"freq_sampling_rate"`
	FreqTopK           int     `json:"freq_top_k"`
	Timezone           string  `json:"timezone"`
	Policy             string  `json:"policy"`              // clamp or regress
	ClassifierFeatures string  `json:"classifier_features"` // compact or full, empty picks the policy default
	DisableRescale     bool    `json:"disable_rescale"`
	Workers            int     `json:"workers"` // 0 uses all CPUs
}

// ModelsConfig holds paths to the pre-trained model artifacts
type ModelsConfig struct {
	ClassifierPath string `json:"classifier_path"`
	RegressorPath  string `json:"regressor_path"`
}

// SubjectConfig holds the wearer's demographics
type SubjectConfig struct {
	Gender float64 `json:"gender"` // 0 or 1
	Age    int     `json:"age"`
	BMI    float64 `json:"bmi"`
}

// OutputConfig holds export and persistence preferences
type OutputConfig struct {
	Format       string `json:"format"` // csv or parquet
	Dir          string `json:"dir"`
	DatabasePath string `json:"database_path"` // empty uses ~/.metcompare/data.db
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			SamplingRate:     20,
			GapToleranceMS:   100,
			WindowSeconds:    60,
			FreqSamplingRate: 100,
			FreqTopK:         1,
			Timezone:         "America/Chicago",
			Policy:           "clamp",
		},
		Subject: SubjectConfig{
			Gender: 1,
			Age:    34,
			BMI:    36,
		},
		Output: OutputConfig{
			Format: "csv",
			Dir:    ".",
		},
	}
}

// Load reads the configuration from ~/.metcompare/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path. Keys absent from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for values that cannot be zero
	defaults := DefaultConfig()
	if cfg.Pipeline.SamplingRate == 0 {
		cfg.Pipeline.SamplingRate = defaults.Pipeline.SamplingRate
	}
	if cfg.Pipeline.WindowSeconds == 0 {
		cfg.Pipeline.WindowSeconds = defaults.Pipeline.WindowSeconds
	}
	if cfg.Pipeline.FreqSamplingRate == 0 {
		cfg.Pipeline.FreqSamplingRate = defaults.Pipeline.FreqSamplingRate
	}
	if cfg.Pipeline.Timezone == "" {
		cfg.Pipeline.Timezone = defaults.Pipeline.Timezone
	}
	if cfg.Pipeline.Policy == "" {
		cfg.Pipeline.Policy = defaults.Pipeline.Policy
	}
	if cfg.Subject.Age == 0 {
		cfg.Subject.Age = defaults.Subject.Age
	}
	if cfg.Subject.BMI == 0 {
		cfg.Subject.BMI = defaults.Subject.BMI
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = defaults.Output.Format
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaults.Output.Dir
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.metcompare/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path.
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Models = ModelsConfig{
		ClassifierPath: "classification_model.json",
		RegressorPath:  "regression_model.json",
	}

	return SaveFile(path, &example)
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.SamplingRate <= 0 {
		return fmt.Errorf("pipeline.sampling_rate must be positive, got %v", p.SamplingRate)
	}
	if p.GapToleranceMS < 0 {
		return fmt.Errorf("pipeline.gap_tolerance_ms must not be negative, got %v", p.GapToleranceMS)
	}
	if p.WindowSeconds <= 0 {
		return fmt.Errorf("pipeline.window_seconds must be positive, got %d", p.WindowSeconds)
	}
	if p.FreqSamplingRate <= 0 {
		return fmt.Errorf("pipeline.freq_sampling_rate must be positive, got %v", p.FreqSamplingRate)
	}
	if p.FreqTopK < 0 {
		return fmt.Errorf("pipeline.freq_top_k must not be negative, got %d", p.FreqTopK)
	}
	if p.Workers < 0 {
		return fmt.Errorf("pipeline.workers must not be negative, got %d", p.Workers)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch p.Policy {
	case "clamp":
	case "regress":
		if c.Models.RegressorPath == "" {
			return errors.New("models.regressor_path is required with the regress policy")
		}
	default:
		return fmt.Errorf("pipeline.policy must be \"clamp\" or \"regress\", got %q", p.Policy)
	}
	if f := p.ClassifierFeatures; f != "" && f != "compact" && f != "full" {
		return fmt.Errorf("pipeline.classifier_features must be \"compact\" or \"full\", got %q", f)
	}

	if c.Subject.Gender != 0 && c.Subject.Gender != 1 {
		return fmt.Errorf("subject.gender must be 0 or 1, got %v", c.Subject.Gender)
	}
	if c.Subject.Age <= 0 || c.Subject.BMI <= 0 {
		return fmt.Errorf("subject.age and subject.bmi must be positive, got %d and %v", c.Subject.Age, c.Subject.BMI)
	}

	if c.Output.Format != "csv" && c.Output.Format != "parquet" {
		return fmt.Errorf("output.format must be \"csv\" or \"parquet\", got %q", c.Output.Format)
	}

	return nil
}

// Location loads the configured IANA time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Pipeline.Timezone)
	if err != nil {
		return nil, fmt.Errorf("pipeline.timezone %q: %w", c.Pipeline.Timezone, err)
	}
	return loc, nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".metcompare"), nil
}
