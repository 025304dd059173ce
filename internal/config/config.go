package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "go-camera-inspector/internal/errors"
)

// Bounds is a min/max threshold window.
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ReferenceColor is one reference patch for color-accuracy checks.
// X and Y are normalized center coordinates in [0,1]; Radius is in
// pixels; RGB is the expected patch color.
type ReferenceColor struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius int     `yaml:"radius"`
	RGB    [3]int  `yaml:"rgb"`
}

// AnalysisConfig carries the metric thresholds. Missing keys keep the
// defaults from DefaultConfig.
type AnalysisConfig struct {
	BrightnessThreshold Bounds `yaml:"brightness_threshold"`
	ContrastThreshold   Bounds `yaml:"contrast_threshold"`
	SharpnessThreshold  struct {
		Min float64 `yaml:"min"`
	} `yaml:"sharpness_threshold"`
	NoiseThreshold struct {
		Max float64 `yaml:"max"`
	} `yaml:"noise_threshold"`
	ReferenceColors []ReferenceColor `yaml:"reference_colors"`
}

// ADBConfig configures the device bridge.
type ADBConfig struct {
	Path       string `yaml:"adb_path"`
	DeviceID   string `yaml:"device_id"`
	TimeoutSec int    `yaml:"timeout"`
	CameraDir  string `yaml:"camera_dir"`
}

// OutputConfig names the run artifact directories.
type OutputConfig struct {
	ImagesDir  string `yaml:"images_dir"`
	ReportsDir string `yaml:"reports_dir"`
}

// ServeConfig configures the optional report server.
type ServeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the top-level configuration, loaded once at startup and
// read-only during a run.
type Config struct {
	ADB      ADBConfig      `yaml:"adb"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	Serve    ServeConfig    `yaml:"serve"`
}

// DefaultConfig returns the configuration used when keys are absent.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ADB.TimeoutSec = 30
	cfg.ADB.CameraDir = "/sdcard/DCIM/Camera/"
	cfg.Analysis.BrightnessThreshold = Bounds{Min: 50, Max: 200}
	cfg.Analysis.ContrastThreshold = Bounds{Min: 30, Max: 150}
	cfg.Analysis.SharpnessThreshold.Min = 100
	cfg.Analysis.NoiseThreshold.Max = 20
	cfg.Output.ImagesDir = "output/images"
	cfg.Output.ReportsDir = "output/reports"
	cfg.Serve.Addr = ":8080"
	return cfg
}

// Load reads YAML configuration from path on top of the defaults.
// A missing file is fine when path is empty; a named file that cannot
// be read or parsed is a fatal config error. Unrecognized keys are
// ignored.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("cannot read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("malformed config file %s", path), err)
	}
	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.BrightnessThreshold.Min > c.Analysis.BrightnessThreshold.Max {
		return fmt.Errorf("brightness_threshold: min %.1f > max %.1f",
			c.Analysis.BrightnessThreshold.Min, c.Analysis.BrightnessThreshold.Max)
	}
	if c.Analysis.ContrastThreshold.Min > c.Analysis.ContrastThreshold.Max {
		return fmt.Errorf("contrast_threshold: min %.1f > max %.1f",
			c.Analysis.ContrastThreshold.Min, c.Analysis.ContrastThreshold.Max)
	}
	if c.ADB.TimeoutSec <= 0 {
		return fmt.Errorf("adb timeout must be > 0 (got %d)", c.ADB.TimeoutSec)
	}
	if c.Output.ImagesDir == "" || c.Output.ReportsDir == "" {
		return fmt.Errorf("output directories must not be empty")
	}
	return nil
}
