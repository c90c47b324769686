package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/beamsim/internal/bench"
)

const (
	DefaultPlotWidth   = 72
	DefaultPlotHeight  = 16
	DefaultPlotSamples = 200
	DefaultWorkers     = 4
	DefaultPlotMargin  = 100.0 // mm past the last element

	DefaultEditorStep     = 5.0  // mm
	DefaultEditorFineStep = 0.5  // mm
	DefaultEditorTuneStep = 0.05 // fraction of the tuning range

	DefaultLogLevel = "info"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Beam    BeamConfig         `yaml:"beam"`
	Waist   WaistConfig        `yaml:"waist"`
	Plot    PlotConfig         `yaml:"plot"`
	Editor  EditorConfig       `yaml:"editor"`
	Log     LogConfig          `yaml:"log"`
	Presets map[string]*Preset `yaml:"presets,omitempty"`
}

type BeamConfig struct {
	Wavelength float64 `yaml:"wavelength_nm"`
	Waist      float64 `yaml:"waist_mm"`
}

type WaistConfig struct {
	Samples   int     `yaml:"samples"`
	Tolerance float64 `yaml:"tolerance_mm"`
}

type PlotConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Samples int     `yaml:"samples"`
	Workers int     `yaml:"workers"`
	Margin  float64 `yaml:"margin_mm"`
}

type EditorConfig struct {
	Step     float64 `yaml:"step_mm"`
	FineStep float64 `yaml:"fine_step_mm"`
	TuneStep float64 `yaml:"tune_step"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Beam: BeamConfig{
			Wavelength: bench.DefaultWavelength,
			Waist:      bench.DefaultWaist,
		},
		Waist: WaistConfig{
			Samples:   bench.DefaultWaistSamples,
			Tolerance: bench.DefaultWaistTolerance,
		},
		Plot: PlotConfig{
			Width:   DefaultPlotWidth,
			Height:  DefaultPlotHeight,
			Samples: DefaultPlotSamples,
			Workers: DefaultWorkers,
			Margin:  DefaultPlotMargin,
		},
		Editor: EditorConfig{
			Step:     DefaultEditorStep,
			FineStep: DefaultEditorFineStep,
			TuneStep: DefaultEditorTuneStep,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads a YAML file on top of the defaults, so a file only needs the
// keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.BeamSettings().Validate(); err != nil {
		return err
	}
	if c.Waist.Samples < 4 {
		return fmt.Errorf("%w: waist.samples must be at least 4, got %d", ErrInvalid, c.Waist.Samples)
	}
	if !(c.Waist.Tolerance > 0) {
		return fmt.Errorf("%w: waist.tolerance_mm must be positive", ErrInvalid)
	}
	if c.Plot.Samples < 2 || c.Plot.Width < 1 || c.Plot.Height < 1 {
		return fmt.Errorf("%w: plot needs width, height >= 1 and samples >= 2", ErrInvalid)
	}
	if !(c.Plot.Margin > 0) {
		return fmt.Errorf("%w: plot.margin_mm must be positive", ErrInvalid)
	}
	if c.Editor.Step <= 0 || c.Editor.FineStep <= 0 || c.Editor.TuneStep <= 0 || c.Editor.TuneStep > 1 {
		return fmt.Errorf("%w: editor steps must be positive and tune_step at most 1", ErrInvalid)
	}
	for name, p := range c.Presets {
		if p == nil {
			return fmt.Errorf("%w: preset %q is empty", ErrInvalid, name)
		}
		if p.Beam != nil {
			beam := bench.Beam{Wavelength: p.Beam.Wavelength, Waist: p.Beam.Waist}
			if err := beam.Validate(); err != nil {
				return fmt.Errorf("preset %q: %w", name, err)
			}
		}
		if _, err := p.Elements(); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return nil
}

func (c *Config) BeamSettings() bench.Beam {
	return bench.Beam{Wavelength: c.Beam.Wavelength, Waist: c.Beam.Waist}
}

func (c *Config) WaistOptions() bench.WaistOptions {
	return bench.WaistOptions{Samples: c.Waist.Samples, Tolerance: c.Waist.Tolerance}
}
