// Package config loads and saves yaml scenario files for the CLI.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/n1o1-labs/nodyn/internal/optim"
	"github.com/n1o1-labs/nodyn/internal/pk"
)

type Config struct {
	Baseline         float64      `yaml:"baseline"`
	Peak             float64      `yaml:"peak"`
	TPeak            float64      `yaml:"t_peak"`
	HalfLife         float64      `yaml:"half_life"`
	TMax             float64      `yaml:"t_max"`
	Points           int          `yaml:"points"`
	EGFR             float64      `yaml:"egfr"`
	RBCCount         float64      `yaml:"rbc_count"`
	Dose             float64      `yaml:"dose"`
	Formulation      string       `yaml:"formulation"`
	OxygenSaturation float64      `yaml:"oxygen_saturation"`
	AdditionalDoses  []DoseConfig `yaml:"additional_doses"`

	Sensitivity SensitivityConfig `yaml:"sensitivity"`
	Batch       BatchConfig       `yaml:"batch"`
}

type DoseConfig struct {
	Time   float64 `yaml:"time"`
	Amount float64 `yaml:"amount"`
}

type SensitivityConfig struct {
	Parameter string    `yaml:"parameter"`
	Values    []float64 `yaml:"values"`
}

type BatchConfig struct {
	Axes            []AxisConfig `yaml:"axes"`
	MaxCombinations int          `yaml:"max_combinations"`
	Threshold       float64      `yaml:"threshold"`
	TopK            int          `yaml:"top_k"`
}

type AxisConfig struct {
	Name   string    `yaml:"name"`
	Values []float64 `yaml:"values"`
}

func DefaultConfig() *Config {
	p := pk.NewParameters()
	return &Config{
		Baseline:         p.Baseline,
		Peak:             p.Peak,
		TPeak:            p.TPeak,
		HalfLife:         p.HalfLife,
		TMax:             p.TMax,
		Points:           p.Points,
		EGFR:             p.EGFR,
		RBCCount:         p.RBCCount,
		Dose:             p.Dose,
		Formulation:      string(p.Formulation),
		OxygenSaturation: p.OxygenSaturation,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// Parameters converts the scenario into a validated-later parameter
// value.
func (c *Config) Parameters() pk.Parameters {
	p := pk.Parameters{
		Baseline:         c.Baseline,
		Peak:             c.Peak,
		TPeak:            c.TPeak,
		HalfLife:         c.HalfLife,
		TMax:             c.TMax,
		Points:           c.Points,
		EGFR:             c.EGFR,
		RBCCount:         c.RBCCount,
		Dose:             c.Dose,
		Formulation:      pk.Formulation(c.Formulation),
		OxygenSaturation: c.OxygenSaturation,
	}
	for _, d := range c.AdditionalDoses {
		p.AdditionalDoses = append(p.AdditionalDoses, pk.Dose{Time: d.Time, Amount: d.Amount})
	}
	return p
}

// Axes converts the batch section into optimizer axes.
func (c *Config) Axes() []optim.Axis {
	axes := make([]optim.Axis, 0, len(c.Batch.Axes))
	for _, a := range c.Batch.Axes {
		axes = append(axes, optim.Axis{Name: a.Name, Values: a.Values})
	}
	return axes
}
