package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/plasmasim/internal/reactor"
	"github.com/san-kum/plasmasim/internal/sweep"
)

const (
	DefaultTeMin    = 1.0
	DefaultTeMax    = 10.0
	DefaultTePoints = 10
)

type Config struct {
	Variant    string           `yaml:"variant"`
	Method     string           `yaml:"method"`
	RatesPath  string           `yaml:"rates_path"`
	Plasma     PlasmaConfig     `yaml:"plasma"`
	Feed       FeedConfig       `yaml:"feed"`
	Simulation SimulationConfig `yaml:"simulation"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Data       DataConfig       `yaml:"data"`
}

type PlasmaConfig struct {
	Te           float64 `yaml:"te"`
	Tg           float64 `yaml:"tg"`
	Ev           float64 `yaml:"ev"`
	DensityModel string  `yaml:"density_model"`
	PowerDensity float64 `yaml:"power_density"`
	Ionization   float64 `yaml:"ionization,omitempty"`
	Neutral      float64 `yaml:"neutral,omitempty"`
	Catalyst     float64 `yaml:"catalyst"`
}

type FeedConfig struct {
	Ratio        float64 `yaml:"ratio"`
	TotalDensity float64 `yaml:"total_density"`
	SeedDensity  float64 `yaml:"seed_density"`
}

type SimulationConfig struct {
	Duration float64 `yaml:"duration"`
	Samples  int     `yaml:"samples"`
	RelTol   float64 `yaml:"rel_tol"`
	AbsTol   float64 `yaml:"abs_tol"`
	MaxSteps int     `yaml:"max_steps"`
}

type SweepConfig struct {
	TeMin     float64  `yaml:"te_min"`
	TeMax     float64  `yaml:"te_max"`
	Points    int      `yaml:"points"`
	Reactions []string `yaml:"reactions,omitempty"`
}

// DataConfig points at reference tables shown next to simulation output.
type DataConfig struct {
	NonCatalyst string `yaml:"non_catalyst,omitempty"`
	Catalyst    string `yaml:"catalyst,omitempty"`
}

func DefaultConfig() *Config {
	req := reactor.DefaultRequest()
	return &Config{
		Variant: req.Variant,
		Method:  req.Method,
		Plasma: PlasmaConfig{
			Te:           req.Te,
			Tg:           req.Tg,
			DensityModel: req.Density.Model,
			PowerDensity: req.Density.PowerDensity,
			Catalyst:     req.Catalyst,
		},
		Feed: FeedConfig{
			Ratio:        req.FeedRatio,
			TotalDensity: req.TotalDensity,
			SeedDensity:  req.SeedDensity,
		},
		Simulation: SimulationConfig{
			Duration: req.Duration,
			Samples:  req.Samples,
			RelTol:   req.RelTol,
			AbsTol:   req.AbsTol,
			MaxSteps: req.MaxSteps,
		},
		Sweep: SweepConfig{
			TeMin:  DefaultTeMin,
			TeMax:  DefaultTeMax,
			Points: DefaultTePoints,
		},
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

// Request converts the configuration into a reactor request.
func (c *Config) Request() reactor.Request {
	return reactor.Request{
		Variant:      c.Variant,
		Method:       c.Method,
		Te:           c.Plasma.Te,
		Tg:           c.Plasma.Tg,
		Ev:           c.Plasma.Ev,
		FeedRatio:    c.Feed.Ratio,
		TotalDensity: c.Feed.TotalDensity,
		SeedDensity:  c.Feed.SeedDensity,
		Density: reactor.DensitySpec{
			Model:        c.Plasma.DensityModel,
			PowerDensity: c.Plasma.PowerDensity,
			Ionization:   c.Plasma.Ionization,
			Neutral:      c.Plasma.Neutral,
		},
		Catalyst: c.Plasma.Catalyst,
		Duration: c.Simulation.Duration,
		Samples:  c.Simulation.Samples,
		RelTol:   c.Simulation.RelTol,
		AbsTol:   c.Simulation.AbsTol,
		MaxSteps: c.Simulation.MaxSteps,
	}
}

// SweepGrid is the electron temperature grid of the sweep section.
func (c *Config) SweepGrid() []float64 {
	return sweep.Linspace(c.Sweep.TeMin, c.Sweep.TeMax, c.Sweep.Points)
}

// SweepReactions falls back to the default sensitivity set.
func (c *Config) SweepReactions() []string {
	if len(c.Sweep.Reactions) > 0 {
		return c.Sweep.Reactions
	}
	return sweep.DefaultReactions
}
