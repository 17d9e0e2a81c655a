package config

import (
	"path/filepath"

	"gopkg.in/ini.v1"
)

// LoadINI reads the dashboard-style config.ini layout:
//
//	[Data]       SimulationDataPath, NonCatalystDataPath, CatalystDataPath
//	[Simulation] TotalDensity, TimeMax, TimePoints
//	[Sliders]    TeDefault, TeMin, TeMax, TeStep, RatioDefault,
//	             PowerDefault, TgDefault
//
// Data paths are resolved against dataDir when they are relative. Missing
// keys keep their defaults.
func LoadINI(path, dataDir string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	loadINI(file, cfg, dataDir)
	return cfg, nil
}

func loadINI(file *ini.File, cfg *Config, dataDir string) {
	data := file.Section("Data")
	cfg.RatesPath = resolve(dataDir, data.Key("SimulationDataPath").String())
	cfg.Data.NonCatalyst = resolve(dataDir, data.Key("NonCatalystDataPath").String())
	cfg.Data.Catalyst = resolve(dataDir, data.Key("CatalystDataPath").String())

	s := file.Section("Simulation")
	cfg.Feed.TotalDensity = s.Key("TotalDensity").MustFloat64(cfg.Feed.TotalDensity)
	cfg.Simulation.Duration = s.Key("TimeMax").MustFloat64(cfg.Simulation.Duration)
	cfg.Simulation.Samples = s.Key("TimePoints").MustInt(cfg.Simulation.Samples)

	sl := file.Section("Sliders")
	cfg.Plasma.Te = sl.Key("TeDefault").MustFloat64(cfg.Plasma.Te)
	cfg.Plasma.Tg = sl.Key("TgDefault").MustFloat64(cfg.Plasma.Tg)
	cfg.Plasma.PowerDensity = sl.Key("PowerDefault").MustFloat64(cfg.Plasma.PowerDensity)
	cfg.Feed.Ratio = sl.Key("RatioDefault").MustFloat64(cfg.Feed.Ratio)

	cfg.Sweep.TeMin = sl.Key("TeMin").MustFloat64(cfg.Sweep.TeMin)
	cfg.Sweep.TeMax = sl.Key("TeMax").MustFloat64(cfg.Sweep.TeMax)
	if step := sl.Key("TeStep").MustFloat64(0); step > 0 && cfg.Sweep.TeMax > cfg.Sweep.TeMin {
		cfg.Sweep.Points = int((cfg.Sweep.TeMax-cfg.Sweep.TeMin)/step+1e-9) + 1
	}
}

func resolve(dir, p string) string {
	if p == "" || dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
