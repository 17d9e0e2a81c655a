package config

var Presets = map[string]map[string]*Config{
	"reduced": {
		"baseline": withPreset(func(c *Config) {
			c.Variant = "reduced"
		}),
		"hot": withPreset(func(c *Config) {
			c.Variant = "reduced"
			c.Plasma.Te = 5.0
			c.Plasma.PowerDensity = 5.0
		}),
		"lean": withPreset(func(c *Config) {
			c.Variant = "reduced"
			c.Feed.Ratio = 0.1
		}),
	},
	"extended": {
		"baseline": withPreset(func(c *Config) {
			c.Variant = "extended"
		}),
		"catalyst": withPreset(func(c *Config) {
			c.Variant = "extended"
			c.Plasma.Catalyst = 10.0
		}),
		"vibrational": withPreset(func(c *Config) {
			c.Variant = "extended"
			c.Plasma.Ev = 8000
			c.Plasma.Tg = 600
		}),
	},
}

func withPreset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(variant, preset string) *Config {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	cfg, ok := variantPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.Sweep.Reactions = append([]string(nil), cfg.Sweep.Reactions...)
	return &c
}

func ListPresets(variant string) []string {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(variantPresets))
	for name := range variantPresets {
		names = append(names, name)
	}
	return names
}
