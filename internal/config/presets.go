package config

import "sort"

// Presets are named variations of the default configuration.
var Presets = map[string]func(*Config){
	"mercury": func(c *Config) {},
	"newtonian": func(c *Config) {
		c.Physics.Alpha = 0
		c.Physics.Beta = 0
	},
	"quartic": func(c *Config) {
		c.Physics.Alpha = 0
		c.Physics.Beta = 1e6
	},
	"gentle": func(c *Config) {
		c.Physics.Alpha = 1e5
	},
	"leapfrog": func(c *Config) {
		c.Integrator = "leapfrog"
	},
}

// GetPreset returns a fresh configuration for the preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
