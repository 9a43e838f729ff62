package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/precession/internal/dynamo"
	"github.com/san-kum/precession/internal/integrators"
	"github.com/san-kum/precession/internal/sim"
	"github.com/san-kum/precession/internal/trail"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Lengths are in units of R0, times in units of T0.
const (
	DefaultRadius              = 4.60
	DefaultSpeed               = 5.10e-1
	DefaultBaseAcceleration    = 9.90e-1
	DefaultSchwarzschildRadius = 2.95e-7
	DefaultAngularMomentumSq   = 8.19e-7
	DefaultAlpha               = 1.e6
	DefaultBeta                = 0.0
	DefaultScale               = 0.25
	DefaultTrailOffsetZ        = -2.0
	DefaultFrameInterval       = 10 * time.Millisecond
)

type Config struct {
	Integrator string        `yaml:"integrator"`
	Orbit      OrbitConfig   `yaml:"orbit"`
	Physics    PhysicsConfig `yaml:"physics"`
	Trail      TrailConfig   `yaml:"trail"`
	Display    DisplayConfig `yaml:"display"`
}

type OrbitConfig struct {
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed"`
}

type PhysicsConfig struct {
	BaseAcceleration    float64 `yaml:"base_acceleration"`
	SchwarzschildRadius float64 `yaml:"schwarzschild_radius"`
	AngularMomentumSq   float64 `yaml:"angular_momentum_sq"`
	Alpha               float64 `yaml:"alpha"`
	Beta                float64 `yaml:"beta"`
	StepsPerUnit        int     `yaml:"steps_per_unit"`
}

type TrailConfig struct {
	Capacity int     `yaml:"capacity"`
	OffsetZ  float64 `yaml:"offset_z"`
}

type DisplayConfig struct {
	Scale         float64       `yaml:"scale"`
	FrameInterval time.Duration `yaml:"frame_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: integrators.Default,
		Orbit: OrbitConfig{
			Radius: DefaultRadius,
			Speed:  DefaultSpeed,
		},
		Physics: PhysicsConfig{
			BaseAcceleration:    DefaultBaseAcceleration,
			SchwarzschildRadius: DefaultSchwarzschildRadius,
			AngularMomentumSq:   DefaultAngularMomentumSq,
			Alpha:               DefaultAlpha,
			Beta:                DefaultBeta,
			StepsPerUnit:        dynamo.DefaultStepsPerUnit,
		},
		Trail: TrailConfig{
			Capacity: trail.DefaultCapacity,
			OffsetZ:  DefaultTrailOffsetZ,
		},
		Display: DisplayConfig{
			Scale:         DefaultScale,
			FrameInterval: DefaultFrameInterval,
		},
	}
}

// Load reads a YAML file on top of the defaults, so a file only needs the
// keys it changes.
func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto reads a YAML file on top of base, typically a preset. Keys absent
// from the file keep base's values. base is not modified.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
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

// Params builds the validated physical parameters.
func (c *Config) Params() (dynamo.Params, error) {
	return dynamo.NewParams(
		c.Physics.BaseAcceleration,
		c.Physics.SchwarzschildRadius,
		c.Physics.AngularMomentumSq,
		c.Physics.Alpha,
		c.Physics.Beta,
		c.Orbit.Speed,
		c.Physics.StepsPerUnit,
	)
}

func (c *Config) InitialState() (dynamo.State, error) {
	if !(c.Orbit.Radius > 0) {
		return dynamo.State{}, fmt.Errorf("%w: orbit radius must be positive, got %g", dynamo.ErrParameterBounds, c.Orbit.Radius)
	}
	return dynamo.InitialState(c.Orbit.Radius, c.Orbit.Speed), nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Scale:       c.Display.Scale,
		TrailOffset: r3.Vec{Z: c.Trail.OffsetZ},
	}
}

// NewLoop wires a loop from the configuration.
func (c *Config) NewLoop(renderer sim.Renderer) (*sim.Loop, error) {
	p, err := c.Params()
	if err != nil {
		return nil, err
	}
	x0, err := c.InitialState()
	if err != nil {
		return nil, err
	}
	stepper, err := integrators.Get(c.Integrator)
	if err != nil {
		return nil, err
	}
	buf, err := trail.New(c.Trail.Capacity)
	if err != nil {
		return nil, err
	}
	if !(c.Display.Scale > 0) {
		return nil, fmt.Errorf("%w: display scale must be positive, got %g", dynamo.ErrParameterBounds, c.Display.Scale)
	}
	return sim.New(stepper, p, x0, buf, renderer, c.SimConfig())
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// SetParam sets a numeric field by its yaml key. It is how scenario files
// and sweeps address the configuration.
func (c *Config) SetParam(name string, value float64) error {
	switch name {
	case "radius":
		c.Orbit.Radius = value
	case "speed":
		c.Orbit.Speed = value
	case "base_acceleration":
		c.Physics.BaseAcceleration = value
	case "schwarzschild_radius":
		c.Physics.SchwarzschildRadius = value
	case "angular_momentum_sq":
		c.Physics.AngularMomentumSq = value
	case "alpha":
		c.Physics.Alpha = value
	case "beta":
		c.Physics.Beta = value
	case "steps_per_unit":
		c.Physics.StepsPerUnit = int(value)
	case "capacity":
		c.Trail.Capacity = int(value)
	case "offset_z":
		c.Trail.OffsetZ = value
	case "scale":
		c.Display.Scale = value
	default:
		return fmt.Errorf("config: unknown parameter %q", name)
	}
	return nil
}
