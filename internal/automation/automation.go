package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/precession/internal/config"
	"github.com/san-kum/precession/internal/experiment"
	"github.com/san-kum/precession/internal/storage"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// Scenario defines a batch of runs in one file
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun is a single run in a scenario. Params are keyed like the
// config file (alpha, beta, radius, ...) and applied on top of Preset.
type ScenarioRun struct {
	Name        string             `yaml:"name"`
	Preset      string             `yaml:"preset"`
	Integrator  string             `yaml:"integrator"`
	Steps       int                `yaml:"steps"`
	SampleEvery int                `yaml:"sample_every"`
	Params      map[string]float64 `yaml:"params"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario: parse %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s: no runs", path)
	}

	return &scenario, nil
}

// Specs resolves every run into an experiment spec.
func (s *Scenario) Specs() ([]experiment.Spec, error) {
	specs := make([]experiment.Spec, 0, len(s.Runs))

	for i, run := range s.Runs {
		cfg := config.DefaultConfig()
		if run.Preset != "" {
			if cfg = config.GetPreset(run.Preset); cfg == nil {
				return nil, fmt.Errorf("run %d: unknown preset %q", i+1, run.Preset)
			}
		}
		if run.Integrator != "" {
			cfg.Integrator = run.Integrator
		}
		for k, v := range run.Params {
			if err := cfg.SetParam(k, v); err != nil {
				return nil, fmt.Errorf("run %d: %w", i+1, err)
			}
		}

		name := run.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", s.Name, i+1)
		}
		specs = append(specs, experiment.Spec{
			Name:        name,
			Config:      cfg,
			Steps:       run.Steps,
			SampleEvery: run.SampleEvery,
		})
	}

	return specs, nil
}

// RunScenario executes all runs concurrently and returns them in file order.
func RunScenario(ctx context.Context, scenario *Scenario, logger log.Logger) ([]*storage.Run, error) {
	specs, err := scenario.Specs()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	level.Info(logger).Log("msg", "scenario started", "scenario", scenario.Name, "runs", len(specs))
	return experiment.RunAll(ctx, specs, log.With(logger, "scenario", scenario.Name))
}

// ParameterSweep runs the same orbit across evenly spaced values of one
// parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Steps     int
}

// SweepResult holds the orbit metrics for one parameter value. Error is set
// when the run failed part way.
type SweepResult struct {
	ParamValue  float64
	Advance     float64
	RadiusRatio float64
	EnergyDrift float64
	Error       string
}

// Values returns the swept parameter values.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}
	}
	return floats.Span(make([]float64, s.NumSteps), s.ParamMin, s.ParamMax)
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger log.Logger) ([]SweepResult, error) {
	if sweep.Base == nil {
		return nil, errors.New("sweep: base config is required")
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep: need at least one value, got %d", sweep.NumSteps)
	}

	values := sweep.Values()
	specs := make([]experiment.Spec, len(values))
	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}
		specs[i] = experiment.Spec{
			Name:   fmt.Sprintf("%s=%g", sweep.ParamName, v),
			Config: cfg,
			Steps:  sweep.Steps,
		}
	}

	runs, runErr := experiment.RunAll(ctx, specs, logger)

	results := make([]SweepResult, len(values))
	for i, run := range runs {
		if run == nil {
			return nil, fmt.Errorf("sweep %s: %w", specs[i].Name, runErr)
		}
		results[i] = SweepResult{
			ParamValue:  values[i],
			Advance:     run.Meta.Metrics["perihelion_advance"],
			RadiusRatio: run.Meta.Metrics["radius_ratio"],
			EnergyDrift: run.Meta.Metrics["energy_drift"],
			Error:       run.Meta.Error,
		}
	}

	return results, nil
}
