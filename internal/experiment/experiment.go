package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/precession/internal/config"
	"github.com/san-kum/precession/internal/dynamo"
	"github.com/san-kum/precession/internal/metrics"
	"github.com/san-kum/precession/internal/sim"
	"github.com/san-kum/precession/internal/storage"
)

// Spec describes a headless run.
type Spec struct {
	Name   string
	Config *config.Config
	Steps  int
	// SampleEvery records the physical state every n steps; 0 records none.
	SampleEvery int
}

// sampler is the observer that fills Run.Samples.
type sampler struct {
	every   int
	samples []storage.Sample
}

func (s *sampler) OnStep(x dynamo.State, step int, t float64) {
	if s.every > 0 && step%s.every == 0 {
		s.samples = append(s.samples, storage.Sample{Step: step, Time: t, State: x})
	}
}

type Experiment struct {
	spec   Spec
	loop   *sim.Loop
	smp    *sampler
	logger log.Logger
}

func New(spec Spec, logger log.Logger) (*Experiment, error) {
	if spec.Config == nil {
		return nil, errors.New("experiment: config is required")
	}
	if spec.Steps <= 0 {
		return nil, fmt.Errorf("experiment: steps must be positive, got %d", spec.Steps)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	loop, err := spec.Config.NewLoop(sim.NopRenderer{})
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", spec.Name, err)
	}
	loop.SetLogger(logger)
	for _, m := range metrics.Defaults(loop.Params()) {
		loop.AddMetric(m)
	}

	smp := &sampler{every: spec.SampleEvery}
	smp.OnStep(loop.State(), 0, 0)
	loop.AddObserver(smp)

	return &Experiment{
		spec:   spec,
		loop:   loop,
		smp:    smp,
		logger: log.With(logger, "run", spec.Name),
	}, nil
}

// Run integrates the configured number of steps. An integration failure
// is recorded in the returned run and also returned as the error.
func (e *Experiment) Run(ctx context.Context) (*storage.Run, error) {
	level.Info(e.logger).Log("msg", "run started", "steps", e.spec.Steps, "integrator", e.spec.Config.Integrator)

	runErr := e.loop.RunSteps(ctx, e.spec.Steps)
	run := e.result()
	if runErr != nil {
		run.Meta.Error = runErr.Error()
		level.Error(e.logger).Log("msg", "run failed", "steps", e.loop.Steps(), "err", runErr)
		return run, runErr
	}

	level.Info(e.logger).Log("msg", "run finished", "steps", e.loop.Steps(), "perihelion_advance", run.Meta.Metrics["perihelion_advance"])
	return run, nil
}

func (e *Experiment) result() *storage.Run {
	p := e.loop.Params()
	buf := e.loop.Trail()
	return &storage.Run{
		Meta: storage.RunMetadata{
			Name:          e.spec.Name,
			Integrator:    e.spec.Config.Integrator,
			Steps:         e.loop.Steps(),
			Dt:            p.Dt,
			Params:        p.GetParams(),
			TrailCapacity: buf.Cap(),
			Metrics:       e.loop.Metrics(),
		},
		Samples: e.smp.samples,
		Trail:   buf.Points(),
	}
}

// Loop exposes the underlying loop for adding observers.
func (e *Experiment) Loop() *sim.Loop {
	return e.loop
}

// RunAll runs independent experiments concurrently. Each run owns its own
// loop, so nothing is shared between goroutines. Results keep the order of
// specs; the first error is returned after all runs finish.
func RunAll(ctx context.Context, specs []Spec, logger log.Logger) ([]*storage.Run, error) {
	results := make([]*storage.Run, len(specs))
	errs := make([]error, len(specs))

	var wg sync.WaitGroup
	for i := range specs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			exp, err := New(specs[idx], logger)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = exp.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
