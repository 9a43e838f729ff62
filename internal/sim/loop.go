package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/precession/internal/dynamo"
	"github.com/san-kum/precession/internal/trail"
	"gonum.org/v1/gonum/spatial/r3"
)

// Loop owns the authoritative orbital state and the trail. Each Tick steps
// the integrator, grows the trail and renders one frame.
//
// A Loop is NOT thread-safe; drive it from a single goroutine.
type Loop struct {
	stepper   dynamo.Stepper
	params    dynamo.Params
	state     dynamo.State
	trail     *trail.Buffer
	renderer  Renderer
	cfg       Config
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    log.Logger

	step int
	t    float64
	err  error
}

func New(stepper dynamo.Stepper, p dynamo.Params, x0 dynamo.State, buf *trail.Buffer, renderer Renderer, cfg Config) (*Loop, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if x0.Radius() == 0 {
		return nil, fmt.Errorf("%w: initial position is at the central mass", dynamo.ErrDivisionByZero)
	}
	if !x0.IsValid() {
		return nil, dynamo.ErrNonFinite
	}
	if buf == nil {
		return nil, fmt.Errorf("sim: trail buffer is required")
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Loop{
		stepper:  stepper,
		params:   p,
		state:    x0,
		trail:    buf,
		renderer: renderer,
		cfg:      cfg,
		logger:   log.NewNopLogger(),
	}, nil
}

func (l *Loop) AddMetric(m dynamo.Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o dynamo.Observer) { l.observers = append(l.observers, o) }

func (l *Loop) SetLogger(logger log.Logger) {
	l.logger = log.With(logger, "component", "loop")
}

// Tick runs one iteration synchronously. After an integration failure the
// loop is dead: the same error is returned forever and nothing is rendered.
func (l *Loop) Tick() error {
	if l.err != nil {
		return l.err
	}

	next, err := l.stepper.Step(l.state, l.params)
	if err != nil {
		l.err = &dynamo.SimulationError{
			Step:    l.step + 1,
			Time:    l.t + l.params.Dt,
			State:   l.state,
			Wrapped: err,
		}
		level.Error(l.logger).Log("msg", "integration failed", "step", l.step+1, "radius", l.state.Radius(), "err", err)
		return l.err
	}

	l.state = next
	l.step++
	l.t += l.params.Dt

	body := l.RenderPosition()
	if l.trail.TryAppend(r3.Add(body, l.cfg.TrailOffset)) && l.trail.Full() {
		level.Debug(l.logger).Log("msg", "trail full", "points", l.trail.Len(), "step", l.step)
	}

	points, count := l.trail.Drawable()
	l.renderer.Render(Frame{
		Body:  body,
		Trail: points,
		Count: count,
		State: l.state,
		Step:  l.step,
		Time:  l.t,
	})

	for _, m := range l.metrics {
		m.Observe(l.state, l.t)
	}
	for _, obs := range l.observers {
		obs.OnStep(l.state, l.step, l.t)
	}
	return nil
}

// RenderPosition is the body position in render space.
func (l *Loop) RenderPosition() r3.Vec {
	return r3.Scale(l.cfg.Scale, l.state.Position)
}

// Run ticks, then suspends for interval, until a tick fails or ctx is done.
// The wait starts after the tick returns, so a slow frame delays the next
// one instead of shortening its wait.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sim: frame interval must be positive, got %v", interval)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	level.Info(l.logger).Log("msg", "loop started", "interval", interval, "dt", l.params.Dt)
	for {
		if err := l.Tick(); err != nil {
			return err
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			level.Info(l.logger).Log("msg", "loop stopped", "step", l.step)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunSteps ticks n times without waiting between iterations.
func (l *Loop) RunSteps(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := l.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) State() dynamo.State   { return l.state }
func (l *Loop) Params() dynamo.Params { return l.params }
func (l *Loop) Trail() *trail.Buffer  { return l.trail }
func (l *Loop) Steps() int            { return l.step }
func (l *Loop) Time() float64         { return l.t }
func (l *Loop) Err() error            { return l.err }

// Metrics collects the current value of every registered metric.
func (l *Loop) Metrics() map[string]float64 {
	out := make(map[string]float64, len(l.metrics))
	for _, m := range l.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
