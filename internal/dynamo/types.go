package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is the position and velocity of the orbiting body relative to the
// central mass at the origin.
type State struct {
	Position r3.Vec
	Velocity r3.Vec
}

// InitialState places the body at (0, radius, 0) moving along +X.
func InitialState(radius, speed float64) State {
	return State{
		Position: r3.Vec{Y: radius},
		Velocity: r3.Vec{X: speed},
	}
}

func (s State) Radius() float64 { return r3.Norm(s.Position) }
func (s State) Speed() float64  { return r3.Norm(s.Velocity) }

// AngularMomentum returns the specific angular momentum r × v.
func (s State) AngularMomentum() r3.Vec { return r3.Cross(s.Position, s.Velocity) }

func (s State) IsValid() bool {
	for _, v := range []float64{
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Params holds the constants of the corrected force law. A Params value is
// built once by NewParams and never mutated.
type Params struct {
	BaseAcceleration    float64
	SchwarzschildRadius float64
	AngularMomentumSq   float64
	Alpha               float64
	Beta                float64
	Dt                  float64
}

// DefaultStepsPerUnit splits the time scale 2*v0/a into this many steps.
const DefaultStepsPerUnit = 20

// NewParams validates the constants and derives the time step from the
// initial speed: dt = 2*speed/baseAcc/stepsPerUnit.
func NewParams(baseAcc, rs, l2, alpha, beta, speed float64, stepsPerUnit int) (Params, error) {
	if stepsPerUnit <= 0 {
		return Params{}, fmt.Errorf("%w: steps per unit must be positive, got %d", ErrParameterBounds, stepsPerUnit)
	}
	if !(speed > 0) {
		return Params{}, fmt.Errorf("%w: initial speed must be positive, got %g", ErrParameterBounds, speed)
	}
	p := Params{
		BaseAcceleration:    baseAcc,
		SchwarzschildRadius: rs,
		AngularMomentumSq:   l2,
		Alpha:               alpha,
		Beta:                beta,
		Dt:                  2 * speed / baseAcc / float64(stepsPerUnit),
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func (p Params) Validate() error {
	checks := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"base_acceleration", p.BaseAcceleration, true},
		{"schwarzschild_radius", p.SchwarzschildRadius, false},
		{"angular_momentum_sq", p.AngularMomentumSq, false},
		{"alpha", p.Alpha, false},
		{"beta", p.Beta, false},
		{"dt", p.Dt, true},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrParameterBounds, c.name, c.value)
		}
		if c.positive && c.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrParameterBounds, c.name, c.value)
		}
		if !c.positive && c.value < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %g", ErrParameterBounds, c.name, c.value)
		}
	}
	return nil
}

// GetParams exposes the parameters by name for display and run metadata.
func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"base_acceleration":    p.BaseAcceleration,
		"schwarzschild_radius": p.SchwarzschildRadius,
		"angular_momentum_sq":  p.AngularMomentumSq,
		"alpha":                p.Alpha,
		"beta":                 p.Beta,
		"dt":                   p.Dt,
	}
}

// Stepper advances a state by one fixed time step.
type Stepper interface {
	Step(x State, p Params) (State, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, step int, t float64)
}
