package integrators

import (
	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// SymplecticEuler is the semi-implicit Euler scheme: the velocity is kicked
// first and the position drifts with the updated velocity.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (e *SymplecticEuler) Step(x dynamo.State, p dynamo.Params) (dynamo.State, error) {
	acc, err := Acceleration(x, p)
	if err != nil {
		return dynamo.State{}, err
	}
	if !finite(acc) {
		return dynamo.State{}, dynamo.ErrNonFinite
	}

	next := dynamo.State{Velocity: r3.Add(x.Velocity, r3.Scale(p.Dt, acc))}
	// drift with the kicked velocity
	next.Position = r3.Add(x.Position, r3.Scale(p.Dt, next.Velocity))

	if !next.IsValid() {
		return dynamo.State{}, dynamo.ErrNonFinite
	}
	return next, nil
}
