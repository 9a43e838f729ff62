package integrators

import (
	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Leapfrog is the kick-drift-kick scheme. The force law depends on speed,
// so the closing kick evaluates it at the drifted position with the
// half-step velocity.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(x dynamo.State, p dynamo.Params) (dynamo.State, error) {
	halfDt := 0.5 * p.Dt

	acc, err := Acceleration(x, p)
	if err != nil {
		return dynamo.State{}, err
	}
	half := dynamo.State{Velocity: r3.Add(x.Velocity, r3.Scale(halfDt, acc))}
	half.Position = r3.Add(x.Position, r3.Scale(p.Dt, half.Velocity))

	accNew, err := Acceleration(half, p)
	if err != nil {
		return dynamo.State{}, err
	}

	next := dynamo.State{
		Position: half.Position,
		Velocity: r3.Add(half.Velocity, r3.Scale(halfDt, accNew)),
	}
	if !next.IsValid() {
		return dynamo.State{}, dynamo.ErrNonFinite
	}
	return next, nil
}
