package integrators

import (
	"math"

	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// CorrectionFactor is the post-Newtonian multiplier applied to the
// inverse-square acceleration:
//
//	1 + alpha*rs/v + beta*L²/r²
//
// The speed term is only evaluated when alpha*rs is non-zero.
func CorrectionFactor(x dynamo.State, p dynamo.Params) (float64, error) {
	r := x.Radius()
	if r == 0 {
		return 0, dynamo.ErrDivisionByZero
	}
	// summed left to right as written above
	fact := 1.0
	if k := p.Alpha * p.SchwarzschildRadius; k != 0 {
		v := x.Speed()
		if v == 0 {
			return 0, dynamo.ErrDivisionByZero
		}
		fact += k / v
	}
	fact += p.Beta * p.AngularMomentumSq / (r * r)
	return fact, nil
}

// Acceleration returns the corrected central acceleration, always directed
// from the body toward the origin.
func Acceleration(x dynamo.State, p dynamo.Params) (r3.Vec, error) {
	fact, err := CorrectionFactor(x, p)
	if err != nil {
		return r3.Vec{}, err
	}
	r := x.Radius()
	a := p.BaseAcceleration * fact / (r * r)
	unit := r3.Vec{X: x.Position.X / r, Y: x.Position.Y / r, Z: x.Position.Z / r}
	return r3.Scale(-a, unit), nil
}

func finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}
