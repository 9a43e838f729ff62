package metrics

import (
	"math"

	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// EnergyDrift tracks the largest relative change of the Newtonian specific
// orbital energy v²/2 - k/r. With correction terms switched on the energy
// is not conserved, and the drift measures how far the orbit moved.
type EnergyDrift struct {
	name     string
	k        float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(baseAcceleration float64) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", k: baseAcceleration}
}

// SpecificEnergy is v²/2 - k/r.
func SpecificEnergy(x dynamo.State, k float64) float64 {
	v := x.Speed()
	return 0.5*v*v - k/x.Radius()
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	energy := SpecificEnergy(x, e.k)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++
	if e.initial != 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.initial)/math.Abs(e.initial))
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// AngularMomentumDrift tracks the largest relative change of |r × v|.
// Every term of the force law is central, so this stays near zero for any
// parameter set.
type AngularMomentumDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift {
	return &AngularMomentumDrift{name: "angular_momentum_drift"}
}

func (a *AngularMomentumDrift) Name() string { return a.name }

func (a *AngularMomentumDrift) Observe(x dynamo.State, t float64) {
	h := r3.Norm(x.AngularMomentum())
	if a.samples == 0 {
		a.initial = h
	}
	a.samples++
	if a.initial != 0 {
		a.maxDrift = math.Max(a.maxDrift, math.Abs(h-a.initial)/a.initial)
	}
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = 0
	a.maxDrift = 0
	a.samples = 0
}
