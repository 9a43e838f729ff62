package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

func mercuryParams(t testing.TB, alpha, beta float64) dynamo.Params {
	t.Helper()
	p, err := dynamo.NewParams(0.99, 2.95e-7, 8.19e-7, alpha, beta, 0.51, dynamo.DefaultStepsPerUnit)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	return p
}

func TestSymplecticEuler_Deterministic(t *testing.T) {
	p := mercuryParams(t, 1e6, 0)
	x := dynamo.InitialState(4.60, 0.51)
	integ := NewSymplecticEuler()

	a, err := integ.Step(x, p)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	for i := 0; i < 5; i++ {
		b, err := integ.Step(x, p)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if a != b {
			t.Fatalf("step %d differs: %v vs %v", i, a, b)
		}
	}
}

func TestSymplecticEuler_UsesUpdatedVelocity(t *testing.T) {
	p := mercuryParams(t, 0, 0)
	x := dynamo.InitialState(4.60, 0.51)

	next, err := NewSymplecticEuler().Step(x, p)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	acc, _ := Acceleration(x, p)
	wantV := r3.Add(x.Velocity, r3.Scale(p.Dt, acc))
	wantP := r3.Add(x.Position, r3.Scale(p.Dt, wantV))
	if next.Velocity != wantV {
		t.Errorf("velocity = %v, want %v", next.Velocity, wantV)
	}
	if next.Position != wantP {
		t.Errorf("position = %v, want %v", next.Position, wantP)
	}
}

func TestAcceleration_Radial(t *testing.T) {
	p := mercuryParams(t, 1e6, 1e6)
	positions := []r3.Vec{
		{Y: 4.6},
		{X: 1, Y: -2, Z: 0.5},
		{X: -7, Y: 3, Z: -1},
		{X: 1e-3},
	}
	for _, pos := range positions {
		x := dynamo.State{Position: pos, Velocity: r3.Vec{X: 0.3, Z: 0.1}}
		acc, err := Acceleration(x, p)
		if err != nil {
			t.Fatalf("acceleration at %v: %v", pos, err)
		}
		// Anti-parallel: cross product vanishes and dot product is negative.
		cos := r3.Dot(acc, pos) / (r3.Norm(acc) * r3.Norm(pos))
		if math.Abs(cos+1) > 1e-12 {
			t.Errorf("acceleration %v not anti-parallel to %v (cos=%v)", acc, pos, cos)
		}
	}
}

func TestCorrectionFactor(t *testing.T) {
	p := mercuryParams(t, 1e6, 3e5)
	states := []dynamo.State{
		dynamo.InitialState(4.60, 0.51),
		{Position: r3.Vec{X: 3.17, Y: -0.4}, Velocity: r3.Vec{X: 0.2, Y: 0.61}},
		{Position: r3.Vec{X: -4.1, Y: 2.3, Z: 0.01}, Velocity: r3.Vec{X: -0.33, Y: -0.47}},
	}

	for _, x := range states {
		fact, err := CorrectionFactor(x, p)
		if err != nil {
			t.Fatalf("factor: %v", err)
		}
		r, v := x.Radius(), x.Speed()
		want := 1.0
		want += p.Alpha * p.SchwarzschildRadius / v
		want += p.Beta * p.AngularMomentumSq / (r * r)
		if fact != want {
			t.Errorf("factor at %v = %v, want %v", x.Position, fact, want)
		}
	}
}

func TestSymplecticEuler_ZeroPosition(t *testing.T) {
	p := mercuryParams(t, 1e6, 0)
	x := dynamo.State{Velocity: r3.Vec{X: 0.51}}

	_, err := NewSymplecticEuler().Step(x, p)
	if !errors.Is(err, dynamo.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestSymplecticEuler_ZeroSpeed(t *testing.T) {
	x := dynamo.State{Position: r3.Vec{Y: 4.6}}

	_, err := NewSymplecticEuler().Step(x, mercuryParams(t, 1e6, 0))
	if !errors.Is(err, dynamo.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero with alpha set, got %v", err)
	}

	// Without the speed term a body at rest simply falls inward.
	next, err := NewSymplecticEuler().Step(x, mercuryParams(t, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error without alpha: %v", err)
	}
	if next.Velocity.Y >= 0 {
		t.Errorf("expected inward velocity, got %v", next.Velocity)
	}
}

func TestSymplecticEuler_NonFinite(t *testing.T) {
	p := mercuryParams(t, 0, 0)
	p.Alpha = math.MaxFloat64
	p.SchwarzschildRadius = math.MaxFloat64
	x := dynamo.InitialState(4.60, 0.51)

	_, err := NewSymplecticEuler().Step(x, p)
	if !errors.Is(err, dynamo.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
}

func TestNewtonianEnvelope(t *testing.T) {
	p := mercuryParams(t, 0, 0)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := Get(name)
			if err != nil {
				t.Fatal(err)
			}
			x := dynamo.State{Position: r3.Vec{Y: 4.60}, Velocity: r3.Vec{X: 0.510}}
			minR, maxR := math.Inf(1), 0.0
			for i := 0; i < 10000; i++ {
				x, err = integ.Step(x, p)
				if err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
				r := x.Radius()
				minR = math.Min(minR, r)
				maxR = math.Max(maxR, r)
			}
			// Analytic perihelion 4.60, aphelion ~7.0.
			if minR < 4.0 || maxR > 8.0 {
				t.Errorf("radius left envelope: min=%.4f max=%.4f", minR, maxR)
			}
		})
	}
}

func TestGet_Unknown(t *testing.T) {
	if _, err := Get("rk9"); !errors.Is(err, dynamo.ErrUnknownStepper) {
		t.Errorf("expected ErrUnknownStepper, got %v", err)
	}
}
