package integrators

import (
	"testing"

	"github.com/san-kum/precession/internal/dynamo"
)

func benchStepper(b *testing.B, integ dynamo.Stepper) {
	p := mercuryParams(b, 1e6, 0)
	x := dynamo.InitialState(4.60, 0.51)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := integ.Step(x, p)
		if err != nil {
			b.Fatal(err)
		}
		x = next
	}
}

func BenchmarkSymplecticEuler(b *testing.B) {
	benchStepper(b, NewSymplecticEuler())
}

func BenchmarkLeapfrog(b *testing.B) {
	benchStepper(b, NewLeapfrog())
}
