// Package dynamo provides the core primitives of the orbit simulator.
//
// The package defines the types shared by every stage of a run:
//
//   - [State]: position and velocity of the orbiting body
//   - [Params]: immutable physical constants of the force law
//   - [Stepper]: one fixed-size integration step
//   - [Observer]: per-step hook used by metrics
//
// # Example
//
//	p, _ := dynamo.NewParams(0.99, 2.95e-7, 8.19e-7, 1e6, 0, 0.51, 20)
//	x := dynamo.InitialState(4.60, 0.51)
//	x, err := integrators.NewSymplecticEuler().Step(x, p)
//
// # Thread Safety
//
// [State] and [Params] are plain values and may be shared freely.
// The built-in steppers hold no state. The simulation loop that owns a
// State is NOT thread-safe.
package dynamo
