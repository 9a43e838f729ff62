package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/precession/internal/dynamo"
)

// Default is the name of the reference stepper.
const Default = "symplectic"

var steppers = map[string]func() dynamo.Stepper{
	"symplectic": func() dynamo.Stepper { return NewSymplecticEuler() },
	"leapfrog":   func() dynamo.Stepper { return NewLeapfrog() },
}

// Get returns a fresh stepper by name.
func Get(name string) (dynamo.Stepper, error) {
	fn, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", dynamo.ErrUnknownStepper, name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
