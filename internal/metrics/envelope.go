package metrics

import (
	"math"

	"github.com/san-kum/precession/internal/dynamo"
)

// RadiusEnvelope records the smallest and largest orbital radius seen.
// Its value is the aphelion/perihelion ratio.
type RadiusEnvelope struct {
	name     string
	min, max float64
	samples  int
}

func NewRadiusEnvelope() *RadiusEnvelope {
	r := &RadiusEnvelope{name: "radius_ratio"}
	r.Reset()
	return r
}

func (r *RadiusEnvelope) Name() string { return r.name }

func (r *RadiusEnvelope) Observe(x dynamo.State, t float64) {
	radius := x.Radius()
	r.min = math.Min(r.min, radius)
	r.max = math.Max(r.max, radius)
	r.samples++
}

func (r *RadiusEnvelope) Min() float64 { return r.min }
func (r *RadiusEnvelope) Max() float64 { return r.max }

func (r *RadiusEnvelope) Value() float64 {
	if r.samples == 0 || r.min == 0 {
		return 0
	}
	return r.max / r.min
}

func (r *RadiusEnvelope) Reset() {
	r.min = math.Inf(1)
	r.max = 0
	r.samples = 0
}
