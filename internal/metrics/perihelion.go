package metrics

import (
	"math"

	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// Perihelion detects perihelion passages as local minima of the radius and
// measures how far the perihelion longitude moves between passages.
// Advances are signed along the orbital motion: positive is prograde.
type Perihelion struct {
	name       string
	prev2      float64
	prev1      float64
	prevState  dynamo.State
	seen       int
	longitudes []float64
	advances   []float64
}

func NewPerihelion() *Perihelion {
	return &Perihelion{name: "perihelion_advance"}
}

func (p *Perihelion) Name() string { return p.name }

func (p *Perihelion) Observe(x dynamo.State, t float64) {
	r := x.Radius()
	if p.seen >= 2 && p.prev1 < p.prev2 && p.prev1 <= r {
		p.record(p.prevState)
	}
	p.prev2, p.prev1 = p.prev1, r
	p.prevState = x
	p.seen++
}

func (p *Perihelion) record(x dynamo.State) {
	lon := math.Atan2(x.Position.Y, x.Position.X)
	if n := len(p.longitudes); n > 0 {
		d := wrapAngle(lon - p.longitudes[n-1])
		if x.AngularMomentum().Z < 0 {
			d = -d
		}
		p.advances = append(p.advances, d)
	}
	p.longitudes = append(p.longitudes, lon)
}

// Passages is the number of perihelion passages detected.
func (p *Perihelion) Passages() int { return len(p.longitudes) }

// Advances returns the per-orbit perihelion shifts in radians.
func (p *Perihelion) Advances() []float64 {
	out := make([]float64, len(p.advances))
	copy(out, p.advances)
	return out
}

// Value is the mean advance per orbit in radians.
func (p *Perihelion) Value() float64 {
	if len(p.advances) == 0 {
		return 0
	}
	return stat.Mean(p.advances, nil)
}

func (p *Perihelion) StdDev() float64 {
	if len(p.advances) < 2 {
		return 0
	}
	return stat.StdDev(p.advances, nil)
}

func (p *Perihelion) Reset() {
	*p = Perihelion{name: p.name}
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Defaults returns the metrics attached to every run.
func Defaults(p dynamo.Params) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyDrift(p.BaseAcceleration),
		NewAngularMomentumDrift(),
		NewRadiusEnvelope(),
		NewPerihelion(),
	}
}
