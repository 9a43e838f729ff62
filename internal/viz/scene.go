package viz

import (
	"github.com/san-kum/precession/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width           = 48
	height          = 24
	historyCapacity = 600
	defaultExtent   = 2.0
)

// Scene receives frames from the loop and draws the central mass, the
// trail and the body marker on a canvas.
type Scene struct {
	canvas   *Canvas
	last     sim.Frame
	frames   int
	radii    []float64
	bodySize int
}

func NewScene(w, h int, extent float64) *Scene {
	if extent <= 0 {
		extent = defaultExtent
	}
	return &Scene{
		canvas:   NewCanvas(w, h, extent),
		radii:    make([]float64, 0, historyCapacity),
		bodySize: 1,
	}
}

func (s *Scene) Render(f sim.Frame) {
	s.last = f
	s.frames++

	s.radii = append(s.radii, f.State.Radius())
	if len(s.radii) > historyCapacity {
		s.radii = s.radii[1:]
	}

	s.canvas.Clear()
	s.canvas.Disc(r3.Vec{}, 2)
	s.canvas.Polyline(f.Trail[:f.Count])
	s.canvas.Disc(f.Body, s.bodySize)
}

// Frame returns the most recent frame and how many were rendered.
func (s *Scene) Frame() (sim.Frame, int) { return s.last, s.frames }

func (s *Scene) Radii() []float64 { return s.radii }

func (s *Scene) Canvas() *Canvas { return s.canvas }
