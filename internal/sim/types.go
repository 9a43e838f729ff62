package sim

import (
	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is everything a renderer needs to draw one iteration.
// Trail is the trail's backing storage; only Trail[:Count] is valid.
type Frame struct {
	Body  r3.Vec
	Trail []r3.Vec
	Count int
	State dynamo.State
	Step  int
	Time  float64
}

// Renderer draws a frame. The loop ignores anything the renderer does
// with it and never reads a result back.
type Renderer interface {
	Render(f Frame)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(f Frame)

func (fn RendererFunc) Render(f Frame) { fn(f) }

// NopRenderer discards every frame. Used by headless runs.
type NopRenderer struct{}

func (NopRenderer) Render(Frame) {}

type Config struct {
	// Scale maps physical positions to render space.
	Scale float64
	// TrailOffset is added to trail points only, to keep the polyline
	// behind the body marker.
	TrailOffset r3.Vec
}

// DefaultConfig scales lengths by 0.25 and pushes the trail 2 units back
// along Z.
func DefaultConfig() Config {
	return Config{
		Scale:       0.25,
		TrailOffset: r3.Vec{Z: -2},
	}
}
