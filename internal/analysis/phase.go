package analysis

import (
	"strings"

	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XLabel, YLabel string
	Points         []Point
}

// RadialVelocity is the rate of change of |position|.
func RadialVelocity(x dynamo.State) float64 {
	r := x.Radius()
	if r == 0 {
		return 0
	}
	return r3.Dot(x.Position, x.Velocity) / r
}

// RadialPortrait maps each state to (r, dr/dt).
func RadialPortrait(states []dynamo.State) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		XLabel: "r",
		YLabel: "dr/dt",
		Points: make([]Point, 0, len(states)),
	}
	for _, x := range states {
		portrait.Points = append(portrait.Points, Point{X: x.Radius(), Y: RadialVelocity(x)})
	}
	return portrait
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	xs := make([]float64, len(portrait.Points))
	ys := make([]float64, len(portrait.Points))
	for i, p := range portrait.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// axes, where they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PerihelionSection records the in-plane position each time the radial
// velocity crosses zero from negative to positive, interpolated between the
// two bracketing states.
func PerihelionSection(states []dynamo.State) *PhasePortrait2D {
	section := &PhasePortrait2D{XLabel: "x", YLabel: "y"}
	if len(states) < 2 {
		return section
	}

	prevVal := RadialVelocity(states[0])
	for i := 1; i < len(states); i++ {
		currVal := RadialVelocity(states[i])
		if prevVal < 0 && currVal >= 0 {
			frac := -prevVal / (currVal - prevVal)
			a, b := states[i-1].Position, states[i].Position
			p := r3.Add(a, r3.Scale(frac, r3.Sub(b, a)))
			section.Points = append(section.Points, Point{X: p.X, Y: p.Y})
		}
		prevVal = currVal
	}
	return section
}
