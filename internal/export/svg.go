package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// view maps trail points seen down the Z axis to image coordinates, with the
// central mass at the centre of a square image just large enough to hold
// every point.
type view struct {
	size  int
	half  float64
	scale float64
}

func newView(points []r3.Vec, size int) view {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	extent := math.Max(
		math.Max(math.Abs(floats.Min(xs)), math.Abs(floats.Max(xs))),
		math.Max(math.Abs(floats.Min(ys)), math.Abs(floats.Max(ys))),
	)
	if extent == 0 {
		extent = 1
	}
	extent *= 1.1

	half := float64(size) / 2
	return view{size: size, half: half, scale: half / extent}
}

func (v view) header(sb *strings.Builder) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#000000"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#aa9900"/>
`, v.size, v.size, v.size, v.size, v.half, v.half, math.Max(2, float64(v.size)/80))
}

func (v view) path(sb *strings.Builder, points []r3.Vec, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, html.EscapeString(stroke))
	for i, p := range points {
		x := v.half + p.X*v.scale
		y := v.half - p.Y*v.scale
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// TrailToSVG draws a trail as a single polyline.
func TrailToSVG(points []r3.Vec, size int, strokeColor string) string {
	if len(points) < 2 || size <= 0 {
		return ""
	}

	v := newView(points, size)
	var sb strings.Builder
	v.header(&sb)
	v.path(&sb, points, strokeColor)
	sb.WriteString("</svg>")
	return sb.String()
}

// FadedTrailToSVG splits the trail into bands consecutive paths coloured
// from the oldest point's colour to the newest, blended in Lab space.
func FadedTrailToSVG(points []r3.Vec, size int, from, to string, bands int) (string, error) {
	if len(points) < 2 || size <= 0 {
		return "", nil
	}
	c0, err := colorful.Hex(from)
	if err != nil {
		return "", fmt.Errorf("export: start colour: %w", err)
	}
	c1, err := colorful.Hex(to)
	if err != nil {
		return "", fmt.Errorf("export: end colour: %w", err)
	}

	segments := len(points) - 1
	if bands < 1 {
		bands = 1
	}
	if bands > segments {
		bands = segments
	}

	v := newView(points, size)
	var sb strings.Builder
	v.header(&sb)
	for i := 0; i < bands; i++ {
		lo := i * segments / bands
		hi := (i + 1) * segments / bands
		t := 0.0
		if bands > 1 {
			t = float64(i) / float64(bands-1)
		}
		v.path(&sb, points[lo:hi+1], c0.BlendLab(c1, t).Clamped().Hex())
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}
