package viz

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const blank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille grid looking down the Z axis at the square
// [-Extent, Extent] of render space.
type Canvas struct {
	Width, Height int
	Extent        float64
	Grid          [][]rune
}

func NewCanvas(w, h int, extent float64) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Extent: extent,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Project maps a render-space point to sub-pixel coordinates. Z is dropped.
func (c *Canvas) Project(p r3.Vec) (int, int) {
	sw, sh := c.Width*2, c.Height*4
	minDim := sw
	if sh < minDim {
		minDim = sh
	}
	scale := float64(minDim) / (2 * c.Extent)
	return sw/2 + int(p.X*scale), sh/2 - int(p.Y*scale)
}

// Set lights the sub-pixel (x, y); the canvas is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Polyline joins consecutive points.
func (c *Canvas) Polyline(points []r3.Vec) {
	for i := 1; i < len(points); i++ {
		x0, y0 := c.Project(points[i-1])
		x1, y1 := c.Project(points[i])
		c.DrawLine(x0, y0, x1, y1)
	}
	if len(points) == 1 {
		c.Set(c.Project(points[0]))
	}
}

// Disc fills a square marker of the given sub-pixel radius around p.
func (c *Canvas) Disc(p r3.Vec, radius int) {
	cx, cy := c.Project(p)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				c.Set(cx+dx, cy+dy)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
