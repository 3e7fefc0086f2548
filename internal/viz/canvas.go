package viz

import (
	"math"
	"strings"

	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/history"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a Braille grid with its origin at the pivot. World positions
// are flipped to screen axes and scaled so that Reach fits in the
// shorter half-extent.
type Canvas struct {
	Width, Height int
	Reach         float64
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Reach:  1,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Set lights the dot at sub-pixel (x, y). The canvas is Width*2 by
// Height*4 dots.
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

// Project maps a world position to dot coordinates.
func (c *Canvas) Project(v geom.Vec) (int, int) {
	cw, ch := float64(c.Width*2), float64(c.Height*4)
	scale := math.Min(cw, ch) / 2 / c.Reach
	s := geom.Screen(v)
	return int(math.Round(cw/2 + s.X*scale)), int(math.Round(ch/2 + s.Y*scale))
}

// Line draws between two world positions.
func (c *Canvas) Line(a, b geom.Vec) {
	x0, y0 := c.Project(a)
	x1, y1 := c.Project(b)
	c.line(x0, y0, x1, y1, 1)
}

// Trail draws the segments of a fading trail. Fainter segments are drawn
// with sparser dots; segments at or below minWeight are skipped.
func (c *Canvas) Trail(segs []history.Segment[geom.Vec], minWeight float64) {
	for _, s := range segs {
		if s.Weight <= minWeight {
			continue
		}
		stride := 1
		if s.Weight < 0.5 {
			stride = 2
		}
		x0, y0 := c.Project(s.Prev)
		x1, y1 := c.Project(s.Cur)
		c.line(x0, y0, x1, y1, stride)
	}
}

// line is Bresenham's algorithm lighting every stride-th dot.
func (c *Canvas) line(x0, y0, x1, y1, stride int) {
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

	for n := 0; ; n++ {
		if n%stride == 0 {
			c.Set(x0, y0)
		}
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
