package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/grid"
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

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set lights the sub-pixel (x, y). The canvas is (Width*2) x (Height*4)
// sub-pixels with y growing downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
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

// Frame maps a planar box of states onto a canvas.
type Frame struct {
	Canvas *Canvas
	XMin   float64
	XMax   float64
	YMin   float64
	YMax   float64
}

func NewFrame(c *Canvas, limits [][2]float64) *Frame {
	return &Frame{
		Canvas: c,
		XMin:   limits[0][0],
		XMax:   limits[0][1],
		YMin:   limits[1][0],
		YMax:   limits[1][1],
	}
}

// pixel converts a state to sub-pixel coordinates.
func (f *Frame) pixel(s dynamo.State) (int, int) {
	w := float64(f.Canvas.Width*2 - 1)
	h := float64(f.Canvas.Height*4 - 1)
	px := (s[0] - f.XMin) / (f.XMax - f.XMin) * w
	py := (f.YMax - s[1]) / (f.YMax - f.YMin) * h
	return int(math.Round(px)), int(math.Round(py))
}

func (f *Frame) Plot(s dynamo.State) {
	f.Canvas.Set(f.pixel(s))
}

// Trace draws the polyline through a trajectory.
func (f *Frame) Trace(traj []dynamo.State) {
	for i := 1; i < len(traj); i++ {
		x0, y0 := f.pixel(traj[i-1])
		x1, y1 := f.pixel(traj[i])
		f.Canvas.DrawLine(x0, y0, x1, y1)
	}
}

// ROAMap draws the stable points of a planar grid on a w × h character canvas.
func ROAMap(g *grid.GridWorld, labels []bool, w, h int) (string, error) {
	if g.Dim() != 2 {
		return "", fmt.Errorf("%w: %d dimensions", ErrNotPlanar, g.Dim())
	}
	f := NewFrame(NewCanvas(w, h), g.Limits())
	for i, ok := range labels {
		if ok {
			f.Plot(g.Point(i))
		}
	}
	return f.Canvas.String(), nil
}
