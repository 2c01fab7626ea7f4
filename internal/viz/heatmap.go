package viz

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/grid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ErrNotPlanar indicates a grid that cannot be drawn as a 2-D image.
var ErrNotPlanar = errors.New("viz: grid is not two-dimensional")

// labelGrid exposes ROA labels on a planar GridWorld as a plotter.GridXYZ.
type labelGrid struct {
	g      *grid.GridWorld
	labels []bool
}

func (l labelGrid) Dims() (c, r int) {
	s := l.g.Shape()
	return s[0], s[1]
}

// Z maps column c (first state coordinate) and row r (second) to 1 for stable points.
func (l labelGrid) Z(c, r int) float64 {
	s := l.g.Shape()
	if l.labels[c*s[1]+r] {
		return 1
	}
	return 0
}

func (l labelGrid) X(c int) float64 {
	return l.g.Limits()[0][0] + float64(c)*l.g.UnitLengths()[0]
}

func (l labelGrid) Y(r int) float64 {
	return l.g.Limits()[1][0] + float64(r)*l.g.UnitLengths()[1]
}

type ROAPlot struct {
	Title        string
	XLabel       string
	YLabel       string
	Palette      palette.Palette
	Trajectories [][]dynamo.State
}

// SaveROA draws labels over a planar grid, overlays any trajectories and
// writes the result as a 300 DPI PNG.
func SaveROA(filename string, g *grid.GridWorld, labels []bool, opts ROAPlot) error {
	if g.Dim() != 2 {
		return fmt.Errorf("%w: %d dimensions", ErrNotPlanar, g.Dim())
	}
	if len(labels) != g.NumPoints() {
		return fmt.Errorf("%d labels for %d grid points: %w", len(labels), g.NumPoints(), dynamo.ErrDimensionMismatch)
	}
	pal := opts.Palette
	if pal == nil {
		var err error
		if pal, err = BinaryColormap("green", 0.6); err != nil {
			return err
		}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel

	hm := plotter.NewHeatMap(labelGrid{g: g, labels: labels}, pal)
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	for _, traj := range opts.Trajectories {
		pts := make(plotter.XYs, len(traj))
		for i, s := range traj {
			pts[i].X, pts[i].Y = s[0], s[1]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
	}

	lim := g.Limits()
	p.X.Min, p.X.Max = lim[0][0], lim[0][1]
	p.Y.Min, p.Y.Max = lim[1][0], lim[1][1]
	return savePlotPNG(p, 6, 6, filename)
}

// SaveLines writes one line per series against a shared x axis.
func SaveLines(filename, title, xlabel, ylabel string, xs []float64, series map[string][]float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Legend.Top = true

	for name, ys := range series {
		n := min(len(xs), len(ys))
		pts := make(plotter.XYs, n)
		for i := 0; i < n; i++ {
			pts[i].X, pts[i].Y = xs[i], ys[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return savePlotPNG(p, 8, 6, filename)
}

// savePlotPNG renders a plot to a 300 DPI PNG. Width and height are in inches.
func savePlotPNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(300),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
