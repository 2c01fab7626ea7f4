package viz

import (
	"github.com/guptarohit/asciigraph"
)

// ASCIIPlot renders one or more equally sampled series as a terminal chart.
func ASCIIPlot(caption string, height, width int, series ...[]float64) string {
	if len(series) == 0 {
		return ""
	}
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	}
	if len(series) == 1 {
		return asciigraph.Plot(series[0], opts...)
	}
	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green}
	cs := make([]asciigraph.AnsiColor, len(series))
	for i := range cs {
		cs[i] = colors[i%len(colors)]
	}
	opts = append(opts, asciigraph.SeriesColors(cs...))
	return asciigraph.PlotMany(series, opts...)
}
