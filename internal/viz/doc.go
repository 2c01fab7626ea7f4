// Package viz renders ROA estimates.
//
// Two outputs are supported:
//
//   - PNG heatmaps of the ROA labels over a planar grid, drawn with
//     gonum/plot and a two-color [palette.Palette] from [BinaryColormap]
//   - terminal output: a Braille [Canvas] map of the stable set, ASCII line
//     charts of trajectories and lipgloss styles for summaries
package viz
