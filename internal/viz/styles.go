package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusStable = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusUnstable = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// GradientText colors text by interpolating between two hex colors.
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	if len(text) == 0 {
		return ""
	}
	sr, sg, sb := hexOrWhite(startColor)
	er, eg, eb := hexOrWhite(endColor)

	var result strings.Builder
	runes := []rune(text)
	n := len(runes)
	for i, c := range runes {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		r := int(float64(sr) + t*float64(er-sr))
		g := int(float64(sg) + t*float64(eg-sg))
		b := int(float64(sb) + t*float64(eb-sb))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(r, g, b)))
		result.WriteString(style.Render(string(c)))
	}
	return result.String()
}

// FractionBar renders a share in [0, 1] as a colored bar.
func FractionBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case fraction > 0.8:
		return barHigh.Render(bar)
	case fraction > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

// Metric renders "label: value" with the metric styles.
func Metric(label string, value any) string {
	return MetricLabel.Render(label+":") + " " + MetricValue.Render(fmt.Sprint(value))
}

// Status renders a stable/unstable verdict.
func Status(stable bool) string {
	if stable {
		return StatusStable.Render("stable")
	}
	return StatusUnstable.Render("unstable")
}

// Separator draws a muted rule of the given width.
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	v = max(0, min(v, 255))
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}

func hexOrWhite(c lipgloss.Color) (r, g, b int) {
	cr, cg, cb, err := parseHex(string(c))
	if err != nil {
		return 255, 255, 255
	}
	return int(cr), int(cg), int(cb)
}
