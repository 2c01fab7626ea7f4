package viz

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot/palette"
)

// ErrUnknownColor indicates a color name that is neither predefined nor hex.
var ErrUnknownColor = errors.New("viz: unknown color")

type binaryPalette [2]color.Color

func (p binaryPalette) Colors() []color.Color { return p[:] }

// Transparent is the color of unstable points.
var Transparent = color.NRGBA{R: 255, G: 255, B: 255, A: 0}

// BinaryColormap returns a two-entry palette [transparent, c] where c is
// "red", "green", "blue" or a "#rrggbb" hex code with the given alpha in [0, 1].
func BinaryColormap(name string, alpha float64) (palette.Palette, error) {
	a := uint8(clamp01(alpha)*255 + 0.5)
	var c color.NRGBA
	switch strings.ToLower(name) {
	case "red":
		c = color.NRGBA{R: 255, A: a}
	case "green":
		c = color.NRGBA{G: 255, A: a}
	case "blue":
		c = color.NRGBA{B: 255, A: a}
	default:
		r, g, b, err := parseHex(name)
		if err != nil {
			return nil, err
		}
		c = color.NRGBA{R: r, G: g, B: b, A: a}
	}
	return binaryPalette{Transparent, c}, nil
}

// BinaryColormapOf builds the palette from an arbitrary color.
func BinaryColormapOf(c color.Color) palette.Palette {
	return binaryPalette{Transparent, c}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseHex decodes a "#rrggbb" color.
func parseHex(hex string) (r, g, b uint8, err error) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnknownColor, hex)
	}
	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnknownColor, hex)
		}
		rgb[i] = uint8(v)
	}
	return rgb[0], rgb[1], rgb[2], nil
}
