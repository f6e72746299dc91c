package tiled

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// ParseColor parses Tiled's #AARRGGBB or #RRGGBB notation.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	var argb uint64
	var err error
	switch len(hex) {
	case 6:
		argb, err = strconv.ParseUint(hex, 16, 32)
		argb |= 0xff000000
	case 8:
		argb, err = strconv.ParseUint(hex, 16, 32)
	default:
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return Color{
		A: uint8(argb >> 24),
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
	}, nil
}
