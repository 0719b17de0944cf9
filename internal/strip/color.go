package strip

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is one 24-bit RGB pixel value.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Off is the color of an unlit pixel.
var Off = Color{}

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

// ParseColor accepts "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Palette assigns a color to every render role.
type Palette struct {
	StoppedSouth   Color
	StoppedNorth   Color
	MovingSouth    Color
	MovingNorth    Color
	Collision      Color
	UnknownStopped Color
	UnknownMoving  Color
	Off            Color
}

// DefaultPalette returns the stock colors: reds for stopped trains, greens
// for moving ones, lighter shades southbound, white for shared pixels.
func DefaultPalette() Palette {
	return Palette{
		StoppedSouth:   Color{R: 255, G: 102, B: 102}, // light red
		StoppedNorth:   Color{R: 255, G: 0, B: 0},     // red
		MovingSouth:    Color{R: 144, G: 238, B: 144}, // light green
		MovingNorth:    Color{R: 0, G: 255, B: 0},     // green
		Collision:      Color{R: 255, G: 255, B: 255}, // white
		UnknownStopped: Color{R: 128, G: 0, B: 128},   // purple
		UnknownMoving:  Color{R: 255, G: 105, B: 180}, // pink
		Off:            Off,
	}
}

// For returns the color of a single vehicle in the given direction and
// motion state.
func (p Palette) For(dir Direction, stopped bool) Color {
	switch dir {
	case South:
		if stopped {
			return p.StoppedSouth
		}
		return p.MovingSouth
	case North:
		if stopped {
			return p.StoppedNorth
		}
		return p.MovingNorth
	default:
		if stopped {
			return p.UnknownStopped
		}
		return p.UnknownMoving
	}
}
