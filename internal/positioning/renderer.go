package positioning

import (
	"github.com/cbmason/trainspotting/internal/strip"
)

// Occupancy counts the vehicles drawn on each pixel this cycle.
type Occupancy map[int]int

// Render records a claim on idx and returns the color the pixel should
// take. A pixel claimed more than once shows the collision color no matter
// which directions the vehicles travel.
func Render(palette strip.Palette, idx int, dir strip.Direction, stopped bool, occupancy Occupancy) strip.Color {
	prior := occupancy[idx]
	occupancy[idx] = prior + 1
	if prior > 0 {
		return palette.Collision
	}
	return palette.For(dir, stopped)
}

// canvas accumulates one cycle's frame.
type canvas struct {
	palette   strip.Palette
	frame     strip.Frame
	occupancy Occupancy
}

func newCanvas(length int, palette strip.Palette) *canvas {
	return &canvas{
		palette:   palette,
		frame:     strip.NewFrame(length, palette.Off),
		occupancy: make(Occupancy),
	}
}

func (c *canvas) draw(idx int, dir strip.Direction, stopped bool, tripID string) {
	c.frame.Pixels[idx] = Render(c.palette, idx, dir, stopped, c.occupancy)
	c.frame.Trips[idx] = append(c.frame.Trips[idx], tripID)
}

// collisions is the number of pixels claimed by more than one vehicle.
func (c *canvas) collisions() int {
	n := 0
	for _, count := range c.occupancy {
		if count > 1 {
			n++
		}
	}
	return n
}
