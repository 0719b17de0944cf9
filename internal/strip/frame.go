package strip

import (
	"context"
	"slices"
)

// Frame is one complete set of pixel colors for a strip, together with
// the trips that claimed each pixel.
type Frame struct {
	Pixels []Color
	Trips  [][]string
}

// NewFrame returns a frame of length pixels, all set to off.
func NewFrame(length int, off Color) Frame {
	f := Frame{
		Pixels: make([]Color, length),
		Trips:  make([][]string, length),
	}
	for i := range f.Pixels {
		f.Pixels[i] = off
	}
	return f
}

// Len is the number of pixels.
func (f Frame) Len() int {
	return len(f.Pixels)
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	out := Frame{
		Pixels: slices.Clone(f.Pixels),
		Trips:  make([][]string, len(f.Trips)),
	}
	for i, trips := range f.Trips {
		out.Trips[i] = slices.Clone(trips)
	}
	return out
}

// Equal compares colors only.
func (f Frame) Equal(other Frame) bool {
	return slices.Equal(f.Pixels, other.Pixels)
}

// Receiver accepts finished frames, typically to push them to hardware.
type Receiver interface {
	Receive(ctx context.Context, frame Frame) error
}
