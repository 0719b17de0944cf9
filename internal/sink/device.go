package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cbmason/trainspotting/internal/strip"
)

// Device writes frames as WS2812 GRB byte triples to a device node such
// as a USB serial bridge or an SPI driver that clocks the data out.
type Device struct {
	mu         sync.Mutex
	w          io.Writer
	brightness float64
	buf        []byte
}

// NewDevice wraps w. Brightness is clamped to [0, 1].
func NewDevice(w io.Writer, brightness float64) *Device {
	return &Device{w: w, brightness: min(max(brightness, 0), 1)}
}

// OpenDevice opens path for writing and wraps it.
func OpenDevice(path string, brightness float64) (*Device, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open LED device %s: %w", path, err)
	}
	return NewDevice(f, brightness), nil
}

func (d *Device) Receive(ctx context.Context, frame strip.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = Encode(d.buf[:0], frame, d.brightness)
	n, err := d.w.Write(d.buf)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if n != len(d.buf) {
		return fmt.Errorf("write frame: short write %d of %d bytes", n, len(d.buf))
	}
	return nil
}

// Close closes the underlying writer if it is closable.
func (d *Device) Close() error {
	if c, ok := d.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Encode appends the GRB bytes of frame to dst.
func Encode(dst []byte, frame strip.Frame, brightness float64) []byte {
	scale := func(v uint8) byte {
		return byte(float64(v)*brightness + 0.5)
	}
	for _, c := range frame.Pixels {
		dst = append(dst, scale(c.G), scale(c.R), scale(c.B))
	}
	return dst
}
