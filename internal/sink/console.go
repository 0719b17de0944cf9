package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cbmason/trainspotting/internal/strip"
)

// Console prints a frame folded in half, the way the strip is mounted:
// the first half runs up the left column and the second half down the
// right. Each cell shows the pixel color and the trips drawn on it.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	off strip.Color
}

func NewConsole(w io.Writer, off strip.Color) *Console {
	return &Console{w: w, off: off}
}

func (c *Console) Receive(ctx context.Context, frame strip.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	rows := frame.Len() / 2
	left := rows - 1
	right := rows
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "[%-40s], [%40s]\n", c.cell(frame, left-i), c.cell(frame, right+i))
	}
	if frame.Len()%2 == 1 {
		fmt.Fprintf(&b, "%44s[%s]\n", "", c.cell(frame, frame.Len()-1))
	}
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) cell(frame strip.Frame, idx int) string {
	if frame.Pixels[idx] == c.off {
		return ""
	}
	return frame.Pixels[idx].Hex() + " " + strings.Join(frame.Trips[idx], ",")
}
