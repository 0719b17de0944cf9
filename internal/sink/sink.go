// Package sink holds the strip.Receiver implementations that push frames
// somewhere: a terminal, an LED device node, or memory.
package sink

import (
	"context"
	"sync"

	"github.com/cbmason/trainspotting/internal/strip"
)

// Memory keeps the last frame it received.
type Memory struct {
	mu       sync.Mutex
	last     strip.Frame
	received int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Receive(_ context.Context, frame strip.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = frame.Clone()
	m.received++
	return nil
}

// Last returns the last frame and how many frames were received in total.
func (m *Memory) Last() (strip.Frame, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.Clone(), m.received
}
