package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	result := c.Now()
	after := time.Now()

	assert.False(t, result.Before(before))
	assert.False(t, result.After(after))
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.UnixMilli(), c.NowUnixMilli())

	c.Advance(10 * time.Second)
	assert.Equal(t, start.Add(10*time.Second), c.Now())

	c.Advance(-time.Minute)
	assert.Equal(t, start.Add(-50*time.Second), c.Now())

	later := time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestMockClock_ConcurrentAccess(t *testing.T) {
	c := NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
		}()
		go func() {
			defer wg.Done()
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 50, 0, time.UTC), c.Now())
}

func TestSince(t *testing.T) {
	start := time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC)
	c := NewMockClock(start)
	c.Advance(90 * time.Second)

	assert.Equal(t, 90*time.Second, Since(c, start))
}
