// Package strip describes the physical LED strip: its length, where each
// station sits for each direction of travel, the colors used to draw
// trains, and the frames pushed to the hardware.
package strip

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Direction of travel along the line.
type Direction int

const (
	South   Direction = 0
	North   Direction = 1
	Unknown Direction = -1
)

func (d Direction) String() string {
	switch d {
	case South:
		return "south"
	case North:
		return "north"
	default:
		return "unknown"
	}
}

// ParseDirection maps an OneBusAway directionId ("0" south, "1" north).
// Anything else is Unknown.
func ParseDirection(directionID string) Direction {
	v, err := strconv.Atoi(strings.TrimSpace(directionID))
	if err != nil {
		return Unknown
	}
	switch Direction(v) {
	case South:
		return South
	case North:
		return North
	default:
		return Unknown
	}
}

// DirectionIndexTable maps a station name to its pixel index for one
// direction of travel.
type DirectionIndexTable map[string]int

// Layout is the immutable strip configuration for one line. The two tables
// fold the line onto a single strip: northbound indices climb from one end,
// southbound indices descend from the other.
type Layout struct {
	Length int
	North  DirectionIndexTable
	South  DirectionIndexTable

	northStops map[int]struct{}
	southStops map[int]struct{}
}

var ErrInvalidLayout = errors.New("invalid strip layout")

// NewLayout validates and freezes a layout. It copies the tables.
func NewLayout(length int, north, south DirectionIndexTable) (*Layout, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", ErrInvalidLayout, length)
	}
	if len(north) == 0 {
		return nil, fmt.Errorf("%w: northbound table is empty", ErrInvalidLayout)
	}
	if len(south) == 0 {
		return nil, fmt.Errorf("%w: southbound table is empty", ErrInvalidLayout)
	}

	l := &Layout{
		Length:     length,
		North:      make(DirectionIndexTable, len(north)),
		South:      make(DirectionIndexTable, len(south)),
		northStops: make(map[int]struct{}, len(north)),
		southStops: make(map[int]struct{}, len(south)),
	}

	for name, idx := range north {
		if idx < 0 || idx >= length {
			return nil, fmt.Errorf("%w: northbound %q index %d outside [0, %d)", ErrInvalidLayout, name, idx, length)
		}
		l.North[name] = idx
		l.northStops[idx] = struct{}{}
	}
	for name, idx := range south {
		if idx < 0 || idx >= length {
			return nil, fmt.Errorf("%w: southbound %q index %d outside [0, %d)", ErrInvalidLayout, name, idx, length)
		}
		if _, clash := l.northStops[idx]; clash {
			return nil, fmt.Errorf("%w: southbound %q index %d is also a northbound station", ErrInvalidLayout, name, idx)
		}
		l.South[name] = idx
		l.southStops[idx] = struct{}{}
	}

	return l, nil
}

// Table returns the index table for dir. Unknown directions use the
// northbound table.
func (l *Layout) Table(dir Direction) DirectionIndexTable {
	if dir == South {
		return l.South
	}
	return l.North
}

// IsStopIndex reports whether idx is a station pixel in dir's table.
func (l *Layout) IsStopIndex(dir Direction, idx int) bool {
	stops := l.northStops
	if dir == South {
		stops = l.southStops
	}
	_, ok := stops[idx]
	return ok
}

// InRange reports whether idx is a valid pixel.
func (l *Layout) InRange(idx int) bool {
	return idx >= 0 && idx < l.Length
}

// StopNames returns every station name in either table, sorted.
func (l *Layout) StopNames() []string {
	seen := make(map[string]struct{}, len(l.North)+len(l.South))
	for name := range l.North {
		seen[name] = struct{}{}
	}
	for name := range l.South {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
