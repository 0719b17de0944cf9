package appconf

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cbmason/trainspotting/internal/strip"
)

const (
	SinkConsole = "console"
	SinkDevice  = "device"
	SinkMemory  = "memory"
)

// PaletteConfig overrides individual palette roles with "#rrggbb" colors.
type PaletteConfig struct {
	StoppedSouth   string `yaml:"stopped_south" validate:"omitempty,hexcolor"`
	StoppedNorth   string `yaml:"stopped_north" validate:"omitempty,hexcolor"`
	MovingSouth    string `yaml:"moving_south" validate:"omitempty,hexcolor"`
	MovingNorth    string `yaml:"moving_north" validate:"omitempty,hexcolor"`
	Collision      string `yaml:"collision" validate:"omitempty,hexcolor"`
	UnknownStopped string `yaml:"unknown_stopped" validate:"omitempty,hexcolor"`
	UnknownMoving  string `yaml:"unknown_moving" validate:"omitempty,hexcolor"`
	Off            string `yaml:"off" validate:"omitempty,hexcolor"`
}

// LineConfig describes one physical strip and the route it shows.
type LineConfig struct {
	Name             string         `yaml:"name" validate:"required"`
	RouteID          string         `yaml:"route_id" validate:"required"`
	Length           int            `yaml:"length" validate:"gt=0"`
	North            map[string]int `yaml:"north" validate:"required,min=1,dive,gte=0"`
	South            map[string]int `yaml:"south" validate:"required,min=1,dive,gte=0"`
	Palette          PaletteConfig  `yaml:"palette"`
	Sink             string         `yaml:"sink" validate:"omitempty,oneof=console device memory"`
	DevicePath       string         `yaml:"device_path" validate:"required_if=Sink device"`
	Brightness       *float64       `yaml:"brightness" validate:"omitempty,gte=0,lte=1"`
	DuplicateMarkers []string       `yaml:"duplicate_markers" validate:"dive,required"`
}

type LinesFile struct {
	Lines []LineConfig `yaml:"lines" validate:"required,min=1,dive"`
}

// LoadLines reads and validates a lines file. Every line's layout and
// palette are checked as well, so a file that loads can be run.
func LoadLines(path string) (*LinesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lines file: %w", err)
	}
	return ParseLines(data)
}

func ParseLines(data []byte) (*LinesFile, error) {
	var file LinesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lines file: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid lines file: %w", err)
	}

	seen := make(map[string]bool, len(file.Lines))
	for i := range file.Lines {
		line := &file.Lines[i]
		if seen[line.Name] {
			return nil, fmt.Errorf("invalid lines file: duplicate line name %q", line.Name)
		}
		seen[line.Name] = true
		if line.Sink == "" {
			line.Sink = SinkConsole
		}
		if _, err := line.Layout(); err != nil {
			return nil, fmt.Errorf("line %q: %w", line.Name, err)
		}
		if _, err := line.BuildPalette(); err != nil {
			return nil, fmt.Errorf("line %q: %w", line.Name, err)
		}
	}
	return &file, nil
}

func (l LineConfig) Layout() (*strip.Layout, error) {
	return strip.NewLayout(l.Length, l.North, l.South)
}

// BuildPalette starts from the default palette and applies the overrides.
func (l LineConfig) BuildPalette() (strip.Palette, error) {
	p := strip.DefaultPalette()
	overrides := []struct {
		value string
		dst   *strip.Color
	}{
		{l.Palette.StoppedSouth, &p.StoppedSouth},
		{l.Palette.StoppedNorth, &p.StoppedNorth},
		{l.Palette.MovingSouth, &p.MovingSouth},
		{l.Palette.MovingNorth, &p.MovingNorth},
		{l.Palette.Collision, &p.Collision},
		{l.Palette.UnknownStopped, &p.UnknownStopped},
		{l.Palette.UnknownMoving, &p.UnknownMoving},
		{l.Palette.Off, &p.Off},
	}
	var errs []error
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		c, err := strip.ParseColor(o.value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*o.dst = c
	}
	return p, errors.Join(errs...)
}

// DeviceBrightness returns the configured brightness, or full brightness
// when unset.
func (l LineConfig) DeviceBrightness() float64 {
	if l.Brightness == nil {
		return 1
	}
	return *l.Brightness
}
