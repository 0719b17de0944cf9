// Package appconf holds the process configuration and the lines file.
package appconf

import (
	"time"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the --env flag value to an Environment.
// Unknown values are treated as development.
func EnvFlagToEnvironment(env string) Environment {
	switch env {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

const (
	DefaultPeriod = 10 * time.Second
	MinPeriod     = 5 * time.Second
	MaxPeriod     = 60 * time.Second
)

// ClampPeriod limits the poll period to [MinPeriod, MaxPeriod].
func ClampPeriod(d time.Duration) time.Duration {
	return min(MaxPeriod, max(d, MinPeriod))
}

// Config holds the settings that come from flags and the environment.
type Config struct {
	Port       int
	Env        Environment
	ApiKeys    []string
	Verbose    bool
	RateLimit  int
	OBAKey     string
	BaseURL    string
	Period     time.Duration
	LinesPath  string
	GTFSStatic string
}
