package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/cbmason/trainspotting/internal/appconf"
	"github.com/cbmason/trainspotting/internal/feed"
)

func main() {
	_ = godotenv.Load()

	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "trainspotting",
		Usage: "show live light rail positions on LED strips",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "api-key",
				Usage:    "OneBusAway API key",
				EnvVars:  []string{"OBA_API_KEY"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "OneBusAway API base URL",
				EnvVars: []string{"OBA_BASE_URL"},
				Value:   feed.DefaultBaseURL,
			},
			&cli.IntFlag{
				Name:    "period",
				Usage:   "seconds between polls, clamped to [5, 60]",
				EnvVars: []string{"TRAIN_PERIOD_SEC"},
				Value:   int(appconf.DefaultPeriod / time.Second),
			},
			&cli.StringFlag{
				Name:    "lines",
				Usage:   "path to the lines file",
				EnvVars: []string{"TRAINSPOTTING_LINES"},
				Value:   "configs/lines.yml",
			},
			&cli.StringFlag{
				Name:    "gtfs-static",
				Usage:   "optional static GTFS zip (path or URL) to verify layouts against",
				EnvVars: []string{"TRAINSPOTTING_GTFS_STATIC"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP port",
				EnvVars: []string{"PORT"},
				Value:   4000,
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "development, test or production",
				EnvVars: []string{"TRAINSPOTTING_ENV"},
				Value:   "development",
			},
			&cli.StringFlag{
				Name:    "http-keys",
				Usage:   "comma separated keys for the local HTTP API, empty for open access",
				EnvVars: []string{"TRAINSPOTTING_HTTP_KEYS"},
			},
			&cli.IntFlag{
				Name:    "rate-limit",
				Usage:   "requests per second per caller, negative for unlimited",
				EnvVars: []string{"TRAINSPOTTING_RATE_LIMIT"},
				Value:   100,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "debug logging",
				EnvVars: []string{"TRAINSPOTTING_VERBOSE"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg := configFromCLI(c)
			coreApp, err := BuildApplication(cfg, os.Stdout)
			if err != nil {
				return err
			}
			srv, api := CreateServer(coreApp, cfg)
			return Run(c.Context, srv, coreApp, api)
		},
	}
}

func configFromCLI(c *cli.Context) appconf.Config {
	return appconf.Config{
		Port:       c.Int("port"),
		Env:        appconf.EnvFlagToEnvironment(c.String("env")),
		ApiKeys:    ParseAPIKeys(c.String("http-keys")),
		Verbose:    c.Bool("verbose"),
		RateLimit:  c.Int("rate-limit"),
		OBAKey:     c.String("api-key"),
		BaseURL:    c.String("base-url"),
		Period:     appconf.ClampPeriod(time.Duration(c.Int("period")) * time.Second),
		LinesPath:  c.String("lines"),
		GTFSStatic: c.String("gtfs-static"),
	}
}
