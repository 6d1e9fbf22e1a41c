package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "framesync",
		Usage: "frame-driven editor core with background import and scene jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration",
				Value:   "framesync.yaml",
				Sources: cli.EnvVars("FRAMESYNC_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "environment file loaded before the config",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the frame loop with panels, schedules and config reload",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "trigger",
						Usage: "fire the named schedule rule once at startup (repeatable)",
					},
				},
				Action: runAction,
			},
			{
				Name:      "import",
				Usage:     "import one asset and report progress until it completes",
				ArgsUsage: "<path>",
				Action:    importAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
