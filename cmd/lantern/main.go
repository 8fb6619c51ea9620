package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"lantern/internal/app"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	sharedFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
			},
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Haven server URL (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "prefs",
				Usage: "Path to the preferences file",
			},
			&cli.IntFlag{
				Name:  "poll",
				Usage: "Idle poll interval in seconds",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		}
	}

	optionsFrom := func(cmd *cli.Command) app.Options {
		if cmd.Bool("verbose") {
			logger.SetLevel(log.DebugLevel)
		}
		return app.Options{
			ConfigPath:  cmd.String("config"),
			PrefsPath:   cmd.String("prefs"),
			ServerURL:   cmd.String("server"),
			PollSeconds: int(cmd.Int("poll")),
			Logger:      logger,
		}
	}

	root := &cli.Command{
		Name:           "lantern",
		Usage:          "Terminal monitor for a Haven video library server",
		Version:        "0.1.0",
		Flags:          sharedFlags(),
		DefaultCommand: "monitor",
		Commands: []*cli.Command{
			{
				Name:  "monitor",
				Usage: "Watch the library and processing queue (default)",
				Flags: sharedFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return app.Run(ctx, optionsFrom(cmd))
				},
			},
			{
				Name:  "status",
				Usage: "Print a one-shot session and queue summary",
				Flags: sharedFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return app.Status(ctx, optionsFrom(cmd), os.Stdout)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx, os.Args); err != nil && ctx.Err() == nil {
		logger.Fatal("lantern failed", "error", err)
	}
}
