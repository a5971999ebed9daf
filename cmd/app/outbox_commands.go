package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credits/cmd/app/commands"
	"github.com/allisson/credits/internal/app"
	"github.com/allisson/credits/internal/config"
	"github.com/allisson/credits/internal/httputil"
)

func getOutboxCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "worker",
			Usage: "Run the outbox dispatcher without the HTTP API",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "once",
					Value: false,
					Usage: "Run a single dispatcher tick and exit",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(context.Background()) }()

				dispatcher, err := container.Dispatcher()
				if err != nil {
					return err
				}

				ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer cancel()

				return commands.RunWorker(ctx, dispatcher, container.Logger(), cmd.Bool("once"))
			},
		},
		{
			Name:  "list-failed-events",
			Usage: "List outbox events that exhausted their delivery attempts",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "offset",
					Aliases: []string{"o"},
					Value:   0,
					Usage:   "Number of events to skip",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   httputil.DefaultPageLimit,
					Usage:   fmt.Sprintf("Maximum number of events to list (1-%d)", httputil.MaxPageLimit),
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				store, err := container.OutboxStore()
				if err != nil {
					return err
				}

				return commands.RunListFailedEvents(
					ctx,
					store,
					container.Logger(),
					cmd.Root().Writer,
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
	}
}
