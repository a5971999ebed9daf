package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credits/cmd/app/commands"
	"github.com/allisson/credits/internal/app"
	"github.com/allisson/credits/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP API, the metrics server and the outbox dispatcher",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply database migrations for the configured driver",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "steps",
					Value: 0,
					Usage: "Migrate by this many steps instead of all the way up; negative rolls back",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(
					container.Logger(),
					cfg.DBDriver,
					cfg.DBConnectionString,
					int(cmd.Int("steps")),
				)
			},
		},
	}
}
