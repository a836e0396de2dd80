// The btt command bridges BetterTouchTool to MCP clients over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/aidanlowrie/MCP-Servers/internal/btt"
)

func run(_ context.Context, cmd *cli.Command) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	commander := btt.NewCommander(cmd.String("shared-secret"))
	srv := btt.NewServer(commander)

	logger.Info("Starting BTT bridge on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("btt bridge error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "btt",
		Usage:  "MCP bridge for BetterTouchTool triggers",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "shared-secret",
				Usage:   "Shared secret BTT expects on scripting URLs",
				Sources: cli.EnvVars("BTT_SHARED_SECRET"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
