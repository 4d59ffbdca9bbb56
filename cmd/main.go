package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/flashbots/pdf-gateway/config"
	"github.com/flashbots/pdf-gateway/logutils"
)

var (
	version = "development"
)

const (
	categoryLogging = "Logging:"
)

func main() {
	cfg := &config.Config{}

	app := &cli.App{
		Name:    "pdf-gateway",
		Usage:   "Fetches remote PDF documents and serves their metadata, page count and markdown",
		Version: version,

		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},

		Flags: []cli.Flag{
			&cli.StringFlag{
				Category:    categoryLogging,
				Destination: &cfg.Log.Level,
				EnvVars:     []string{"LOG_LEVEL"},
				Name:        "log-level",
				Usage:       "logging level",
				Value:       "info",
			},

			&cli.StringFlag{
				Category:    categoryLogging,
				Destination: &cfg.Log.Mode,
				EnvVars:     []string{"LOG_MODE"},
				Name:        "log-mode",
				Usage:       "logging mode",
				Value:       "prod",
			},
		},

		Before: func(ctx *cli.Context) error {
			if err := cfg.Log.Preprocess(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to configure the logging: %s\n", err)
				return err
			}
			l, err := logutils.NewLogger(&cfg.Log)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to configure the logging: %s\n", err)
				return err
			}
			zap.ReplaceGlobals(l)
			return nil
		},

		Commands: []*cli.Command{
			CommandServe(cfg),
			CommandHelp(cfg),
		},
	}

	defer func() {
		zap.L().Sync() //nolint:errcheck
	}()
	if err := app.Run(os.Args); err != nil {
		zap.L().Error("Failed with error", zap.Error(err))
		os.Exit(1)
	}
}
