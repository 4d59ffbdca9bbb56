package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/flashbots/pdf-gateway/config"
	"github.com/flashbots/pdf-gateway/metrics"
	"github.com/flashbots/pdf-gateway/server"
)

const (
	categoryCache   = "Cache:"
	categoryFetch   = "Fetch:"
	categoryRender  = "Render:"
	categoryServing = "Serving:"
)

func CommandServe(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the document gateway server",

		Flags: []cli.Flag{

			// Serving

			&cli.StringFlag{
				Category:    categoryServing,
				Destination: &cfg.Server.ListenAddress,
				EnvVars:     []string{"SERVER_LISTEN_ADDRESS"},
				Name:        "server-listen-address",
				Usage:       "serve document requests at the address of `host:port`",
				Value:       "0.0.0.0:8080",
			},

			&cli.DurationFlag{
				Category:    categoryServing,
				Destination: &cfg.Server.ShutdownTimeout,
				EnvVars:     []string{"SERVER_SHUTDOWN_TIMEOUT"},
				Name:        "server-shutdown-timeout",
				Usage:       "maximum `duration` to wait for in-flight requests on shutdown",
				Value:       30 * time.Second,
			},

			// Fetch

			&cli.DurationFlag{
				Category:    categoryFetch,
				Destination: &cfg.Fetch.Timeout,
				EnvVars:     []string{"FETCH_TIMEOUT"},
				Name:        "fetch-timeout",
				Usage:       "upstream document download timeout `duration` (0 disables it)",
				Value:       0,
			},

			&cli.StringFlag{
				Category:    categoryFetch,
				Destination: &cfg.Fetch.UserAgent,
				EnvVars:     []string{"FETCH_USER_AGENT"},
				Name:        "fetch-user-agent",
				Usage:       "user-agent `header` sent upstream",
				Value:       "pdf-gateway/" + version,
			},

			// Cache

			&cli.DurationFlag{
				Category:    categoryCache,
				Destination: &cfg.Cache.TTL,
				EnvVars:     []string{"CACHE_TTL"},
				Name:        "cache-ttl",
				Usage:       "`duration` for which fetched documents (and fetch failures) are reused",
				Value:       5 * time.Minute,
			},

			&cli.DurationFlag{
				Category:    categoryCache,
				Destination: &cfg.Cache.SweepInterval,
				EnvVars:     []string{"CACHE_SWEEP_INTERVAL"},
				Name:        "cache-sweep-interval",
				Usage:       "`duration` between expiry sweeps (defaults to the cache ttl)",
			},

			// Render

			&cli.IntFlag{
				Category:    categoryRender,
				Destination: &cfg.Render.Concurrency,
				EnvVars:     []string{"RENDER_CONCURRENCY"},
				Name:        "render-concurrency",
				Usage:       "maximum `count` of documents parsed at the same time",
				Value:       4,
			},
		},

		Before: func(_ *cli.Context) error {
			return cfg.Preprocess()
		},

		Action: func(_ *cli.Context) error {
			if err := metrics.Setup(context.Background()); err != nil {
				return err
			}
			s, err := server.New(cfg)
			if err != nil {
				return err
			}
			return s.Run()
		},
	}
}
