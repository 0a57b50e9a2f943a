package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/calebfollett/gemstream/internal/api"
	"github.com/calebfollett/gemstream/internal/engine"
	"github.com/calebfollett/gemstream/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr           string
		readTimeout    time.Duration
		timeoutSeconds int64
		logLevel       string
		logFormat      string
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "timeout",
				Usage:       "per-session generation timeout in seconds",
				Value:       300,
				Destination: &timeoutSeconds,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "debug, info, warn or error",
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "text or json",
				Value:       "text",
				Destination: &logFormat,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyServeConfig(cmd, cfg, &addr)
			applyStreamConfig(cmd, cfg, &timeoutSeconds)
			if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
				logLevel = cfg.LogLevel
			}
			if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
				logFormat = cfg.LogFormat
			}

			var log logger.Logger
			if logFormat == "json" {
				log = logger.JSON(os.Stderr, logger.ParseLevel(logLevel))
			} else {
				log = logger.Default()
			}
			ctx = logger.WithContext(ctx, log)

			server := api.NewServer(func() engine.Engine {
				return &engine.Loopback{}
			}, time.Duration(timeoutSeconds)*time.Second)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			httpServer := &http.Server{
				Addr:        addr,
				Handler:     e,
				ReadTimeout: readTimeout,
				BaseContext: func(_ net.Listener) context.Context { return ctx },
			}

			log.Info("listening", "addr", addr)
			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}
}
