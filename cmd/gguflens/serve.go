package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gguflens/internal/api"
	"github.com/samcharles93/gguflens/internal/catalog"
	"github.com/samcharles93/gguflens/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		maxUpload   int64
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the decode and catalog HTTP API",
		Flags: append(append(decodeFlags(), catalogFlags()...),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.Int64Flag{
				Name:        "max-upload",
				Usage:       "largest accepted POST /v1/decode body in bytes",
				Value:       api.DefaultMaxUploadBytes,
				Destination: &maxUpload,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, appConfig, &addr, &maxUpload)

			var cat *catalog.Catalog
			if !noCatalog {
				path, err := resolveCatalogPath(catalogPath)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				cat, err = catalog.Open(path, catalog.Options{})
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				defer func() { _ = cat.Close() }()
				log.Info("catalog opened", "path", path)
			}

			server := api.NewServer(cat, api.Config{
				MaxUploadBytes: maxUpload,
				Decode:         decodeOptions(cmd, nil),
				Logger:         log.WithGroup("api"),
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "max_upload", maxUpload)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					srv.ReadTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
