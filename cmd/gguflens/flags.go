package main

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gguflens/internal/gguf"
	"github.com/samcharles93/gguflens/internal/logger"
)

var (
	configFile string
	appConfig  Config

	logLevel  string
	logFormat string
	debug     bool
	noColor   bool

	maxDepth      int64
	allowBadMagic bool
	catalogPath   string
	noCatalog     bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       logger.FormatAuto,
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable colored log output",
			Destination: &noColor,
		},
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "max-depth",
			Usage:       "maximum array nesting (0 for the default, -1 for no limit)",
			Destination: &maxDepth,
		},
		&cli.BoolFlag{
			Name:        "allow-bad-magic",
			Usage:       "keep decoding when the file does not start with GGUF",
			Destination: &allowBadMagic,
		},
	}
}

func catalogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog",
			Usage:       "path to the catalog database",
			Sources:     cli.EnvVars(envCatalogPath),
			Destination: &catalogPath,
		},
		&cli.BoolFlag{
			Name:        "no-catalog",
			Usage:       "do not read or write the catalog",
			Destination: &noCatalog,
		},
	}
}

// decodeOptions merges decode flags over the config file.
func decodeOptions(cmd *cli.Command, log logger.Logger) gguf.Options {
	opts := gguf.Options{
		MaxDepth:      int(maxDepth),
		AllowBadMagic: allowBadMagic,
		Logger:        log,
	}
	if appConfig.MaxDepth != nil && !cmd.IsSet("max-depth") {
		opts.MaxDepth = *appConfig.MaxDepth
	}
	if appConfig.AllowBadMagic != nil && !cmd.IsSet("allow-bad-magic") {
		opts.AllowBadMagic = *appConfig.AllowBadMagic
	}
	return opts
}

func newLogger(cmd *cli.Command, cfg Config) (logger.Logger, error) {
	level := logLevel
	if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
		level = cfg.LogLevel
	}
	if debug {
		level = "debug"
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	format := logFormat
	if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
		format = cfg.LogFormat
	}

	var w io.Writer = os.Stderr
	if cmd.Root().ErrWriter != nil {
		w = cmd.Root().ErrWriter
	}
	return logger.Open(w, logger.Config{
		Format:  format,
		Level:   lvl,
		NoColor: noColor || os.Getenv("NO_COLOR") != "",
	})
}

func withLogger(ctx context.Context, log logger.Logger) context.Context {
	return logger.WithContext(ctx, log)
}
