package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "gguflens",
		Usage: "Inspect, index and serve GGUF model metadata",
		Flags: append(loggingFlags(), &cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Sources:     cli.EnvVars(envConfigPath),
			Destination: &configFile,
		}),
		Before: setup,
		Commands: []*cli.Command{
			inspectCmd(),
			scanCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

// setup loads the config file and installs the logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}
	appConfig = cfg

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}
	return withLogger(ctx, log), nil
}
