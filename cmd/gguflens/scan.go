package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gguflens/internal/catalog"
	"github.com/samcharles93/gguflens/internal/logger"
	"github.com/samcharles93/gguflens/internal/report"
	"github.com/samcharles93/gguflens/internal/scan"
)

func scanCmd() *cli.Command {
	var (
		workers int64
		force   bool
		asJSON  bool
	)

	return &cli.Command{
		Name:      "scan",
		Usage:     "Decode every .gguf file under the given directories and record them in the catalog",
		ArgsUsage: "[dir|file ...]",
		Flags: append(append(decodeFlags(), catalogFlags()...),
			&cli.Int64Flag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "concurrent decodes (0 for one per CPU)",
				Destination: &workers,
			},
			&cli.BoolFlag{Name: "force", Usage: "re-decode files the catalog already has", Destination: &force},
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON", Destination: &asJSON},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyScanConfig(cmd, appConfig, &workers)

			roots, err := resolveScanRoots(cmd.Args().Slice(), appConfig)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			opts := scan.Options{
				Workers: int(workers),
				Force:   force,
				Decode:  decodeOptions(cmd, nil),
				Logger:  log,
			}
			if !noCatalog {
				path, err := resolveCatalogPath(catalogPath)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				cat, err := catalog.Open(path, catalog.Options{})
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				defer func() { _ = cat.Close() }()
				opts.Catalog = cat
				log.Debug("using catalog", "path", path)
			}

			results, err := scan.Run(ctx, roots, opts)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			log.Info("scan complete", "files", len(results), "failed", failed)

			w := cmd.Root().Writer
			if asJSON {
				entries := make([]catalog.Entry, len(results))
				for i, r := range results {
					entries[i] = r.Entry
				}
				return report.EncodeJSON(w, entries, true)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, scanRow(r))
			}
			report.RenderTable(w, []string{"PATH", "ARCH", "PARAMS", "TYPE", "TENSORS", "STATUS"}, rows)
			return nil
		},
	}
}

func scanRow(r scan.Result) []string {
	e := r.Entry
	status := "ok"
	switch {
	case r.Err != nil:
		status = "error: " + r.Err.Error()
		if e.ErrKind != "" {
			status = fmt.Sprintf("error (%s)", e.ErrKind)
		}
	case r.Skipped:
		status = "cached"
	}
	params := "-"
	if e.Parameters > 0 {
		params = report.HumanCount(e.Parameters)
	}
	return []string{
		r.Path,
		orDash(e.Architecture),
		params,
		orDash(e.FileType),
		strconv.FormatUint(e.TensorCount, 10),
		status,
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
