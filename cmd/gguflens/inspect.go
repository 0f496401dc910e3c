package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gguflens/internal/gguf"
	"github.com/samcharles93/gguflens/internal/logger"
	"github.com/samcharles93/gguflens/internal/report"
)

// summaryKeys are printed without --kv when present.
var summaryKeys = []string{
	"general.name",
	"general.architecture",
	"general.quantization_version",
	"general.file_type",
	"general.alignment",
	"general.context_length",
	"general.version",
	"tokenizer.ggml.model",
	"tokenizer.ggml.bos_token_id",
	"tokenizer.ggml.eos_token_id",
	"tokenizer.ggml.padding_token_id",
	"tokenizer.ggml.unknown_token_id",
}

func inspectCmd() *cli.Command {
	var (
		showKV       bool
		tensorLimit  int64
		expandArrays bool
		arrayLimit   int64
		asJSON       bool
		checkBounds  bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode a GGUF file and print its header, metadata and tensor infos",
		ArgsUsage: "<path.gguf>",
		Flags: append(decodeFlags(),
			&cli.BoolFlag{Name: "kv", Usage: "show all metadata key/values", Destination: &showKV},
			&cli.Int64Flag{
				Name:        "tensors",
				Usage:       "number of tensors to list (0 to skip, -1 for all)",
				Value:       20,
				Destination: &tensorLimit,
			},
			&cli.BoolFlag{Name: "expand-arrays", Usage: "print every array element", Destination: &expandArrays},
			&cli.Int64Flag{
				Name:        "array-limit",
				Usage:       "summarize arrays longer than this",
				Value:       report.DefaultArrayLimit,
				Destination: &arrayLimit,
			},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "check-bounds", Usage: "fail when a tensor's data lies past the end of the file", Destination: &checkBounds},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return cli.Exit("usage: gguflens inspect [flags] <path.gguf>", 2)
			}
			path := cmd.Args().First()
			log := logger.FromContext(ctx).With("path", path)

			f, err := gguf.DecodeFile(path, decodeOptions(cmd, log))
			if err != nil {
				return cli.Exit(describeDecodeError(path, err), 1)
			}
			if v := f.Version(); v != 2 && v != 3 {
				log.Warn("unexpected GGUF version", "version", v)
			}
			if !f.MagicValid() {
				log.Warn("file does not carry the GGUF magic", "magic", fmt.Sprintf("%q", f.Header.Magic[:]))
			}

			if checkBounds {
				st, err := os.Stat(path)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if err := f.CheckTensorBounds(st.Size()); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				log.Debug("tensor bounds ok", "size", st.Size())
			}

			r := report.FromFile(path, f, report.Options{
				ArrayLimit:   int(arrayLimit),
				ExpandArrays: expandArrays,
				Tensors:      int(tensorLimit),
			})
			w := cmd.Root().Writer
			if asJSON {
				return report.WriteJSON(w, r, true)
			}
			if !showKV {
				r.Metadata = slices.DeleteFunc(r.Metadata, func(e report.Entry) bool {
					return !slices.Contains(summaryKeys, e.Key)
				})
			}
			return report.WriteText(w, r)
		},
	}
}

// describeDecodeError names the failure class and, for positional errors,
// the byte offset.
func describeDecodeError(path string, err error) string {
	var de *gguf.DecodeError
	if errors.As(err, &de) {
		return fmt.Sprintf("%s: %s (%s at offset %d): %v", path, gguf.Kind(err), de.Op, de.Offset, err)
	}
	return fmt.Sprintf("%s: %v", path, err)
}
