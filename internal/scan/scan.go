// Package scan decodes every GGUF file under a set of roots in parallel and
// records the outcome in the catalog.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/gguflens/internal/catalog"
	"github.com/samcharles93/gguflens/internal/gguf"
	"github.com/samcharles93/gguflens/internal/logger"
)

type Options struct {
	// Workers bounds concurrent decodes. Zero means GOMAXPROCS.
	Workers int
	// Catalog, when set, receives every result and short-circuits files it
	// already holds with matching size and mtime.
	Catalog *catalog.Catalog
	// Force re-decodes files the catalog reports fresh.
	Force  bool
	Decode gguf.Options
	Logger logger.Logger
}

// Result is the outcome for one file. Err holds a decode or catalog failure
// for that file only.
type Result struct {
	Path    string
	Entry   catalog.Entry
	Skipped bool
	Err     error
}

// Run walks roots for *.gguf files and decodes each on its own source. A root
// may also name a single file. Per-file failures land in Result.Err; Run only
// fails when a root cannot be walked or ctx is cancelled.
func Run(ctx context.Context, roots []string, opts Options) ([]Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	paths, err := Find(roots)
	if err != nil {
		return nil, err
	}
	log.Debug("scan found files", "count", len(paths))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(paths))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := decodeOne(path, opts, log)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b Result) int { return strings.Compare(a.Path, b.Path) })
	return results, nil
}

func decodeOne(path string, opts Options, log logger.Logger) Result {
	res := Result{Path: path}

	st, err := os.Stat(path)
	if err != nil {
		res.Err = err
		return res
	}

	if opts.Catalog != nil && !opts.Force && opts.Catalog.Fresh(path, st.Size(), st.ModTime()) {
		if e, err := opts.Catalog.Get(path); err == nil {
			res.Entry = e
			res.Skipped = true
			log.Debug("scan skipped fresh file", "path", path)
			return res
		}
	}

	f, decodeErr := gguf.DecodeFile(path, opts.Decode)
	if decodeErr != nil {
		log.Warn("scan decode failed", "path", path, "error", decodeErr)
		res.Err = decodeErr
	}
	res.Entry = catalog.Summarize(path, st.Size(), st.ModTime(), f, decodeErr)

	if opts.Catalog != nil {
		stored, err := opts.Catalog.Put(res.Entry)
		if err != nil {
			res.Err = errors.Join(res.Err, err)
			return res
		}
		res.Entry = stored
	}
	return res
}

// Find expands roots into a sorted, de-duplicated list of absolute *.gguf
// paths. Hidden directories are not descended into.
func Find(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		st, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if !st.IsDir() {
			add(abs)
			continue
		}
		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != abs && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(p), ".gguf") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	slices.Sort(out)
	return out, nil
}
