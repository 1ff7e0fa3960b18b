// link.go is the top-level driver: it runs pass 1, pass 2, and output
// assembly in order, and writes the resulting object, optional C
// header, and optional Makefile dependency file.
package link

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/n64fs/rld/internal/cheader"
	"github.com/n64fs/rld/internal/config"
	"github.com/n64fs/rld/internal/layout"
	"github.com/n64fs/rld/internal/makedep"
	"github.com/n64fs/rld/internal/output"
)

// Options configures one end-to-end link.
type Options struct {
	Config     *config.Config
	SearchDirs []string
	Output     string
	HeaderPath string
	DepsPath   string
	Logger     *slog.Logger
}

// Run performs the full two-pass link and writes the output object
// (and, if requested, the C header and dependency file).
func Run(opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	p1, err := RunPass1(opts.Config.Script, opts.SearchDirs, logger)
	if err != nil {
		return fmt.Errorf("linker pass 1: %w", err)
	}

	laidOut, err := layout.Run(p1.Inputs, p1.Symbols)
	if err != nil {
		return fmt.Errorf("linker pass 2: %w", err)
	}

	obj, err := output.Assemble(laidOut.Table, laidOut.Files, p1.Symbols)
	if err != nil {
		return fmt.Errorf("assembling output object: %w", err)
	}

	if err := os.WriteFile(opts.Output, obj, 0o644); err != nil {
		return fmt.Errorf("writing output %s: %w", opts.Output, err)
	}
	logger.Info("wrote output object", "path", opts.Output, "files", len(p1.Inputs), "bytes", len(obj))

	if opts.HeaderPath != "" {
		f, err := os.Create(opts.HeaderPath)
		if err != nil {
			return fmt.Errorf("creating header %s: %w", opts.HeaderPath, err)
		}
		defer f.Close()
		if err := cheader.Write(f, p1.CHeader); err != nil {
			return fmt.Errorf("writing header %s: %w", opts.HeaderPath, err)
		}
	}

	if opts.DepsPath != "" {
		f, err := os.Create(opts.DepsPath)
		if err != nil {
			return fmt.Errorf("creating dependency file %s: %w", opts.DepsPath, err)
		}
		defer f.Close()

		deps := make([]string, len(p1.Inputs))
		for i, in := range p1.Inputs {
			deps[i] = in.ResolvedPath
		}
		if err := makedep.Write(f, opts.Output, deps); err != nil {
			return fmt.Errorf("writing dependency file %s: %w", opts.DepsPath, err)
		}
	}

	return nil
}
