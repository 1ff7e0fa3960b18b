// Command rld links a collection of relocatable object files and raw
// binary blobs, named by a JSON script, into a single packaged object
// for a fixed-function console's filesystem runtime.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/n64fs/rld/internal/config"
	"github.com/n64fs/rld/internal/link"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "rld: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		searchDirs []string
		output     string
		headerPath string
		depsPath   string
		verbose    bool
		showVer    bool
	)

	cmd := &cobra.Command{
		Use:           "rld <config.json>",
		Short:         "Link object and binary inputs into a console filesystem package",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVer {
				fmt.Printf("rld %s\n", version)
				return nil
			}
			if len(args) != 1 {
				cmd.Help() //nolint:errcheck
				return fmt.Errorf("path to config JSON file not passed. Use '-h' for help")
			}

			return runLink(args[0], searchDirs, output, headerPath, depsPath, verbose)
		},
	}

	cmd.Flags().StringSliceVarP(&searchDirs, "search-dir", "L", nil, "search directory for input files (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output object path")
	cmd.Flags().StringVarP(&headerPath, "header", "c", "", "write a C header of file-id defines to this path")
	cmd.Flags().StringVarP(&depsPath, "dependency-file", "d", "", "write a Makefile dependency stanza to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose diagnostic logging")
	cmd.Flags().BoolVarP(&showVer, "version", "V", false, "print the version and exit")

	return cmd
}

func runLink(configPath string, cliSearch []string, cliOutput, headerPath, depsPath string, verbose bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("couldn't open config script at %s: %w", configPath, err)
	}
	defer f.Close()

	cfg, err := config.Load(f)
	if err != nil {
		return err
	}

	searchDirs, resolvedOutput, err := config.Resolve(cfg, cliSearch, cliOutput)
	if err != nil {
		return err
	}

	return link.Run(link.Options{
		Config:     cfg,
		SearchDirs: searchDirs,
		Output:     resolvedOutput,
		HeaderPath: headerPath,
		DepsPath:   depsPath,
		Logger:     logger,
	})
}
