// Package link orchestrates the two-pass link engine described in the
// spec: pass 1 builds the symbol index, pass 2 extracts, relocates,
// compresses, and lays out each file. This mirrors the structure of
// the original's link/pass1.rs + link/pass2.rs (and the teacher
// yld's resolveSymbols/layout/relocate split) but targets real ELF
// objects instead of a bespoke format.
package link

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/n64fs/rld/internal/cheader"
	"github.com/n64fs/rld/internal/compress"
	"github.com/n64fs/rld/internal/config"
	"github.com/n64fs/rld/internal/layout"
	"github.com/n64fs/rld/internal/model"
	"github.com/n64fs/rld/internal/objfile"
	"github.com/n64fs/rld/internal/pathresolve"
)

// IsObject classifies a path as a relocatable object iff its
// extension is exactly ".o".
func IsObject(path string) bool {
	return filepath.Ext(path) == ".o"
}

// conflict records the first duplicate-symbol-definition encountered
// during pass 1.
type conflict struct {
	name      string
	definedIn string
}

// Pass1Result is the output of pass 1: the entries to feed into
// layout, the global symbol index, and the C-header definitions.
type Pass1Result struct {
	Inputs  []layout.Input
	Symbols model.SymbolIndex
	CHeader []model.CHeaderEntry
}

// RunPass1 resolves every script entry's path, builds the global
// symbol index from object symbols and declared raw exports, and
// derives the C-header name list — all in script order.
func RunPass1(script []config.ScriptEntry, searchDirs []string, logger *slog.Logger) (*Pass1Result, error) {
	symbols := make(model.SymbolIndex, len(script))
	cHeader := make([]model.CHeaderEntry, 0, len(script))
	inputs := make([]layout.Input, 0, len(script))

	var firstConflict *conflict

	for i, entry := range script {
		if i > 0xFFFF {
			return nil, fmt.Errorf("more than %d files: file %q was %d", 0xFFFF, entry.File, i)
		}
		index := uint16(i)

		cHeader = append(cHeader, model.CHeaderEntry{Name: cheader.NameFor(entry.File), Index: index})

		resolved, err := pathresolve.Resolve(entry.File, searchDirs)
		if err != nil {
			return nil, fmt.Errorf("locating files to link: %w", err)
		}

		isObj := IsObject(resolved)
		in := layout.Input{
			ResolvedPath: resolved,
			IsObject:     isObj,
			Compressed:   entry.Compressed,
			CompSettings: toCompressSettings(entry.CompSettings),
			Imports:      entry.Imports,
			InRelocHint:  entry.InReloc,
			ExRelocHint:  entry.ExReloc,
		}

		if isObj {
			obj, err := objfile.Open(resolved)
			if err != nil {
				return nil, err
			}
			globals, err := obj.GlobalSymbols()
			if err != nil {
				return nil, err
			}
			for _, sym := range globals {
				if old, exists := symbols[sym.Name]; exists && firstConflict == nil {
					firstConflict = &conflict{name: sym.Name, definedIn: script[old.File].File}
				}
				symbols[sym.Name] = model.Symbol{Addr: sym.Addr, File: index}
				if logger != nil {
					logger.Debug("global symbol", "name", sym.Name, "addr", sym.Addr, "file", resolved)
				}
			}
		} else if entry.Exports != nil {
			for _, exp := range entry.Exports {
				if old, exists := symbols[exp.Name]; exists {
					if firstConflict == nil {
						firstConflict = &conflict{name: exp.Name, definedIn: script[old.File].File}
					}
					break
				}
				symbols[exp.Name] = model.Symbol{Addr: exp.Addr, File: index}
			}
		}

		inputs = append(inputs, in)
	}

	if firstConflict != nil {
		return nil, fmt.Errorf("symbol %q already defined in file %q", firstConflict.name, firstConflict.definedIn)
	}

	return &Pass1Result{Inputs: inputs, Symbols: symbols, CHeader: cHeader}, nil
}

func toCompressSettings(s *config.CompSettings) *compress.Settings {
	if s == nil {
		return nil
	}
	return &compress.Settings{Method: s.Method, Offsets: s.Offsets, Lengths: s.Lengths}
}
