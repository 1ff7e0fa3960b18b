// Package config decodes the linker's JSON input script: the ordered
// list of files to package plus optional global settings. The schema
// is small and fixed, so this uses encoding/json directly rather than
// a layered config library — see DESIGN.md.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// CompSettings are the optional, codec-specific compression parameters
// for one script entry.
type CompSettings struct {
	Method  *int     `json:"method,omitempty"`
	Offsets []uint32 `json:"offsets,omitempty"`
	Lengths []uint32 `json:"lengths,omitempty"`
}

// Export is one declared (name, address) pair for a raw input's
// exported symbol.
type Export struct {
	Name string
	Addr uint32
}

// Exports preserves the declaration order of a script entry's
// `exports` object — pass 1's duplicate-detection and insertion order
// depends on it, and encoding/json's map[string]T decoding does not
// preserve key order.
type Exports []Export

// UnmarshalJSON decodes a JSON object into Exports, preserving the
// order its members appeared in the source document.
func (e *Exports) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding exports: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoding exports: expected JSON object")
	}

	var out Exports
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding exports: %w", err)
		}
		name, ok := nameTok.(string)
		if !ok {
			return fmt.Errorf("decoding exports: expected string key")
		}

		var addr uint32
		if err := dec.Decode(&addr); err != nil {
			return fmt.Errorf("decoding exports[%q]: %w", name, err)
		}

		out = append(out, Export{Name: name, Addr: addr})
	}

	*e = out
	return nil
}

// ScriptEntry is one input to the link: either a relocatable object
// (classified by its ".o" extension) or a raw binary blob.
type ScriptEntry struct {
	File         string        `json:"file"`
	Compressed   bool          `json:"compressed,omitempty"`
	CompSettings *CompSettings `json:"comp_settings,omitempty"`
	InReloc      *uint32       `json:"inreloc,omitempty"`
	ExReloc      *uint32       `json:"exreloc,omitempty"`
	Imports      []uint16      `json:"imports,omitempty"`
	Exports      Exports       `json:"exports,omitempty"`
}

// Settings holds the global, optional linker settings.
type Settings struct {
	Output     *string  `json:"output,omitempty"`
	SearchDirs []string `json:"search_dirs,omitempty"`
}

// Config is the top-level `{settings?, script}` document.
type Config struct {
	Settings *Settings     `json:"settings,omitempty"`
	Script   []ScriptEntry `json:"script"`
}

// Load decodes a linker script from r.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config JSON: %w", err)
	}
	return &cfg, nil
}

// Resolve merges CLI-supplied search directories and output path with
// those from the config's settings block. CLI search directories are
// prepended to the config's; a CLI output path overrides the config's.
// Fails if neither source supplies an output path.
func Resolve(cfg *Config, cliSearch []string, cliOutput string) (searchDirs []string, output string, err error) {
	var cfgSearch []string
	var cfgOutput string
	if cfg.Settings != nil {
		cfgSearch = cfg.Settings.SearchDirs
		if cfg.Settings.Output != nil {
			cfgOutput = *cfg.Settings.Output
		}
	}

	switch {
	case len(cliSearch) > 0:
		searchDirs = append(append([]string{}, cliSearch...), cfgSearch...)
	default:
		searchDirs = cfgSearch
	}

	output = cliOutput
	if output == "" {
		output = cfgOutput
	}
	if output == "" {
		return nil, "", fmt.Errorf("no output location from JSON or from CLI")
	}

	return searchDirs, output, nil
}
