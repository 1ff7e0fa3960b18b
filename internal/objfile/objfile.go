// Package objfile reads a 32-bit big-endian MIPS ELF relocatable
// object: its global symbols, and its .data section's bytes and
// relocation entries. Reading uses the standard library's debug/elf
// for the header, sections, and symbol table (the same approach
// davejbax-pixie/internal/grub takes for its ELF input); relocation
// entries are not exposed generically by debug/elf, so they are
// unpacked by hand with github.com/lunixbochs/struc, mirroring the
// Rel/Rela unpacking in davejbax-pixie/internal/grub/reloc.go.
package objfile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/lunixbochs/struc"
)

var (
	// ErrMissingDataSection is returned when an object has no .data section.
	ErrMissingDataSection = errors.New("missing .data section")
	// ErrUnsupportedRelocWidth is returned for a relocation whose width is not 32 bits.
	ErrUnsupportedRelocWidth = errors.New("unsupported relocation width")
	// ErrUnsupportedRelocTarget is returned when a relocation does not target a named symbol.
	ErrUnsupportedRelocTarget = errors.New("unsupported relocation target")
)

// GlobalSymbol is a qualifying global symbol exported by an object:
// kind "unknown" (STT_NOTYPE in ELF terms — not a debug, section, or
// file symbol) and STB_GLOBAL binding.
type GlobalSymbol struct {
	Name string
	Addr uint32
}

// Relocation is a single .data relocation site and the name of the
// symbol it targets.
type Relocation struct {
	Offset     uint32
	SymbolName string
}

// Object is a parsed relocatable object file.
type Object struct {
	Path string
	elf  *elf.File
}

// Open parses the object at path.
func Open(path string) (*Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", path, err)
	}
	defer f.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", path, err)
	}

	ef, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing object %s: %w", path, err)
	}

	return &Object{Path: path, elf: ef}, nil
}

// GlobalSymbols returns the object's qualifying global symbols: kind
// unknown (STT_NOTYPE: not debug, section, or file scoped), marked
// global, and defined in some section (SHN_UNDEF references are
// skipped). Non-qualifying symbols are silently ignored.
func (o *Object) GlobalSymbols() ([]GlobalSymbol, error) {
	syms, err := o.elf.Symbols()
	if err != nil {
		// A relocatable object with no symbol table at all has no
		// global symbols to contribute.
		if errors.Is(err, elf.ErrNoSymbols) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading symbols in %s: %w", o.Path, err)
	}

	var out []GlobalSymbol
	for _, sym := range syms {
		if elf.ST_TYPE(sym.Info) != elf.STT_NOTYPE {
			continue
		}
		if elf.ST_BIND(sym.Info) != elf.STB_GLOBAL {
			continue
		}
		if sym.Section == elf.SHN_UNDEF {
			continue // undefined reference, not a definition
		}
		out = append(out, GlobalSymbol{Name: sym.Name, Addr: uint32(sym.Value)})
	}
	return out, nil
}

// DataRelocations returns the raw (unrewritten) bytes of the .data
// section and its relocation entries, in the object's natural order.
func (o *Object) DataRelocations() ([]byte, []Relocation, error) {
	sec := o.elf.Section(".data")
	if sec == nil {
		return nil, nil, fmt.Errorf("%s: %w", o.Path, ErrMissingDataSection)
	}

	data, err := sec.Data()
	if err != nil {
		return nil, nil, fmt.Errorf("reading .data in %s: %w", o.Path, err)
	}

	dataIndex := -1
	for i, s := range o.elf.Sections {
		if s == sec {
			dataIndex = i
			break
		}
	}

	syms, err := o.elf.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, nil, fmt.Errorf("reading symbols in %s: %w", o.Path, err)
	}

	symbolName := func(rawIndex uint32) (string, error) {
		if rawIndex == 0 || int(rawIndex) > len(syms) {
			return "", fmt.Errorf("%s: relocation symbol index %d out of range: %w", o.Path, rawIndex, ErrUnsupportedRelocTarget)
		}
		sym := syms[rawIndex-1]
		name := sym.Name
		if name == "" && elf.ST_TYPE(sym.Info) == elf.STT_SECTION {
			// Assemblers commonly leave section symbols unnamed; fall
			// back to the section's own name (".data" for an internal,
			// same-section relocation), matching how the `object` crate
			// synthesizes a name for these in the original linker.
			if int(sym.Section) < len(o.elf.Sections) {
				name = o.elf.Sections[sym.Section].Name
			}
		}
		if name == "" {
			return "", fmt.Errorf("%s: relocation targets an unnamed symbol: %w", o.Path, ErrUnsupportedRelocTarget)
		}
		return name, nil
	}

	var relocs []Relocation
	for _, rsec := range o.elf.Sections {
		if rsec.Type != elf.SHT_REL && rsec.Type != elf.SHT_RELA {
			continue
		}
		if int(rsec.Info) != dataIndex {
			continue
		}

		r := rsec.Open()
		hasAddend := rsec.Type == elf.SHT_RELA
		entrySize := 8
		if hasAddend {
			entrySize = 12
		}
		count := int(rsec.Size) / entrySize

		for i := 0; i < count; i++ {
			var offset, info uint32
			if hasAddend {
				var entry struct {
					Offset uint32 `struc:"uint32,big"`
					Info   uint32 `struc:"uint32,big"`
					Addend int32  `struc:"int32,big"`
				}
				if err := struc.UnpackWithOptions(r, &entry, &struc.Options{Order: binary.BigEndian}); err != nil {
					return nil, nil, fmt.Errorf("%s: reading relocation %d: %w", o.Path, i, err)
				}
				offset, info = entry.Offset, entry.Info
			} else {
				var entry struct {
					Offset uint32 `struc:"uint32,big"`
					Info   uint32 `struc:"uint32,big"`
				}
				if err := struc.UnpackWithOptions(r, &entry, &struc.Options{Order: binary.BigEndian}); err != nil {
					return nil, nil, fmt.Errorf("%s: reading relocation %d: %w", o.Path, i, err)
				}
				offset, info = entry.Offset, entry.Info
			}

			symIndex := info >> 8
			relType := elf.R_MIPS(info & 0xff)

			if !is32BitReloc(relType) {
				return nil, nil, fmt.Errorf("%s: relocation type %v at offset %d: %w", o.Path, relType, offset, ErrUnsupportedRelocWidth)
			}

			name, err := symbolName(symIndex)
			if err != nil {
				return nil, nil, err
			}

			relocs = append(relocs, Relocation{Offset: offset, SymbolName: name})
		}
	}

	return data, relocs, nil
}

// is32BitReloc reports whether a MIPS relocation type operates on a
// full 32-bit field. Only these are supported; any other type fails
// with ErrUnsupportedRelocWidth.
func is32BitReloc(t elf.R_MIPS) bool {
	switch t {
	case elf.R_MIPS_32, elf.R_MIPS_REL32:
		return true
	default:
		return false
	}
}
