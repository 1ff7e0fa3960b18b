// Package reloc rewrites a copy of an object's .data section against
// the pass-1 symbol index, classifying each relocation as internal
// (same-section displacement) or external (another file's symbol),
// and packs each site into a singly-linked chain of
// (next-offset, value) halfwords for the load-time fixup runtime.
package reloc

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/n64fs/rld/internal/model"
	"github.com/n64fs/rld/internal/objfile"
	"github.com/n64fs/rld/internal/wordscale"
)

// ErrUnresolvedSymbol is returned when an external relocation names a
// symbol absent from the pass-1 symbol index.
var ErrUnresolvedSymbol = errors.New("unresolved external symbol")

// internalSectionName is the symbol name assemblers use, by
// convention, for a same-section relocation against .data.
const internalSectionName = ".data"

// site is one relocation's byte offset and the value to encode there
// (a raw displacement for internal sites, a resolved address for
// external ones).
type site struct {
	offset uint32
	value  uint32
}

// Result is the rewritten .data section plus the extern-file-index
// list and the first internal/external relocation offsets.
type Result struct {
	Data    []byte
	Externs []uint16
	InReloc *uint32
	ExReloc *uint32
}

// Rewrite copies data, classifies and rewrites each relocation against
// symbols, and returns the result. relocs must be in the object's
// natural (on-disk) order.
func Rewrite(data []byte, relocs []objfile.Relocation, symbols model.SymbolIndex) (Result, error) {
	buf := make([]byte, len(data))
	copy(buf, data)

	var internal, external []site
	var externs []uint16

	for _, r := range relocs {
		if r.SymbolName == internalSectionName {
			if int(r.Offset)+4 > len(buf) {
				return Result{}, fmt.Errorf("internal relocation at %d outside of %d-byte .data", r.Offset, len(buf))
			}
			displacement := binary.BigEndian.Uint32(buf[r.Offset : r.Offset+4])
			internal = append(internal, site{offset: r.Offset, value: displacement})
			continue
		}

		sym, ok := symbols[r.SymbolName]
		if !ok {
			return Result{}, fmt.Errorf("relocation references symbol %q: %w", r.SymbolName, ErrUnresolvedSymbol)
		}
		external = append(external, site{offset: r.Offset, value: sym.Addr})
		externs = append(externs, sym.File)
	}

	inReloc, err := applyChain(buf, internal)
	if err != nil {
		return Result{}, fmt.Errorf("internal relocations: %w", err)
	}
	exReloc, err := applyChain(buf, external)
	if err != nil {
		return Result{}, fmt.Errorf("external relocations: %w", err)
	}

	return Result{Data: buf, Externs: externs, InReloc: inReloc, ExReloc: exReloc}, nil
}

// applyChain rewrites each site's 4 bytes as a packed
// (next-offset-in-halfwords << 16) | value-in-halfwords word, linking
// each entry to the next in list order. Returns the first site's
// offset, or nil if the list is empty.
func applyChain(buf []byte, sites []site) (*uint32, error) {
	if len(sites) == 0 {
		return nil, nil
	}

	for i, s := range sites {
		var next uint16 = wordscale.Absent
		if i+1 < len(sites) {
			var err error
			next, err = wordscale.Shorten(sites[i+1].offset)
			if err != nil {
				return nil, fmt.Errorf("chaining to next relocation: %w", err)
			}
		}

		value, err := wordscale.Shorten(s.value)
		if err != nil {
			return nil, fmt.Errorf("relocation value at offset %d: %w", s.offset, err)
		}

		packed := uint32(next)<<16 | uint32(value)
		binary.BigEndian.PutUint32(buf[s.offset:s.offset+4], packed)
	}

	first := sites[0].offset
	return &first, nil
}
