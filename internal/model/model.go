// Package model holds the data types shared across the link pipeline:
// the symbol index built in pass 1, and the per-file descriptor
// produced by the layout engine in pass 2.
package model

// Symbol is a single entry in the pass-1 symbol index: a global name
// mapped to a target virtual address and the index of the input entry
// that defines it.
type Symbol struct {
	Addr uint32
	File uint16
}

// SymbolIndex is the global name -> Symbol mapping built in pass 1. It
// is read-only once pass 2 begins.
type SymbolIndex map[string]Symbol

// CHeaderEntry is one (symbolic name, file index) pair forwarded
// unchanged to the C header emitter.
type CHeaderEntry struct {
	Name  string
	Index uint16
}

// FileInfo is the post-layout descriptor for a single input, used to
// build the .filetable entry.
type FileInfo struct {
	Offset     uint32
	Size       uint32
	RomSize    uint32
	Compressed bool
	InReloc    *uint32
	ExReloc    *uint32
}
