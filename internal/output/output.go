// Package output assembles the linker's .filetable and .files buffers
// into a 32-bit, big-endian MIPS ELF relocatable object, attaching one
// data symbol per pass-1 symbol-index entry. The standard library's
// debug/elf only reads ELF; no library in the corpus writes it, so
// this hand-rolls the fixed Ehdr/Shdr/Sym layouts with encoding/binary
// — see DESIGN.md.
package output

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/n64fs/rld/internal/model"
)

// efMipsArchMips2 is the architecture-revision flag required in
// e_flags for this target.
const efMipsArchMips2 = 1 << 28

const (
	ehdrSize = 52
	shdrSize = 40
	symSize  = 16
)

// Assemble builds the complete ELF object bytes from the table and
// files buffers and the pass-1 symbol index.
func Assemble(table, files []byte, symbols model.SymbolIndex) ([]byte, error) {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic output regardless of map iteration order

	var shstrtab, strtab stringTable
	shstrtab.add("") // index 0 is always the empty name
	strtab.add("")

	filetableName := shstrtab.add(".filetable")
	filesName := shstrtab.add(".files")
	symtabName := shstrtab.add(".symtab")
	strtabName := shstrtab.add(".strtab")
	shstrtabName := shstrtab.add(".shstrtab")

	// .symtab: index 0 is the reserved null symbol; one STT_OBJECT
	// STB_GLOBAL entry per symbol-index entry follows, all attached to
	// .files (section index 2).
	const filesSectionIndex = 2
	symtab := make([]byte, symSize) // null symbol
	for _, name := range names {
		sym := symbols[name]
		nameOff := strtab.add(name)
		symtab = append(symtab, encodeSym(nameOff, sym.Addr, 4, elf.STB_GLOBAL, elf.STT_OBJECT, filesSectionIndex)...)
	}

	// Section layout: NULL, .filetable, .files, .symtab, .strtab, .shstrtab
	type section struct {
		name      uint32
		typ       elf.SectionType
		flags     uint32
		data      []byte
		align     uint32
		link      uint32
		info      uint32
		entsize   uint32
	}

	sections := []section{
		{}, // SHN_UNDEF
		{name: filetableName, typ: elf.SHT_PROGBITS, flags: uint32(elf.SHF_ALLOC), data: table, align: 4},
		{name: filesName, typ: elf.SHT_PROGBITS, flags: uint32(elf.SHF_ALLOC), data: files, align: 4},
		{name: symtabName, typ: elf.SHT_SYMTAB, data: symtab, align: 4, link: 4, info: 1, entsize: symSize},
		{name: strtabName, typ: elf.SHT_STRTAB, data: strtab.bytes(), align: 1},
		{name: shstrtabName, typ: elf.SHT_STRTAB, data: shstrtab.bytes(), align: 1},
	}

	shnum := len(sections)
	shoff := ehdrSize
	offsets := make([]uint32, shnum)
	cursor := uint32(shoff + shnum*shdrSize)
	for i, s := range sections {
		if len(s.data) == 0 {
			continue
		}
		if s.align > 1 {
			cursor = align(cursor, s.align)
		}
		offsets[i] = cursor
		cursor += uint32(len(s.data))
	}

	var out bytes.Buffer
	out.Write(encodeEhdr(uint32(shoff), uint16(shnum), 5 /* .shstrtab index */))

	for i, s := range sections {
		off := offsets[i]
		if i == 0 {
			off = 0
		}
		out.Write(encodeShdr(s.name, s.typ, s.flags, off, uint32(len(s.data)), s.link, s.info, s.align, s.entsize))
	}

	for i, s := range sections {
		if len(s.data) == 0 {
			continue
		}
		if out.Len() < int(offsets[i]) {
			out.Write(make([]byte, int(offsets[i])-out.Len()))
		}
		out.Write(s.data)
	}

	if uint32(out.Len()) != cursor {
		return nil, fmt.Errorf("internal error: wrote %d bytes, expected %d", out.Len(), cursor)
	}

	return out.Bytes(), nil
}

func align(x, to uint32) uint32 {
	if rem := x % to; rem != 0 {
		x += to - rem
	}
	return x
}

func encodeEhdr(shoff uint32, shnum, shstrndx uint16) []byte {
	b := make([]byte, ehdrSize)
	copy(b[0:4], elf.ELFMAG)
	b[4] = byte(elf.ELFCLASS32)
	b[5] = byte(elf.ELFDATA2MSB)
	b[6] = byte(elf.EV_CURRENT)
	// bytes 7..16 (ABI, padding) left zero

	be := binary.BigEndian
	be.PutUint16(b[16:18], uint16(elf.ET_REL))
	be.PutUint16(b[18:20], uint16(elf.EM_MIPS))
	be.PutUint32(b[20:24], uint32(elf.EV_CURRENT))
	// e_entry, e_phoff are zero: no program headers, no entry point
	be.PutUint32(b[32:36], shoff)
	be.PutUint32(b[36:40], efMipsArchMips2)
	be.PutUint16(b[40:42], ehdrSize)
	// e_phentsize, e_phnum are zero
	be.PutUint16(b[46:48], shdrSize)
	be.PutUint16(b[48:50], shnum)
	be.PutUint16(b[50:52], shstrndx)
	return b
}

func encodeShdr(name uint32, typ elf.SectionType, flags, offset, size, link, info, align, entsize uint32) []byte {
	b := make([]byte, shdrSize)
	be := binary.BigEndian
	be.PutUint32(b[0:4], name)
	be.PutUint32(b[4:8], uint32(typ))
	be.PutUint32(b[8:12], flags)
	// sh_addr is zero: this is a relocatable object, not yet located
	be.PutUint32(b[16:20], offset)
	be.PutUint32(b[20:24], size)
	be.PutUint32(b[24:28], link)
	be.PutUint32(b[28:32], info)
	be.PutUint32(b[32:36], align)
	be.PutUint32(b[36:40], entsize)
	return b
}

func encodeSym(name, value, size uint32, bind elf.SymBind, typ elf.SymType, shndx uint16) []byte {
	b := make([]byte, symSize)
	be := binary.BigEndian
	be.PutUint32(b[0:4], name)
	be.PutUint32(b[4:8], value)
	be.PutUint32(b[8:12], size)
	b[12] = byte(bind)<<4 | byte(typ)&0xf
	be.PutUint16(b[14:16], shndx)
	return b
}

// stringTable accumulates a NUL-terminated ELF string table.
type stringTable struct {
	buf []byte
}

func (t *stringTable) add(s string) uint32 {
	off := uint32(len(t.buf))
	t.buf = append(t.buf, s...)
	t.buf = append(t.buf, 0)
	return off
}

func (t *stringTable) bytes() []byte {
	return t.buf
}
