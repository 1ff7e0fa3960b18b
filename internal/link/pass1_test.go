package link

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/n64fs/rld/internal/config"
)

func writeRaw(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeMinimalObject builds a tiny valid ELF32 big-endian MIPS object
// with a single global data symbol, for pass 1 tests that exercise
// symbol collection from .o inputs.
func writeMinimalObject(t *testing.T, dir, name, symbolName string, addr uint32) string {
	t.Helper()

	be32 := func(v uint32) []byte { b := make([]byte, 4); binary.BigEndian.PutUint32(b, v); return b }
	be16 := func(v uint16) []byte { b := make([]byte, 2); binary.BigEndian.PutUint16(b, v); return b }

	var str []byte
	str = append(str, 0)
	nameOff := uint32(len(str))
	str = append(str, symbolName...)
	str = append(str, 0)

	var shstr []byte
	shstr = append(shstr, 0)
	dataOff := uint32(len(shstr))
	shstr = append(shstr, ".data"...)
	shstr = append(shstr, 0)
	symtabOff := uint32(len(shstr))
	shstr = append(shstr, ".symtab"...)
	shstr = append(shstr, 0)
	strtabOff := uint32(len(shstr))
	shstr = append(shstr, ".strtab"...)
	shstr = append(shstr, 0)
	shstrtabOff := uint32(len(shstr))
	shstr = append(shstr, ".shstrtab"...)
	shstr = append(shstr, 0)

	sym := make([]byte, 16) // null
	entry := make([]byte, 16)
	copy(entry[0:4], be32(nameOff))
	copy(entry[4:8], be32(addr))
	entry[12] = 1<<4 | 0 // STB_GLOBAL, STT_NOTYPE
	copy(entry[14:16], be16(1))
	sym = append(sym, entry...)

	type sec struct {
		name, typ, link, info, align, entsize uint32
		data                                  []byte
	}
	sections := []sec{
		{},
		{name: dataOff, typ: 1, align: 4, data: []byte{0, 0, 0, 0}},
		{name: symtabOff, typ: 2, link: 3, info: 1, align: 4, entsize: 16, data: sym},
		{name: strtabOff, typ: 3, align: 1, data: str},
		{name: shstrtabOff, typ: 3, align: 1, data: shstr},
	}

	const ehdrSize, shdrSize = 52, 40
	shoff := ehdrSize
	cursor := uint32(shoff + len(sections)*shdrSize)
	offsets := make([]uint32, len(sections))
	for i, s := range sections {
		if len(s.data) == 0 {
			continue
		}
		if s.align > 1 && cursor%s.align != 0 {
			cursor += s.align - cursor%s.align
		}
		offsets[i] = cursor
		cursor += uint32(len(s.data))
	}

	out := make([]byte, 0, cursor)
	ehdr := make([]byte, ehdrSize)
	copy(ehdr[0:4], []byte{0x7f, 'E', 'L', 'F'})
	ehdr[4], ehdr[5], ehdr[6] = 1, 2, 1
	copy(ehdr[16:18], be16(1))
	copy(ehdr[18:20], be16(8))
	copy(ehdr[20:24], be32(1))
	copy(ehdr[32:36], be32(uint32(shoff)))
	copy(ehdr[40:42], be16(ehdrSize))
	copy(ehdr[46:48], be16(shdrSize))
	copy(ehdr[48:50], be16(uint16(len(sections))))
	copy(ehdr[50:52], be16(4))
	out = append(out, ehdr...)

	for i, s := range sections {
		shdr := make([]byte, shdrSize)
		copy(shdr[0:4], be32(s.name))
		copy(shdr[4:8], be32(s.typ))
		copy(shdr[16:20], be32(offsets[i]))
		copy(shdr[20:24], be32(uint32(len(s.data))))
		copy(shdr[24:28], be32(s.link))
		copy(shdr[28:32], be32(s.info))
		copy(shdr[32:36], be32(s.align))
		copy(shdr[36:40], be32(s.entsize))
		out = append(out, shdr...)
	}
	for i, s := range sections {
		if len(s.data) == 0 {
			continue
		}
		for uint32(len(out)) < offsets[i] {
			out = append(out, 0)
		}
		out = append(out, s.data...)
	}

	return writeRaw(t, dir, name, out)
}

func TestRunPass1_RawExportsAndCHeaderOrder(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "a.bin", []byte{1, 2, 3, 4})
	writeRaw(t, dir, "sub_b.bin", []byte{5, 6})

	script := []config.ScriptEntry{
		{File: "a.bin", Exports: config.Exports{{Name: "ENTRY_A", Addr: 0x100}}},
		{File: "sub_b.bin", Exports: config.Exports{{Name: "ENTRY_B", Addr: 0x200}}},
	}

	result, err := RunPass1(script, []string{dir}, nil)
	if err != nil {
		t.Fatalf("RunPass1: %v", err)
	}

	if len(result.CHeader) != 2 || result.CHeader[0].Index != 0 || result.CHeader[1].Index != 1 {
		t.Errorf("CHeader = %+v", result.CHeader)
	}
	if result.CHeader[0].Name != "RLD_FID_A" {
		t.Errorf("CHeader[0].Name = %q, want RLD_FID_A", result.CHeader[0].Name)
	}

	a, ok := result.Symbols["ENTRY_A"]
	if !ok || a.Addr != 0x100 || a.File != 0 {
		t.Errorf("ENTRY_A = %+v, ok=%v", a, ok)
	}
	b, ok := result.Symbols["ENTRY_B"]
	if !ok || b.Addr != 0x200 || b.File != 1 {
		t.Errorf("ENTRY_B = %+v, ok=%v", b, ok)
	}
}

func TestRunPass1_DuplicateSymbolAcrossObjectAndRaw(t *testing.T) {
	dir := t.TempDir()
	writeMinimalObject(t, dir, "a.o", "SHARED", 0x10)
	writeRaw(t, dir, "b.bin", []byte{1})

	script := []config.ScriptEntry{
		{File: "a.o"},
		{File: "b.bin", Exports: config.Exports{{Name: "SHARED", Addr: 0x20}}},
	}

	_, err := RunPass1(script, []string{dir}, nil)
	if err == nil {
		t.Fatal("expected a duplicate-symbol error")
	}
}

func TestRunPass1_UnresolvedFile(t *testing.T) {
	script := []config.ScriptEntry{{File: "missing.bin"}}
	if _, err := RunPass1(script, nil, nil); err == nil {
		t.Fatal("expected an error for a file that cannot be located")
	}
}
