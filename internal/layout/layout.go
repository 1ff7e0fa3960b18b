// Package layout implements pass 2's layout engine: it appends each
// input's (possibly compressed, possibly relocated) bytes to the
// growing .files payload, keeps everything 4-byte aligned, and builds
// the 12-byte-per-entry .filetable descriptor with its terminator.
package layout

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/n64fs/rld/internal/compress"
	"github.com/n64fs/rld/internal/model"
	"github.com/n64fs/rld/internal/objfile"
	"github.com/n64fs/rld/internal/reloc"
	"github.com/n64fs/rld/internal/wordscale"
)

// Input is one fully-resolved script entry, ready for pass 2.
type Input struct {
	// ResolvedPath is the on-disk location of the input file.
	ResolvedPath string
	// IsObject reports whether this entry is a relocatable object (as
	// opposed to a raw binary blob).
	IsObject bool
	// Compressed requests that the payload be compressed.
	Compressed bool
	// CompSettings configures the compressor; nil selects the default.
	CompSettings *compress.Settings

	// Imports are the declared external file indices for a raw input.
	Imports []uint16
	// InRelocHint/ExRelocHint are the declared relocation-site offsets
	// for a raw input.
	InRelocHint *uint32
	ExRelocHint *uint32
}

const alignment = 4

// Result is the completed .filetable and .files buffers.
type Result struct {
	Table []byte
	Files []byte
}

// Run lays out every input in order and returns the completed table
// and payload buffers.
func Run(inputs []Input, symbols model.SymbolIndex) (Result, error) {
	payload := make([]byte, 0, 16<<20)
	table := make([]byte, 0, (len(inputs)+1)*12)

	for i, in := range inputs {
		data, externs, inReloc, exReloc, err := extract(in, symbols)
		if err != nil {
			return Result{}, fmt.Errorf("file %d (%s): %w", i, in.ResolvedPath, err)
		}

		data = pad(data)
		size, err := u32len(data)
		if err != nil {
			return Result{}, fmt.Errorf("file %d (%s): uncompressed size: %w", i, in.ResolvedPath, err)
		}

		romSize := size
		compressed := in.Compressed
		if in.Compressed {
			c, err := compress.Compress(data, in.CompSettings)
			if err != nil {
				return Result{}, fmt.Errorf("file %d (%s): compressing: %w", i, in.ResolvedPath, err)
			}
			c = pad(c)
			romSize, err = u32len(c)
			if err != nil {
				return Result{}, fmt.Errorf("file %d (%s): compressed size: %w", i, in.ResolvedPath, err)
			}
			data = c
		}

		offset, err := u32len(payload)
		if err != nil {
			return Result{}, fmt.Errorf("file %d (%s): payload offset: %w", i, in.ResolvedPath, err)
		}

		payload = append(payload, data...)
		payload = pad(payload)

		if len(externs) > 0 {
			for _, e := range externs {
				payload = binary.BigEndian.AppendUint16(payload, e)
			}
			payload = pad(payload)
		}

		info := model.FileInfo{
			Offset:     offset,
			Size:       size,
			RomSize:    romSize,
			Compressed: compressed,
			InReloc:    inReloc,
			ExReloc:    exReloc,
		}

		entry, err := encodeEntry(info)
		if err != nil {
			return Result{}, fmt.Errorf("file %d (%s): encoding table entry: %w", i, in.ResolvedPath, err)
		}
		table = append(table, entry...)
	}

	total, err := u32len(payload)
	if err != nil {
		return Result{}, fmt.Errorf("total payload length: %w", err)
	}
	table = binary.BigEndian.AppendUint32(table, total)
	table = append(table, make([]byte, 8)...)

	return Result{Table: table, Files: payload}, nil
}

// extract obtains an input's uncompressed, rewritten bytes, its
// extern-file-index list, and its internal/external relocation site
// offsets.
func extract(in Input, symbols model.SymbolIndex) (data []byte, externs []uint16, inReloc, exReloc *uint32, err error) {
	if in.IsObject {
		obj, err := objfile.Open(in.ResolvedPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		raw, relocs, err := obj.DataRelocations()
		if err != nil {
			return nil, nil, nil, nil, err
		}
		result, err := reloc.Rewrite(raw, relocs, symbols)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return result.Data, result.Externs, result.InReloc, result.ExReloc, nil
	}

	raw, err := os.ReadFile(in.ResolvedPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("reading %s: %w", in.ResolvedPath, err)
	}
	return raw, in.Imports, in.InRelocHint, in.ExRelocHint, nil
}

// pad returns buf padded with zero bytes to a 4-byte multiple. Padding
// an already-aligned buffer returns it unchanged.
func pad(buf []byte) []byte {
	for len(buf)%alignment != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func u32len(buf []byte) (uint32, error) {
	if uint64(len(buf)) > 0xFFFFFFFF {
		return 0, fmt.Errorf("length %d overflows u32", len(buf))
	}
	return uint32(len(buf)), nil
}

// encodeEntry packs a FileInfo into its 12-byte .filetable form:
// big-endian u32 offset-with-compressed-flag, then four halfwords
// (inreloc, rom_size, exreloc, size).
func encodeEntry(info model.FileInfo) ([]byte, error) {
	offset := info.Offset
	if info.Compressed {
		offset |= 0x80000000
	}

	size, err := wordscale.Shorten(info.Size)
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	romSize, err := wordscale.Shorten(info.RomSize)
	if err != nil {
		return nil, fmt.Errorf("rom_size: %w", err)
	}
	inReloc, err := wordscale.OptShorten(info.InReloc)
	if err != nil {
		return nil, fmt.Errorf("inreloc: %w", err)
	}
	exReloc, err := wordscale.OptShorten(info.ExReloc)
	if err != nil {
		return nil, fmt.Errorf("exreloc: %w", err)
	}

	entry := make([]byte, 0, 12)
	entry = binary.BigEndian.AppendUint32(entry, offset)
	entry = binary.BigEndian.AppendUint16(entry, inReloc)
	entry = binary.BigEndian.AppendUint16(entry, romSize)
	entry = binary.BigEndian.AppendUint16(entry, exReloc)
	entry = binary.BigEndian.AppendUint16(entry, size)
	return entry, nil
}
