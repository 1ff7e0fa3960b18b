// Package cheader derives a symbolic C name for each script entry's
// path and emits a C header mapping each name to its file index.
package cheader

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/n64fs/rld/internal/model"
)

// NameFor derives the C-header symbolic name for a script entry's
// original (pre-resolution) path: "RLD_FID" plus, for each normal
// path component of the path's parent directory, "_" + the component
// upper-cased, then "_" + the upper-cased file stem.
func NameFor(path string) string {
	var b strings.Builder
	b.WriteString("RLD_FID")

	dir := filepath.Dir(path)
	if dir != "." && dir != "/" && dir != "" {
		for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
			switch part {
			case "", ".", "..":
				continue
			default:
				b.WriteByte('_')
				b.WriteString(strings.ToUpper(part))
			}
		}
	}

	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base != "" && base != "." && base != "/" {
		b.WriteByte('_')
		b.WriteString(strings.ToUpper(base))
	}

	return b.String()
}

// Write emits a C header with one #define per entry, guarded by an
// include guard.
func Write(w io.Writer, entries []model.CHeaderEntry) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "#ifndef RLD_FILE_IDS_H")
	fmt.Fprintln(bw, "#define RLD_FILE_IDS_H")
	fmt.Fprintln(bw)
	for _, e := range entries {
		fmt.Fprintf(bw, "#define %s %s\n", e.Name, strconv.Itoa(int(e.Index)))
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "#endif /* RLD_FILE_IDS_H */")

	return bw.Flush()
}
