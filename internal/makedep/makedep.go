// Package makedep writes a Makefile dependency stanza for the linker's
// output object: the object's rule naming every input as a
// prerequisite, followed by a phony, empty-recipe rule per input so
// that a missing dependency doesn't break the build.
package makedep

import (
	"fmt"
	"io"
)

// Write emits `obj: \` + one continuation line per dep, then a blank
// rule per dep.
func Write(w io.Writer, obj string, deps []string) error {
	if _, err := fmt.Fprintf(w, "%s: ", obj); err != nil {
		return err
	}
	for _, dep := range deps {
		if _, err := fmt.Fprintf(w, "\\\n  %s ", dep); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "\n\n"); err != nil {
		return err
	}
	for _, dep := range deps {
		if _, err := fmt.Fprintf(w, "%s:\n\n", dep); err != nil {
			return err
		}
	}
	return nil
}
