// Package pathresolve locates script-named input files on disk,
// consulting an optional ordered list of search directories.
package pathresolve

import (
	"fmt"
	"os"
	"path/filepath"
)

// NotFoundError names the path that could not be located and the
// search directories that were tried.
type NotFoundError struct {
	Path       string
	SearchDirs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("couldn't locate %q in current working directory or search dirs %v", e.Path, e.SearchDirs)
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Resolve returns the on-disk path for original, trying original as-is
// first, then joining it with each search directory in order. The
// first existing regular file wins.
func Resolve(original string, searchDirs []string) (string, error) {
	if isRegularFile(original) {
		return original, nil
	}

	for _, dir := range searchDirs {
		candidate := filepath.Join(dir, original)
		if isRegularFile(candidate) {
			return candidate, nil
		}
	}

	return "", &NotFoundError{Path: original, SearchDirs: searchDirs}
}
