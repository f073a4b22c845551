// Package discovery lists candidate card images in the watch directory.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// List returns the paths of regular files in dir whose extension matches ext
// (case-insensitive). It does not recurse into subdirectories. An empty or
// non-matching directory yields an empty slice and a nil error: zero work is
// a normal outcome, not a failure.
func List(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
