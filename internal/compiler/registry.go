package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// SourceExt is the extension of source files.
const SourceExt = ".case"

// Discover expands paths into the list of source files to compile.
// Directories are walked for files ending in SourceExt; files named
// directly are taken whatever their extension. The result is absolute,
// deduplicated and sorted.
func Discover(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("source not found: %s", path)
		}
		if !info.IsDir() {
			if err := add(path); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != path && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(p) == SourceExt {
				return add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
