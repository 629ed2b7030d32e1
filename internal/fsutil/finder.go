// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FindFilesByExtensions searches the given path for all files whose name ends
// with one of the specified extensions. If the path is a regular file it is
// returned as-is; if it is a directory, it is walked recursively. The result
// is sorted so that discovery order never depends on filesystem iteration.
func FindFilesByExtensions(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension must be provided")
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		for _, ext := range extensions {
			if strings.HasSuffix(rootPath, ext) {
				return []string{rootPath}, nil
			}
		}
		return nil, fmt.Errorf("unsupported file %s (expected one of %s)", rootPath, strings.Join(extensions, ", "))
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}
