// Package fsutil contains small file system helpers.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir ensures a directory exists.
func EnsureDir(p string) error {
	err := os.MkdirAll(p, 0775)
	if err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

// EnsurePath ensures a directory exists, given a file path. This calls path.Dir(p)
func EnsurePath(p string) error {
	return EnsureDir(filepath.Dir(p))
}

// Exists returns true if the given path exists.
func Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Subdirs returns the names of the directories directly inside root.
func Subdirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}
