// Package scan enumerates the regular files a hashing run will process.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Files returns the currently readable regular files under dir. In flat
// mode only the directory's immediate children are considered; recursive
// mode walks all depths. Unreadable files and subtrees are skipped, not
// fatal — only a missing, non-directory or unreadable target is an error.
func Files(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("target directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", dir, err)
		}
		var files []string
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			p := filepath.Join(dir, e.Name())
			if readable(p) {
				files = append(files, p)
			}
		}
		return files, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil // unreadable subtree: skip it
		}
		if d.Type().IsRegular() && readable(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, nil
}

// readable reports whether the file can actually be opened for reading.
// Opening probes ACLs and mount options that permission bits miss.
func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
