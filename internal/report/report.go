// Package report writes the digest report and resolves where it goes.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultBase = "output"
	defaultExt  = ".csv"

	// maxAttempts bounds the collision-avoidance suffix search.
	maxAttempts = 1000
)

var (
	// ErrOutputExists means an explicitly requested output path is taken.
	ErrOutputExists = errors.New("output file already exists")
	// ErrNamesExhausted means every candidate output filename is taken.
	ErrNamesExhausted = errors.New("all candidate output filenames are taken")
)

// Entry is one report row.
type Entry struct {
	Path string
	Hash string
}

// ResolvePath picks the report location. It runs before any hashing so
// that an unwritable destination fails the run cheaply. An explicit path
// (resolved against dir when relative) must not exist yet. The default is
// output.csv in dir; when taken, zero-padded suffixes output_000.csv
// through output_999.csv are tried in order.
func ResolvePath(explicit, dir string) (string, error) {
	if explicit != "" {
		p := explicit
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if _, err := os.Stat(p); err == nil {
			return "", fmt.Errorf("%w: %s", ErrOutputExists, p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking output path %s: %w", p, err)
		}
		if err := checkWritable(filepath.Dir(p)); err != nil {
			return "", err
		}
		return p, nil
	}

	if err := checkWritable(dir); err != nil {
		return "", err
	}
	p := filepath.Join(dir, defaultBase+defaultExt)
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	for i := 0; i < maxAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%03d%s", defaultBase, i, defaultExt))
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", ErrNamesExhausted
}

// checkWritable probes the directory with a throwaway temp file. Plain
// permission bits miss ACLs and read-only mounts.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".clsum-probe-*")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

// Write renders the report: a header row and one |-delimited row per
// hashed file.
func Write(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = '|'
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"FILE_PATH", "FILE_NAME", "FILE_EXTENSION", "HASH"})
	for _, e := range entries {
		name := filepath.Base(e.Path)
		rows = append(rows, []string{e.Path, name, filepath.Ext(name), e.Hash})
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return f.Close()
}
