// Package batch contains the concurrent batch engine: input
// enumeration, the bounded worker pool, result aggregation, and report
// writers.
package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WorkItem is one unit of per-file work. Index preserves the original
// input ordering and is contiguous 0..N-1 across a batch.
type WorkItem struct {
	Index int
	Path  string
}

// Dispatcher enumerates input paths into an ordered sequence of
// WorkItems.
type Dispatcher struct {
	pattern   string
	recursive bool
}

// NewDispatcher creates a Dispatcher matching directory entries against
// pattern (case-insensitive glob, default "*.pdf").
func NewDispatcher(pattern string, recursive bool) *Dispatcher {
	if pattern == "" {
		pattern = "*.pdf"
	}
	return &Dispatcher{pattern: strings.ToLower(pattern), recursive: recursive}
}

// Enumerate resolves each input (file or directory) into WorkItems.
// Files are sorted by full path so run-to-run ordering is independent
// of filesystem enumeration order. A nonexistent input is an error; a
// directory yielding zero matches is not.
func (d *Dispatcher) Enumerate(inputs []string) ([]WorkItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input paths supplied")
	}

	seen := make(map[string]bool)
	var paths []string

	for _, input := range inputs {
		info, err := os.Stat(input)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input path does not exist: %s", input)
		}
		if err != nil {
			return nil, fmt.Errorf("cannot access input path %s: %w", input, err)
		}

		if !info.IsDir() {
			if abs, err := filepath.Abs(input); err == nil {
				input = abs
			}
			if !seen[input] {
				seen[input] = true
				paths = append(paths, input)
			}
			continue
		}

		matches, err := d.collectDirectory(input)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)

	items := make([]WorkItem, len(paths))
	for i, p := range paths {
		items[i] = WorkItem{Index: i, Path: p}
	}
	return items, nil
}

// collectDirectory walks a directory and returns entries matching the
// configured pattern.
func (d *Dispatcher) collectDirectory(dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	var matches []string
	err = filepath.WalkDir(absDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Continue walking even if a specific entry errors
			return nil //nolint:nilerr
		}
		if entry.IsDir() {
			if path == absDir {
				return nil
			}
			// Skip hidden directories, and all subdirectories when
			// not recursing
			if !d.recursive || strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		matched, err := filepath.Match(d.pattern, strings.ToLower(entry.Name()))
		if err != nil {
			return fmt.Errorf("invalid file pattern %q: %w", d.pattern, err)
		}
		if matched {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, err)
	}
	return matches, nil
}
