package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Discover returns the regular files in dir matching pattern, sorted
// lexicographically for deterministic processing order.
func Discover(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// Settled reports whether info was last modified at least minAge before now.
// Recordings still being written keep a fresh modification time.
func Settled(info os.FileInfo, minAge time.Duration, now time.Time) bool {
	return !info.ModTime().After(now.Add(-minAge))
}
