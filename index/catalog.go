// Package index keeps in-memory state about a completed scan: a catalog of
// the files that were scanned and a full-text index over their analysis
// results.
package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ScannedFile describes one file covered by a scan.
type ScannedFile struct {
	Path         string    // absolute path
	RelativePath string    // relative to project root, forward slashes
	Language     string
	SizeBytes    int64
	ModTime      time.Time
	LineCount    int
}

// Catalog is an in-memory record of scanned files supporting fast glob
// search. Lookups are O(1); glob search iterates paths in sorted order so
// results are deterministic.
type Catalog struct {
	mu          sync.RWMutex
	files       map[string]*ScannedFile // key: relative path
	sortedPaths []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{files: make(map[string]*ScannedFile)}
}

// Add inserts or replaces a file record.
func (c *Catalog) Add(file *ScannedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.files[file.RelativePath]; !exists {
		idx := sort.SearchStrings(c.sortedPaths, file.RelativePath)
		c.sortedPaths = append(c.sortedPaths, "")
		copy(c.sortedPaths[idx+1:], c.sortedPaths[idx:])
		c.sortedPaths[idx] = file.RelativePath
	}
	c.files[file.RelativePath] = file
}

// Remove deletes a file record by relative path.
func (c *Catalog) Remove(relativePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.files[relativePath]; !exists {
		return
	}
	delete(c.files, relativePath)

	idx := sort.SearchStrings(c.sortedPaths, relativePath)
	if idx < len(c.sortedPaths) && c.sortedPaths[idx] == relativePath {
		c.sortedPaths = append(c.sortedPaths[:idx], c.sortedPaths[idx+1:]...)
	}
}

// Get returns the record for a relative path, or nil.
func (c *Catalog) Get(relativePath string) *ScannedFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[relativePath]
}

// Count returns the number of cataloged files.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// TotalSizeBytes sums the sizes of all cataloged files.
func (c *Catalog) TotalSizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, file := range c.files {
		total += file.SizeBytes
	}
	return total
}

// LanguageCounts tallies files per detected language.
func (c *Catalog) LanguageCounts() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int)
	for _, file := range c.files {
		counts[file.Language]++
	}
	return counts
}

// SearchByGlob returns cataloged files whose relative path matches a
// doublestar glob, in sorted path order, up to maxResults.
func (c *Catalog) SearchByGlob(pattern string, maxResults int) ([]*ScannedFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []*ScannedFile
	for _, path := range c.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			results = append(results, c.files[path])
		}
	}
	return results, nil
}

// All returns every record in sorted path order.
func (c *Catalog) All() []*ScannedFile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*ScannedFile, 0, len(c.sortedPaths))
	for _, path := range c.sortedPaths {
		result = append(result, c.files[path])
	}
	return result
}

// Clear removes every record.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[string]*ScannedFile)
	c.sortedPaths = nil
}
