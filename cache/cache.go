// Package cache provides a content-hash keyed result cache for incremental
// analysis. A cached result for a file is only served while the file's bytes
// are unchanged, so repeated scans skip work without ever serving stale data.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultAutosaveEvery is the number of stored entries between automatic
// persists. Tune via Options to trade durability against write throughput.
const DefaultAutosaveEvery = 50

// Entry is a cached analysis result for a single file.
type Entry[T any] struct {
	Path       string            `json:"path"`
	FileHash   string            `json:"fileHash"`
	AnalyzedAt string            `json:"analyzedAt"`
	Result     T                 `json:"result"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Stats summarizes the cache contents and its on-disk footprint.
type Stats struct {
	TotalEntries int
	SizeBytes    int64
	LastUpdated  string
	OldestEntry  string
	NewestEntry  string
}

// Options configures a Cache.
type Options struct {
	// AutosaveEvery persists the cache to disk after every Nth Store.
	// Defaults to DefaultAutosaveEvery.
	AutosaveEvery int
	Logger        *slog.Logger
}

// Cache maps file paths to analysis results of type T, keyed by content hash.
// One Cache instance owns one on-disk JSON file; running two processes
// against the same file is unsafe.
type Cache[T any] struct {
	mu            sync.RWMutex
	filePath      string
	entries       map[string]Entry[T]
	lastUpdated   string
	autosaveEvery int
	storeCount    int
	logger        *slog.Logger
}

// cacheFile is the persisted shape: {entries: {path -> entry}, metadata: {...}}.
type cacheFile[T any] struct {
	Entries  map[string]Entry[T] `json:"entries"`
	Metadata cacheMetadata       `json:"metadata"`
}

type cacheMetadata struct {
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// New creates a cache backed by <dir>/<name>.json, loading any existing
// contents. A corrupt or unreadable cache file is treated as empty.
func New[T any](dir string, name string, opts Options) (*Cache[T], error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	autosave := opts.AutosaveEvery
	if autosave <= 0 {
		autosave = DefaultAutosaveEvery
	}

	c := &Cache[T]{
		filePath:      filepath.Join(dir, name+".json"),
		entries:       make(map[string]Entry[T]),
		autosaveEvery: autosave,
		logger:        logger,
	}
	c.load()
	return c, nil
}

// load reads the cache file from disk. Missing or corrupt files leave the
// cache empty; speed is forfeited, correctness is not.
func (c *Cache[T]) load() {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("failed to read cache file, starting empty", "path", c.filePath, "error", err)
		}
		return
	}

	var file cacheFile[T]
	if err := json.Unmarshal(data, &file); err != nil {
		c.logger.Warn("failed to parse cache file, starting empty", "path", c.filePath, "error", err)
		return
	}

	if file.Entries != nil {
		c.entries = file.Entries
	}
	c.lastUpdated = file.Metadata.LastUpdated
}

// save writes the cache file. Errors are logged, never fatal for the run.
func (c *Cache[T]) save() error {
	c.lastUpdated = time.Now().UTC().Format(time.RFC3339)

	file := cacheFile[T]{
		Entries:  c.entries,
		Metadata: cacheMetadata{LastUpdated: c.lastUpdated},
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

func (c *Cache[T]) saveLogged() {
	if err := c.save(); err != nil {
		c.logger.Error("failed to save cache", "path", c.filePath, "error", err)
	}
}

// Lookup returns the cached entry for path if the file's current content
// hash matches the stored one. An unreadable file is a miss.
func (c *Cache[T]) Lookup(path string) (Entry[T], bool) {
	c.mu.RLock()
	entry, exists := c.entries[path]
	c.mu.RUnlock()

	if !exists {
		var zero Entry[T]
		return zero, false
	}

	currentHash, err := HashFile(path)
	if err != nil {
		c.logger.Debug("failed to hash file for lookup", "path", path, "error", err)
		var zero Entry[T]
		return zero, false
	}

	if entry.FileHash != currentHash {
		var zero Entry[T]
		return zero, false
	}
	return entry, true
}

// Store caches the analysis result for path, keyed by its current content
// hash. If the file cannot be read the call is a no-op. Every Nth store
// persists the cache to disk to bound the data-loss window.
func (c *Cache[T]) Store(path string, result T, metadata map[string]string) {
	fileHash, err := HashFile(path)
	if err != nil {
		c.logger.Debug("skipping cache for unreadable file", "path", path, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = Entry[T]{
		Path:       path,
		FileHash:   fileHash,
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
		Result:     result,
		Metadata:   metadata,
	}

	c.storeCount++
	if c.storeCount%c.autosaveEvery == 0 {
		c.saveLogged()
	}
}

// ChangedFiles splits paths into those needing re-analysis and those with a
// valid cached result.
func (c *Cache[T]) ChangedFiles(paths []string) (changed []string, unchanged []string) {
	for _, path := range paths {
		if _, ok := c.Lookup(path); ok {
			unchanged = append(unchanged, path)
		} else {
			changed = append(changed, path)
		}
	}
	return changed, unchanged
}

// Invalidate removes the entry for one path.
func (c *Cache[T]) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[path]; exists {
		delete(c.entries, path)
		c.logger.Debug("invalidated cache entry", "path", path)
	}
	c.saveLogged()
}

// InvalidateAll removes every entry.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry[T])
	c.logger.Info("invalidated all cache entries")
	c.saveLogged()
}

// InvalidateByPattern removes every entry whose path key matches the given
// doublestar glob pattern. Returns the number of entries removed.
func (c *Cache[T]) InvalidateByPattern(pattern string) (int, error) {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return 0, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for path := range c.entries {
		matched, err := doublestar.Match(pattern, filepath.ToSlash(path))
		if err != nil {
			continue
		}
		if matched {
			delete(c.entries, path)
			count++
		}
	}

	c.saveLogged()
	c.logger.Info("invalidated entries by pattern", "pattern", pattern, "count", count)
	return count, nil
}

// InvalidateByDirectory removes every entry whose path is under dir.
// Both separator styles are accepted in stored keys.
func (c *Cache[T]) InvalidateByDirectory(dir string) int {
	dir = strings.TrimRight(dir, "/\\")

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for path := range c.entries {
		if strings.HasPrefix(path, dir+"/") || strings.HasPrefix(path, dir+"\\") {
			delete(c.entries, path)
			count++
		}
	}

	c.saveLogged()
	c.logger.Info("invalidated entries by directory", "dir", dir, "count", count)
	return count
}

// InvalidateByAge removes every entry older than maxAgeDays. Entries with
// an unparseable timestamp are treated as already expired and removed.
func (c *Cache[T]) InvalidateByAge(maxAgeDays int) int {
	cutoff := time.Now().UTC().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for path, entry := range c.entries {
		analyzedAt, err := time.Parse(time.RFC3339, entry.AnalyzedAt)
		if err != nil || analyzedAt.Before(cutoff) {
			delete(c.entries, path)
			count++
		}
	}

	c.saveLogged()
	c.logger.Info("invalidated entries by age", "maxAgeDays", maxAgeDays, "count", count)
	return count
}

// Stats returns entry counts, on-disk size, and timestamp bounds.
func (c *Cache[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalEntries: len(c.entries),
		LastUpdated:  c.lastUpdated,
	}

	if info, err := os.Stat(c.filePath); err == nil {
		stats.SizeBytes = info.Size()
	}

	var oldest, newest time.Time
	for _, entry := range c.entries {
		analyzedAt, err := time.Parse(time.RFC3339, entry.AnalyzedAt)
		if err != nil {
			continue
		}
		if oldest.IsZero() || analyzedAt.Before(oldest) {
			oldest = analyzedAt
		}
		if newest.IsZero() || analyzedAt.After(newest) {
			newest = analyzedAt
		}
	}
	if !oldest.IsZero() {
		stats.OldestEntry = oldest.Format(time.RFC3339)
	}
	if !newest.IsZero() {
		stats.NewestEntry = newest.Format(time.RFC3339)
	}
	return stats
}

// Flush forces a save to disk.
func (c *Cache[T]) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save()
}

// Len returns the number of entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// FilePath returns the path of the backing cache file.
func (c *Cache[T]) FilePath() string {
	return c.filePath
}
