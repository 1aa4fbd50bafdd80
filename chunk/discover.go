package chunk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks root and returns the eligible files in lexicographic order.
// The sorted order is what makes chunk boundaries reproducible across runs:
// partitioning depends only on the file set, never on enumeration order.
// The optional filter keeps a file only when it returns true.
func (p *Processor[T]) Discover(root string, filter func(string) bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	excluded := make(map[string]struct{}, len(p.cfg.ExcludeDirs))
	for _, dir := range p.cfg.ExcludeDirs {
		excluded[dir] = struct{}{}
	}
	extensions := make(map[string]struct{}, len(p.cfg.FileExtensions))
	for _, ext := range p.cfg.FileExtensions {
		extensions[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip entries that can't be read
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := excluded[d.Name()]; skip {
				return filepath.SkipDir
			}
			if p.cfg.Ignore != nil && p.cfg.Ignore.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if p.cfg.Ignore != nil {
			if p.cfg.Ignore.ShouldIgnore(path) {
				return nil
			}
			if fileInfo, err := d.Info(); err == nil && p.cfg.Ignore.IsFileTooLarge(fileInfo.Size()) {
				return nil
			}
		}
		if filter != nil && !filter(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	sort.Strings(files)
	return files, nil
}

// CountFiles returns the number of files a run over root would process,
// without analyzing anything. Useful for sizing progress trackers.
func (p *Processor[T]) CountFiles(root string) (int, error) {
	files, err := p.Discover(root, nil)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}
