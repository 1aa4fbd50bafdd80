package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/archscan/archscan-mcp/analyzer"
	"github.com/archscan/archscan-mcp/cache"
	"github.com/archscan/archscan-mcp/chunk"
	"github.com/archscan/archscan-mcp/ignore"
	"github.com/archscan/archscan-mcp/index"
	"github.com/archscan/archscan-mcp/progress"
	"github.com/archscan/archscan-mcp/watcher"
)

// scanner runs the chunked, cached analysis pipeline and keeps the catalog
// and result index in sync with its output.
type scanner struct {
	rootDir         string
	processorConfig chunk.Config
	cache           *cache.Cache[analyzer.Profile]
	profiler        *analyzer.Profiler
	catalog         *index.Catalog
	results         *index.Results
	quiet           bool
	jsonProgress    bool
	// progressWriter overrides the tracker's output stream. Nil means the
	// tracker default (stderr).
	progressWriter io.Writer
	logger         *slog.Logger
}

// scan runs one full pipeline pass. Unchanged files are served from the
// cache; force re-analyzes everything and discards existing checkpoints.
func (s *scanner) scan(force bool) (filesScanned int, cacheHits int, err error) {
	cfg := s.processorConfig
	if force {
		cfg.Resume = false
	}
	processor, err := chunk.NewProcessor[analyzer.Profile](cfg)
	if err != nil {
		return 0, 0, err
	}

	analyze := func(path string) (analyzer.Profile, error) {
		if !force {
			if entry, ok := s.cache.Lookup(path); ok {
				cacheHits++
				return entry.Result, nil
			}
		}
		profile, analyzeErr := s.profiler.Analyze(path)
		if analyzeErr != nil {
			return analyzer.Profile{}, analyzeErr
		}
		s.cache.Store(path, profile, nil)
		return profile, nil
	}

	seq, err := processor.Run(s.rootDir, analyze, nil)
	if err != nil {
		return 0, 0, err
	}

	var tracker *progress.Tracker
	for result := range seq {
		if tracker == nil {
			tracker = progress.New(result.TotalChunks, "Analyzing", progress.Options{
				Quiet:      s.quiet,
				JSONOutput: s.jsonProgress,
				Writer:     s.progressWriter,
			})
		}
		// Update advances by a delta; each yielded result is one chunk.
		tracker.Update(1, fmt.Sprintf("%d files", result.FilesProcessed))
	}
	if tracker != nil {
		tracker.Complete("")
	}

	if err := s.cache.Flush(); err != nil {
		s.logger.Warn("cache flush failed", "error", err)
	}

	aggregate, err := processor.Merge()
	if err != nil {
		return 0, 0, err
	}
	for _, fileErr := range aggregate.Errors {
		s.logger.Debug("file skipped during scan", "path", fileErr.File, "error", fileErr.Error)
	}

	s.rebuildIndexes(aggregate.Results)

	return aggregate.TotalFiles, cacheHits, nil
}

// progress reports checkpoint completion for the configured output dir.
func (s *scanner) progress() (chunk.Summary, error) {
	processor, err := chunk.NewProcessor[analyzer.Profile](s.processorConfig)
	if err != nil {
		return chunk.Summary{}, err
	}
	return processor.Progress(), nil
}

// rebuildIndexes replaces the catalog and result index contents with the
// merged results of a completed scan.
func (s *scanner) rebuildIndexes(profiles []analyzer.Profile) {
	s.catalog.Clear()
	if err := s.results.Clear(); err != nil {
		s.logger.Warn("failed to reset result index", "error", err)
	}
	for _, profile := range profiles {
		s.indexProfile(profile)
	}
}

// indexProfile records one analysis result in the catalog and result index.
func (s *scanner) indexProfile(profile analyzer.Profile) {
	file := &index.ScannedFile{
		Path:         profile.Path,
		RelativePath: profile.RelativePath,
		Language:     profile.Language,
		SizeBytes:    profile.SizeBytes,
		LineCount:    profile.LineCount,
	}
	if info, err := os.Stat(profile.Path); err == nil {
		file.ModTime = info.ModTime()
	}
	s.catalog.Add(file)

	if err := s.results.Index(profile.RelativePath, profile.Language, profile); err != nil {
		s.logger.Warn("failed to index result", "path", profile.RelativePath, "error", err)
	}
}

// handleChanges applies debounced watcher batches to the cache, catalog,
// and result index so they track the file system between scans. It returns
// when the channel closes.
func (s *scanner) handleChanges(changes <-chan []watcher.Change, matcher *ignore.Matcher) {
	for batch := range changes {
		s.logger.Debug("processing file changes", "count", len(batch))

		for _, change := range batch {
			base := filepath.Base(change.Path)
			if base == ".gitignore" || base == ".auditignore" {
				matcher.Reload()
				continue
			}

			rel, err := filepath.Rel(s.rootDir, change.Path)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch change.Kind {
			case watcher.KindRemove, watcher.KindRename:
				s.cache.Invalidate(change.Path)
				s.catalog.Remove(rel)
				if err := s.results.Remove(rel); err != nil {
					s.logger.Debug("failed to remove result", "path", rel, "error", err)
				}
				s.logger.Debug("dropped file", "path", rel, "kind", change.Kind)

			default:
				profile, err := s.profiler.Analyze(change.Path)
				if err != nil {
					s.logger.Debug("skipping changed file", "path", rel, "error", err)
					continue
				}
				s.cache.Store(change.Path, profile, nil)
				s.indexProfile(profile)
				s.logger.Debug("re-analyzed file", "path", rel, "kind", change.Kind)
			}
		}
	}
}
