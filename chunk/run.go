package chunk

import (
	"fmt"
	"iter"
)

// Run discovers eligible files under root, partitions them into chunks, and
// returns a lazy sequence of per-chunk results. For 0-based chunk index i the
// file range is [i*ChunkSize, (i+1)*ChunkSize); chunk IDs are 1-based.
//
// With Resume enabled, a chunk whose checkpoint already exists is yielded
// from disk and analyze is not invoked for any of its files. Otherwise each
// file is analyzed in order; a returned error is recorded per file and
// processing continues. Every freshly processed chunk is persisted before it
// is yielded, and onProgress (optional) fires after each chunk.
func (p *Processor[T]) Run(
	root string,
	analyze func(path string) (T, error),
	onProgress func(chunkID int, totalChunks int, filesProcessed int),
) (iter.Seq[Result[T]], error) {
	return p.RunFiltered(root, analyze, onProgress, nil)
}

// RunFiltered is Run with an extra discovery predicate.
func (p *Processor[T]) RunFiltered(
	root string,
	analyze func(path string) (T, error),
	onProgress func(chunkID int, totalChunks int, filesProcessed int),
	filter func(path string) bool,
) (iter.Seq[Result[T]], error) {
	if analyze == nil {
		return nil, fmt.Errorf("analyze callback is required")
	}

	files, err := p.Discover(root, filter)
	if err != nil {
		return nil, err
	}

	totalChunks := (len(files) + p.cfg.ChunkSize - 1) / p.cfg.ChunkSize
	p.logger.Info("discovered files to process",
		"root", root,
		"files", len(files),
		"chunks", totalChunks,
		"chunkSize", p.cfg.ChunkSize,
	)

	if err := p.prepareCheckpoints(files); err != nil {
		return nil, err
	}

	return func(yield func(Result[T]) bool) {
		for i := 0; i < totalChunks; i++ {
			chunkID := i + 1

			if p.cfg.Resume {
				if cached, ok := p.loadCheckpoint(chunkID); ok {
					p.logger.Debug("resumed chunk from checkpoint", "chunk", chunkID, "totalChunks", totalChunks)
					if !yield(cached) {
						return
					}
					continue
				}
			}

			start := i * p.cfg.ChunkSize
			end := min(start+p.cfg.ChunkSize, len(files))

			result := Result[T]{
				ChunkID:     chunkID,
				TotalChunks: totalChunks,
			}
			for _, path := range files[start:end] {
				out, err := analyze(path)
				if err != nil {
					result.Errors = append(result.Errors, FileError{File: path, Error: err.Error()})
					p.logger.Debug("analysis failed", "path", path, "error", err)
					continue
				}
				result.Results = append(result.Results, out)
			}
			result.FilesProcessed = len(result.Results)

			p.saveCheckpoint(result)

			if onProgress != nil {
				onProgress(chunkID, totalChunks, result.FilesProcessed)
			}
			if !yield(result) {
				return
			}
		}
	}, nil
}
