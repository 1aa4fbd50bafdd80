// Package chunk processes a source tree in fixed-size batches of files with
// durable per-chunk checkpoints. A run that is killed mid-way loses at most
// the in-flight chunk; every completed chunk is already on disk and a second
// run with Resume enabled skips it entirely.
package chunk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultChunkSize is the number of files per chunk when Config leaves it unset.
const DefaultChunkSize = 100

// DefaultFileExtensions are the file suffixes scanned when Config leaves
// FileExtensions empty.
var DefaultFileExtensions = []string{".py", ".ts", ".tsx", ".js", ".jsx", ".vue", ".go"}

// DefaultExcludeDirs are directory names pruned during discovery when Config
// leaves ExcludeDirs empty.
var DefaultExcludeDirs = []string{
	"node_modules", "__pycache__", ".git", "venv", ".venv",
	"dist", "build", ".next", "coverage", ".pytest_cache",
	"migrations", "alembic", "env", ".env",
}

// IgnoreChecker optionally extends discovery with richer exclusion rules
// (gitignore files, size caps). Satisfied by ignore.Matcher.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
	IsFileTooLarge(fileSize int64) bool
}

// Config controls one processing run. It is not mutated after NewProcessor.
type Config struct {
	// ChunkSize is the number of files per chunk. Must be >= 1.
	ChunkSize int
	// OutputDir holds chunk checkpoint files and the run manifest.
	OutputDir string
	// Resume reuses existing checkpoints instead of re-analyzing their files.
	Resume bool
	// FileExtensions limits discovery to files with these suffixes.
	FileExtensions []string
	// ExcludeDirs are directory names pruned during discovery.
	ExcludeDirs []string
	// Ignore adds gitignore-style exclusion rules to discovery. Optional.
	Ignore IgnoreChecker
	Logger *slog.Logger
}

// FileError records a per-file analysis failure. Failures are data, not
// control flow: one failing file never aborts its chunk or the run.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Result is the outcome of one chunk. Once persisted it is immutable.
type Result[T any] struct {
	ChunkID        int         `json:"chunkId"`
	TotalChunks    int         `json:"totalChunks"`
	FilesProcessed int         `json:"filesProcessed"`
	Results        []T         `json:"results"`
	Errors         []FileError `json:"errors"`
}

// Aggregate is the merged outcome of all persisted chunks.
type Aggregate[T any] struct {
	TotalFiles  int         `json:"totalFiles"`
	TotalChunks int         `json:"totalChunks"`
	Results     []T         `json:"results"`
	Errors      []FileError `json:"errors"`
}

// Summary reports run completion derived purely from checkpoint files.
type Summary struct {
	CompletedChunks int     `json:"completedChunks"`
	TotalChunks     int     `json:"totalChunks"`
	Percent         float64 `json:"percent"`
}

// Processor drives chunked, resumable analysis runs producing results of
// type T. One Processor owns its OutputDir for the duration of a run; two
// processes sharing an OutputDir is unsafe.
type Processor[T any] struct {
	cfg    Config
	logger *slog.Logger
}

// NewProcessor validates the configuration and creates the output directory.
// Invalid configuration is the one error class that fails fast here rather
// than being absorbed at runtime.
func NewProcessor[T any](cfg Config) (*Processor[T], error) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", cfg.ChunkSize)
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if len(cfg.FileExtensions) == 0 {
		cfg.FileExtensions = DefaultFileExtensions
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = DefaultExcludeDirs
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Processor[T]{cfg: cfg, logger: cfg.Logger}, nil
}

// Config returns the processor's configuration.
func (p *Processor[T]) Config() Config {
	return p.cfg
}
