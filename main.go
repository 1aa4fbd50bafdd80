package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archscan/archscan-mcp/analyzer"
	"github.com/archscan/archscan-mcp/cache"
	"github.com/archscan/archscan-mcp/chunk"
	"github.com/archscan/archscan-mcp/ignore"
	"github.com/archscan/archscan-mcp/index"
	"github.com/archscan/archscan-mcp/register"
	"github.com/archscan/archscan-mcp/server"
	"github.com/archscan/archscan-mcp/tools"
	"github.com/archscan/archscan-mcp/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// excludePatterns is a repeatable CLI flag for custom ignore patterns.
type excludePatterns []string

func (e *excludePatterns) String() string { return strings.Join(*e, ", ") }
func (e *excludePatterns) Set(value string) error {
	*e = append(*e, value)
	return nil
}

func main() {
	// The register subcommand writes client config and exits; it takes no
	// flags of its own.
	if len(os.Args) > 1 && os.Args[1] == "register" {
		configPath, err := register.Run("archscan", os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registered %q in %s\n", "archscan", configPath)
		return
	}

	// Parse CLI flags
	var rootDir string
	var cacheDir string
	var chunkSize int
	var resume bool
	var extensions string
	var excludes excludePatterns
	var maxFileSizeBytes int64
	var logLevel string
	var logFile string
	var quiet bool
	var jsonProgress bool

	var showStats bool
	var clearCache bool
	var invalidatePattern string
	var invalidateDir string
	var invalidateAge int
	var countOnly bool
	var cleanup bool

	flag.StringVar(&rootDir, "root", "", "Project root directory (default: current working directory)")
	flag.StringVar(&cacheDir, "cache-dir", "", "Cache and checkpoint directory (default: <root>/.audit_cache)")
	flag.IntVar(&chunkSize, "chunk-size", chunk.DefaultChunkSize, "Files per analysis chunk")
	flag.BoolVar(&resume, "resume", true, "Resume from existing chunk checkpoints")
	flag.StringVar(&extensions, "extensions", "", "Comma-separated file extensions to scan (default: common source extensions)")
	flag.Var(&excludes, "exclude", "Extra ignore pattern (repeatable)")
	flag.Int64Var(&maxFileSizeBytes, "max-file-size", ignore.DefaultMaxFileSizeBytes, "Maximum file size in bytes")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flag.BoolVar(&quiet, "quiet", false, "Suppress progress output")
	flag.BoolVar(&jsonProgress, "json-progress", false, "Emit progress as JSON lines instead of a bar")

	flag.BoolVar(&showStats, "stats", false, "Print cache statistics and exit")
	flag.BoolVar(&clearCache, "clear", false, "Clear the analysis cache and exit")
	flag.StringVar(&invalidatePattern, "invalidate-pattern", "", "Invalidate cache entries matching this glob and exit")
	flag.StringVar(&invalidateDir, "invalidate-dir", "", "Invalidate cache entries under this directory and exit")
	flag.IntVar(&invalidateAge, "invalidate-age", 0, "Invalidate cache entries older than this many days and exit")
	flag.BoolVar(&countOnly, "count-only", false, "Count eligible files and exit")
	flag.BoolVar(&cleanup, "cleanup", false, "Remove chunk checkpoints and exit")
	flag.Parse()

	// Resolve root directory
	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	rootDir, _ = filepath.Abs(rootDir)

	if cacheDir == "" {
		cacheDir = filepath.Join(rootDir, ".audit_cache")
	}

	// Logging goes to file or stderr, never to stdout - stdout carries MCP stdio
	logger := setupLogger(logLevel, logFile)

	analysisCache, err := cache.New[analyzer.Profile](cacheDir, "analysis_cache", cache.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		os.Exit(1)
	}

	ignoreMatcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          rootDir,
		CustomPatterns:   excludes,
		MaxFileSizeBytes: maxFileSizeBytes,
	})

	processorConfig := chunk.Config{
		ChunkSize:      chunkSize,
		OutputDir:      filepath.Join(cacheDir, "chunks"),
		Resume:         resume,
		FileExtensions: parseExtensions(extensions),
		Ignore:         ignoreMatcher,
		Logger:         logger,
	}

	if handled := runMaintenance(maintenanceArgs{
		rootDir:           rootDir,
		cache:             analysisCache,
		processorConfig:   processorConfig,
		out:               os.Stdout,
		showStats:         showStats,
		clearCache:        clearCache,
		invalidatePattern: invalidatePattern,
		invalidateDir:     invalidateDir,
		invalidateAge:     invalidateAge,
		countOnly:         countOnly,
		cleanup:           cleanup,
	}); handled {
		return
	}

	logger.Info("starting archscan-mcp",
		"root", rootDir,
		"cacheDir", cacheDir,
		"chunkSize", chunkSize,
		"resume", resume,
		"maxFileSize", maxFileSizeBytes,
	)

	startTime := time.Now()

	catalog := index.NewCatalog()
	results, err := index.NewResults(logger)
	if err != nil {
		logger.Error("failed to create result index", "error", err)
		os.Exit(1)
	}
	defer results.Close()

	profiler := analyzer.NewProfiler(rootDir)

	sc := &scanner{
		rootDir:         rootDir,
		processorConfig: processorConfig,
		cache:           analysisCache,
		profiler:        profiler,
		catalog:         catalog,
		results:         results,
		quiet:           quiet,
		jsonProgress:    jsonProgress,
		logger:          logger,
	}

	// Initial scan
	filesScanned, cacheHits, err := sc.scan(false)
	if err != nil {
		logger.Error("initial scan failed", "error", err)
		os.Exit(1)
	}
	logger.Info("initial scan complete",
		"files", filesScanned,
		"cacheHits", cacheHits,
		"duration", time.Since(startTime),
	)

	// Start file watcher
	fileWatcher, err := watcher.New(rootDir, ignoreMatcher, watcher.DefaultDebounceInterval, logger)
	if err != nil {
		logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
	} else {
		go fileWatcher.Start()
		go sc.handleChanges(fileWatcher.Changes(), ignoreMatcher)
		defer fileWatcher.Close()
	}

	// Create tool handlers
	statusHandler := &tools.StatusHandler{
		Catalog:      catalog,
		Results:      results,
		Cache:        analysisCache,
		ScanProgress: sc.progress,
		StartTime:    startTime,
		RootDir:      rootDir,
		Logger:       logger,
	}
	filesHandler := &tools.FilesHandler{Catalog: catalog, Logger: logger}
	resultsHandler := &tools.ResultsHandler{Results: results, Logger: logger}
	resultHandler := &tools.ResultHandler{Results: results, Logger: logger}
	scanHandler := &tools.ScanHandler{
		Logger: logger,
		DoScan: func(force bool) (int, int, string, error) {
			start := time.Now()
			ignoreMatcher.Reload()
			scanned, hits, err := sc.scan(force)
			if err != nil {
				return 0, 0, "", err
			}
			return scanned, hits, time.Since(start).Round(time.Millisecond).String(), nil
		},
	}
	invalidateHandler := &tools.InvalidateHandler{Cache: analysisCache, Logger: logger}

	// Setup and run MCP server on stdio
	mcpServer := server.Setup(statusHandler, filesHandler, resultsHandler, resultHandler, scanHandler, invalidateHandler)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}

// parseExtensions turns a comma-separated flag value into a clean extension
// list, defaulting each entry's leading dot.
func parseExtensions(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil // NewProcessor applies the defaults
	}
	var exts []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		exts = append(exts, part)
	}
	return exts
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
