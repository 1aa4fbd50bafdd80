package main

import (
	"fmt"
	"io"
	"os"

	"github.com/archscan/archscan-mcp/analyzer"
	"github.com/archscan/archscan-mcp/cache"
	"github.com/archscan/archscan-mcp/chunk"
	"github.com/dustin/go-humanize"
)

// maintenanceArgs collects the one-shot CLI modes. At most one runs; the
// process exits without starting the server when any is set.
type maintenanceArgs struct {
	rootDir         string
	cache           *cache.Cache[analyzer.Profile]
	processorConfig chunk.Config
	out             io.Writer

	showStats         bool
	clearCache        bool
	invalidatePattern string
	invalidateDir     string
	invalidateAge     int
	countOnly         bool
	cleanup           bool
}

// runMaintenance executes a one-shot maintenance mode if one was requested.
// It returns true when the request was handled and the process should exit.
func runMaintenance(args maintenanceArgs) bool {
	switch {
	case args.showStats:
		printCacheStats(args.out, args.cache)

	case args.clearCache:
		removed := args.cache.Len()
		args.cache.InvalidateAll()
		flushOrDie(args.cache)
		fmt.Fprintf(args.out, "Cleared %d cache entries\n", removed)

	case args.invalidatePattern != "":
		removed, err := args.cache.InvalidateByPattern(args.invalidatePattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		flushOrDie(args.cache)
		fmt.Fprintf(args.out, "Invalidated %d cache entries matching %q\n", removed, args.invalidatePattern)

	case args.invalidateDir != "":
		removed := args.cache.InvalidateByDirectory(args.invalidateDir)
		flushOrDie(args.cache)
		fmt.Fprintf(args.out, "Invalidated %d cache entries under %q\n", removed, args.invalidateDir)

	case args.invalidateAge > 0:
		removed := args.cache.InvalidateByAge(args.invalidateAge)
		flushOrDie(args.cache)
		fmt.Fprintf(args.out, "Invalidated %d cache entries older than %d days\n", removed, args.invalidateAge)

	case args.countOnly:
		processor, err := chunk.NewProcessor[analyzer.Profile](args.processorConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		count, err := processor.CountFiles(args.rootDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(args.out, "%d files eligible for analysis\n", count)

	case args.cleanup:
		processor, err := chunk.NewProcessor[analyzer.Profile](args.processorConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := processor.Cleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(args.out, "Removed chunk checkpoints")

	default:
		return false
	}
	return true
}

func printCacheStats(out io.Writer, c *cache.Cache[analyzer.Profile]) {
	stats := c.Stats()
	fmt.Fprintln(out, "Cache statistics:")
	fmt.Fprintf(out, "  Entries:      %d\n", stats.TotalEntries)
	fmt.Fprintf(out, "  File size:    %s\n", humanize.Bytes(uint64(stats.SizeBytes)))
	if stats.LastUpdated != "" {
		fmt.Fprintf(out, "  Last updated: %s\n", stats.LastUpdated)
	}
	if stats.OldestEntry != "" {
		fmt.Fprintf(out, "  Oldest entry: %s\n", stats.OldestEntry)
	}
	if stats.NewestEntry != "" {
		fmt.Fprintf(out, "  Newest entry: %s\n", stats.NewestEntry)
	}
}

func flushOrDie(c *cache.Cache[analyzer.Profile]) {
	if err := c.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting cache: %v\n", err)
		os.Exit(1)
	}
}
