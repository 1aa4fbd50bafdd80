// Package tools implements the MCP tool handlers exposed by the archscan
// server.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/archscan/archscan-mcp/cache"
	"github.com/archscan/archscan-mcp/chunk"
	"github.com/archscan/archscan-mcp/index"
	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CacheReader exposes the cache views the status tool needs.
type CacheReader interface {
	Stats() cache.Stats
	Len() int
}

// ScanProgressFunc reports checkpoint completion for the current scan.
type ScanProgressFunc func() (chunk.Summary, error)

// StatusArgs defines the input parameters for the archscan_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Catalog      *index.Catalog
	Results      *index.Results
	Cache        CacheReader
	ScanProgress ScanProgressFunc
	StartTime    time.Time
	RootDir      string
	Logger       *slog.Logger
}

// Handle processes an archscan_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileCount := h.Catalog.Count()
	totalSize := h.Catalog.TotalSizeBytes()
	langCounts := h.Catalog.LanguageCounts()
	resultCount := h.Results.Count()
	cacheStats := h.Cache.Stats()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("archscan_status",
		"files", fileCount,
		"totalSize", totalSize,
		"cacheEntries", cacheStats.TotalEntries,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== archscan-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Scanned files: %d\n", fileCount))
	builder.WriteString(fmt.Sprintf("Indexed results: %d\n", resultCount))
	builder.WriteString(fmt.Sprintf("Total scanned size: %s\n", humanize.Bytes(uint64(totalSize))))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		humanize.Bytes(memStats.Alloc),
		humanize.Bytes(memStats.HeapAlloc),
	))

	builder.WriteString("\nCache:\n")
	builder.WriteString(fmt.Sprintf("  Entries: %d\n", cacheStats.TotalEntries))
	builder.WriteString(fmt.Sprintf("  File size: %s\n", humanize.Bytes(uint64(cacheStats.SizeBytes))))
	if cacheStats.LastUpdated != "" {
		builder.WriteString(fmt.Sprintf("  Last updated: %s\n", cacheStats.LastUpdated))
	}

	if h.ScanProgress != nil {
		if summary, err := h.ScanProgress(); err == nil && summary.TotalChunks > 0 {
			builder.WriteString(fmt.Sprintf("\nScan checkpoints: %d/%d chunks (%.1f%%)\n",
				summary.CompletedChunks, summary.TotalChunks, summary.Percent))
		}
	}

	if len(langCounts) > 0 {
		builder.WriteString("\nLanguages:\n")

		type langEntry struct {
			lang  string
			count int
		}
		entries := make([]langEntry, 0, len(langCounts))
		for lang, count := range langCounts {
			entries = append(entries, langEntry{lang, count})
		}
		// Sort by count descending
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].count > entries[j].count
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-20s %d files\n", entry.lang, entry.count))
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: builder.String()}},
	}, nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
