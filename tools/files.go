package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/archscan/archscan-mcp/index"
	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the archscan_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern to match scanned files (e.g. **/*.py or src/**/*.ts)"`
	Language   string `json:"language,omitempty" jsonschema:"Restrict matches to one detected language (e.g. Python)"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes an archscan_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("archscan_files called with empty pattern")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: pattern parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	matches, err := h.Catalog.SearchByGlob(args.Pattern, args.MaxResults)
	if err != nil {
		h.Logger.Error("archscan_files failed", "pattern", args.Pattern, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Search error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	var files []*index.ScannedFile
	var totalSize int64
	for _, file := range matches {
		if args.Language != "" && !strings.EqualFold(file.Language, args.Language) {
			continue
		}
		files = append(files, file)
		totalSize += file.SizeBytes
	}

	elapsed := time.Since(start)
	h.Logger.Info("archscan_files",
		"pattern", args.Pattern,
		"language", args.Language,
		"results", len(files),
		"elapsed", elapsed,
	)

	output := FormatFileResults(files, args.NameOnly)
	if !args.NameOnly && len(files) > 0 {
		output += fmt.Sprintf("\nTotal: %s across %d files\n", humanize.Bytes(uint64(totalSize)), len(files))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
