package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/archscan/archscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResultsArgs defines the input parameters for the archscan_results tool.
type ResultsArgs struct {
	Query      string `json:"query" jsonschema:"Search terms. Use \"quotes\" for exact phrases or /slashes/ for regex"`
	FileGlob   string `json:"fileGlob,omitempty" jsonschema:"Optional glob to restrict results to matching file paths (e.g. **/*.py)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 20)"`
}

// ResultsHandler holds the dependencies for the results search tool.
type ResultsHandler struct {
	Results *index.Results
	Logger  *slog.Logger
}

// Handle processes an archscan_results request.
func (h *ResultsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ResultsArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("archscan_results called with empty query")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: query parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	hits, err := h.Results.Search(index.SearchOptions{
		Query:      args.Query,
		FileGlob:   args.FileGlob,
		MaxResults: args.MaxResults,
	})
	if err != nil {
		h.Logger.Error("archscan_results failed", "query", args.Query, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Search error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	elapsed := time.Since(start)
	h.Logger.Info("archscan_results",
		"query", args.Query,
		"results", len(hits),
		"elapsed", elapsed,
	)

	output := FormatResultHits(hits)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
