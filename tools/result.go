package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/archscan/archscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResultArgs defines the input parameters for the archscan_result tool.
type ResultArgs struct {
	FilePath string `json:"filePath" jsonschema:"Relative file path whose analysis result to fetch (e.g. src/main.py)"`
}

// ResultHandler holds the dependencies for the single-result tool.
type ResultHandler struct {
	Results *index.Results
	Logger  *slog.Logger
}

// Handle processes an archscan_result request.
func (h *ResultHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ResultArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.FilePath == "" {
		h.Logger.Warn("archscan_result called with empty filePath")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: filePath parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	payload, ok := h.Results.Payload(args.FilePath)
	if !ok {
		h.Logger.Info("archscan_result not found", "filePath", args.FilePath)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("No analysis result for: %s", args.FilePath)}},
			IsError: true,
		}, nil, nil
	}

	elapsed := time.Since(start)
	h.Logger.Info("archscan_result", "filePath", args.FilePath, "elapsed", elapsed)

	output := FormatResultPayload(args.FilePath, payload)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
