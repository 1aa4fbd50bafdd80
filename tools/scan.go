package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScanArgs defines the input parameters for the archscan_scan tool.
type ScanArgs struct {
	Force bool `json:"force,omitempty" jsonschema:"If true re-analyze every file even when its cache entry is still valid"`
}

// ScanFunc is the function signature for the scan operation. It is
// provided by main.go to avoid circular dependencies.
type ScanFunc func(force bool) (filesScanned int, cacheHits int, elapsed string, err error)

// ScanHandler holds the dependencies for the scan tool.
type ScanHandler struct {
	DoScan ScanFunc
	Logger *slog.Logger
}

// Handle processes an archscan_scan request.
func (h *ScanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ScanArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("archscan_scan started", "force", args.Force)

	filesScanned, cacheHits, elapsed, err := h.DoScan(args.Force)
	if err != nil {
		h.Logger.Error("archscan_scan failed", "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Scan error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	h.Logger.Info("archscan_scan complete",
		"files", filesScanned,
		"cacheHits", cacheHits,
		"elapsed", elapsed,
	)

	output := fmt.Sprintf("scanned: %d files (%d served from cache) in %s",
		filesScanned, cacheHits, elapsed)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
