package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Invalidator exposes the cache eviction operations the invalidate tool
// drives.
type Invalidator interface {
	InvalidateAll()
	InvalidateByPattern(pattern string) (int, error)
	InvalidateByDirectory(dir string) int
	InvalidateByAge(maxAgeDays int) int
	Flush() error
	Len() int
}

// InvalidateArgs defines the input parameters for the archscan_invalidate
// tool. Exactly one selector must be set.
type InvalidateArgs struct {
	All        bool   `json:"all,omitempty" jsonschema:"Drop every cache entry"`
	Pattern    string `json:"pattern,omitempty" jsonschema:"Glob pattern of cached paths to drop (e.g. **/*.py)"`
	Directory  string `json:"directory,omitempty" jsonschema:"Drop cache entries for files under this directory"`
	MaxAgeDays int    `json:"maxAgeDays,omitempty" jsonschema:"Drop cache entries older than this many days"`
}

// InvalidateHandler holds the dependencies for the invalidate tool.
type InvalidateHandler struct {
	Cache  Invalidator
	Logger *slog.Logger
}

// Handle processes an archscan_invalidate request.
func (h *InvalidateHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args InvalidateArgs) (*mcp.CallToolResult, any, error) {
	selectors := 0
	if args.All {
		selectors++
	}
	if args.Pattern != "" {
		selectors++
	}
	if args.Directory != "" {
		selectors++
	}
	if args.MaxAgeDays > 0 {
		selectors++
	}
	if selectors != 1 {
		h.Logger.Warn("archscan_invalidate called with bad selectors", "count", selectors)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: set exactly one of all, pattern, directory, maxAgeDays"}},
			IsError: true,
		}, nil, nil
	}

	var removed int
	switch {
	case args.All:
		removed = h.Cache.Len()
		h.Cache.InvalidateAll()
	case args.Pattern != "":
		var err error
		removed, err = h.Cache.InvalidateByPattern(args.Pattern)
		if err != nil {
			h.Logger.Error("archscan_invalidate failed", "pattern", args.Pattern, "error", err)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Invalidate error: %v", err)}},
				IsError: true,
			}, nil, nil
		}
	case args.Directory != "":
		removed = h.Cache.InvalidateByDirectory(args.Directory)
	default:
		removed = h.Cache.InvalidateByAge(args.MaxAgeDays)
	}

	if err := h.Cache.Flush(); err != nil {
		h.Logger.Warn("archscan_invalidate flush failed", "error", err)
	}

	h.Logger.Info("archscan_invalidate",
		"all", args.All,
		"pattern", args.Pattern,
		"directory", args.Directory,
		"maxAgeDays", args.MaxAgeDays,
		"removed", removed,
	)

	output := fmt.Sprintf("invalidated: %d cache entries (%d remain)", removed, h.Cache.Len())

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
