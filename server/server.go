package server

import (
	"github.com/archscan/archscan-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	statusHandler *tools.StatusHandler,
	filesHandler *tools.FilesHandler,
	resultsHandler *tools.ResultsHandler,
	resultHandler *tools.ResultHandler,
	scanHandler *tools.ScanHandler,
	invalidateHandler *tools.InvalidateHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "archscan-mcp",
			Version: "0.3.0",
		},
		&mcp.ServerOptions{
			Instructions: `This server provides incremental project analysis. Files are analyzed once, cached by content hash, and re-analyzed only when they change, so results are served from memory without re-reading the project.

Prefer these tools for questions about the analyzed project:
- Use archscan_results to search across analysis results (full-text)
- Use archscan_result to fetch the complete analysis of one file
- Use archscan_files to list scanned files by glob pattern
- Use archscan_scan to refresh results after large changes; small edits are picked up automatically (via filesystem watcher)
- Use archscan_invalidate to evict stale cache entries`,
		},
	)

	// Register archscan_results tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "archscan_results",
		Description: `Search analysis results using full-text indexed search.

Query formats:
  - Plain text: word-level matching (e.g., "authentication")
  - "quoted text": exact phrase matching (e.g., "\"connection pool\"")
  - /regex/: regular expression matching (e.g., "/handle\w+/")

Filtering:
  - fileGlob: glob pattern to restrict hits by file path (e.g., "**/*.py").`,
	}, resultsHandler.Handle)

	// Register archscan_result tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "archscan_result",
		Description: `Fetch the full analysis result for a single file by its relative path. Served from memory.`,
	}, resultHandler.Handle)

	// Register archscan_files tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "archscan_files",
		Description: `Find scanned files by glob pattern.

Pattern examples:
  - "**/*.py" - all Python files
  - "src/**/*.ts" - TypeScript files under src/
  - "**/test_*.py" - Python test files
  - "*.json" - JSON files in root only`,
	}, filesHandler.Handle)

	// Register archscan_status tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "archscan_status",
		Description: "Show scan status: file count, languages, cache statistics, checkpoint progress, memory usage, and uptime.",
	}, statusHandler.Handle)

	// Register archscan_scan tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "archscan_scan",
		Description: "Run a scan of the project. Unchanged files are served from the cache; pass force=true to re-analyze everything.",
	}, scanHandler.Handle)

	// Register archscan_invalidate tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "archscan_invalidate",
		Description: "Evict analysis cache entries by glob pattern, directory, age in days, or all at once.",
	}, invalidateHandler.Handle)

	return mcpServer
}
