package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/archscan/archscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestFilesHandler() *FilesHandler {
	catalog := index.NewCatalog()
	catalog.Add(&index.ScannedFile{
		Path:         "/project/src/main.py",
		RelativePath: "src/main.py",
		Language:     "Python",
		SizeBytes:    1024,
		LineCount:    40,
	})
	catalog.Add(&index.ScannedFile{
		Path:         "/project/web/app.ts",
		RelativePath: "web/app.ts",
		Language:     "TypeScript",
		SizeBytes:    2048,
		LineCount:    80,
	})
	return &FilesHandler{Catalog: catalog, Logger: testLogger()}
}

func Test_FilesHandler_Handle(t *testing.T) {
	h := newTestFilesHandler()

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "**/*.py"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "Found 1 files") {
		t.Errorf("expected 1 match, got:\n%s", text)
	}
	if !strings.Contains(text, "src/main.py") {
		t.Errorf("expected src/main.py in output, got:\n%s", text)
	}
	if strings.Contains(text, "app.ts") {
		t.Errorf("expected app.ts filtered out, got:\n%s", text)
	}
}

func Test_FilesHandler_SizeSummary(t *testing.T) {
	h := newTestFilesHandler()

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "**/*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "across 2 files") {
		t.Errorf("expected size summary line, got:\n%s", text)
	}
}

func Test_FilesHandler_LanguageFilter(t *testing.T) {
	h := newTestFilesHandler()

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "**/*", Language: "typescript"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "web/app.ts") {
		t.Errorf("expected app.ts to survive case-insensitive filter, got:\n%s", text)
	}
	if strings.Contains(text, "main.py") {
		t.Errorf("expected Python file filtered out, got:\n%s", text)
	}
}

func Test_FilesHandler_NameOnly(t *testing.T) {
	h := newTestFilesHandler()

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "**/*.py", NameOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if strings.Contains(text, "lines") {
		t.Errorf("expected no metadata in nameOnly output, got:\n%s", text)
	}
}

func Test_FilesHandler_EmptyPattern(t *testing.T) {
	h := newTestFilesHandler()

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for empty pattern")
	}
}

func Test_FilesHandler_InvalidPattern(t *testing.T) {
	h := newTestFilesHandler()

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "[bad"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for invalid pattern")
	}
}
