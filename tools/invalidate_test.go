package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func Test_InvalidateHandler_All(t *testing.T) {
	fc := &fakeCache{entries: 5}
	h := &InvalidateHandler{Cache: fc, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, InvalidateArgs{All: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}
	if !fc.clearedAll {
		t.Error("expected InvalidateAll to be called")
	}
	if !fc.flushed {
		t.Error("expected cache flush after invalidation")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "invalidated: 5") {
		t.Errorf("expected removed count 5, got:\n%s", text)
	}
}

func Test_InvalidateHandler_Pattern(t *testing.T) {
	fc := &fakeCache{entries: 5}
	h := &InvalidateHandler{Cache: fc, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, InvalidateArgs{Pattern: "**/*.py"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}
	if fc.patternArg != "**/*.py" {
		t.Errorf("expected pattern forwarded, got %q", fc.patternArg)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "invalidated: 2") {
		t.Errorf("expected removed count 2, got:\n%s", text)
	}
	if !strings.Contains(text, "3 remain") {
		t.Errorf("expected remaining count 3, got:\n%s", text)
	}
}

func Test_InvalidateHandler_Directory(t *testing.T) {
	fc := &fakeCache{entries: 5}
	h := &InvalidateHandler{Cache: fc, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, InvalidateArgs{Directory: "src/api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}
	if fc.dirArg != "src/api" {
		t.Errorf("expected directory forwarded, got %q", fc.dirArg)
	}
}

func Test_InvalidateHandler_Age(t *testing.T) {
	fc := &fakeCache{entries: 5}
	h := &InvalidateHandler{Cache: fc, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, InvalidateArgs{MaxAgeDays: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}
	if fc.ageArg != 30 {
		t.Errorf("expected maxAgeDays forwarded, got %d", fc.ageArg)
	}
}

func Test_InvalidateHandler_NoSelector(t *testing.T) {
	h := &InvalidateHandler{Cache: &fakeCache{entries: 5}, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, InvalidateArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true when no selector is set")
	}
}

func Test_InvalidateHandler_MultipleSelectors(t *testing.T) {
	h := &InvalidateHandler{Cache: &fakeCache{entries: 5}, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, InvalidateArgs{All: true, Pattern: "**/*.py"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true when multiple selectors are set")
	}
}

func Test_InvalidateHandler_PatternError(t *testing.T) {
	fc := &fakeCache{entries: 5, lastErr: errors.New("invalid glob pattern")}
	h := &InvalidateHandler{Cache: fc, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, InvalidateArgs{Pattern: "[bad"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for pattern error")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "invalid glob pattern") {
		t.Errorf("expected error text forwarded, got:\n%s", text)
	}
}
