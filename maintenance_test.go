package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/archscan/archscan-mcp/analyzer"
	"github.com/archscan/archscan-mcp/cache"
	"github.com/archscan/archscan-mcp/chunk"
)

// newMaintenanceFixture builds a populated cache and processor config over a
// small project tree.
func newMaintenanceFixture(t *testing.T, fileCount int) maintenanceArgs {
	t.Helper()
	root := t.TempDir()
	paths := writeProjectTree(t, root, fileCount)

	cacheDir := t.TempDir()
	analysisCache, err := cache.New[analyzer.Profile](cacheDir, "analysis_cache", cache.Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	for _, path := range paths {
		analysisCache.Store(path, analyzer.Profile{Path: path}, nil)
	}

	return maintenanceArgs{
		rootDir: root,
		cache:   analysisCache,
		processorConfig: chunk.Config{
			ChunkSize: 2,
			OutputDir: filepath.Join(cacheDir, "chunks"),
			Logger:    discardLogger(),
		},
	}
}

func Test_RunMaintenance_NoModeSelected(t *testing.T) {
	args := newMaintenanceFixture(t, 1)
	args.out = &bytes.Buffer{}
	if runMaintenance(args) {
		t.Error("expected no maintenance mode to be handled")
	}
}

func Test_RunMaintenance_Stats(t *testing.T) {
	args := newMaintenanceFixture(t, 3)
	var out bytes.Buffer
	args.out = &out
	args.showStats = true

	if !runMaintenance(args) {
		t.Fatal("expected stats mode to be handled")
	}
	if !strings.Contains(out.String(), "Cache statistics:") {
		t.Errorf("expected stats header, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Entries:      3") {
		t.Errorf("expected entry count, got %q", out.String())
	}
}

func Test_RunMaintenance_Clear(t *testing.T) {
	args := newMaintenanceFixture(t, 4)
	var out bytes.Buffer
	args.out = &out
	args.clearCache = true

	if !runMaintenance(args) {
		t.Fatal("expected clear mode to be handled")
	}
	if !strings.Contains(out.String(), "Cleared 4 cache entries") {
		t.Errorf("unexpected clear output: %q", out.String())
	}
	if args.cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", args.cache.Len())
	}
}

func Test_RunMaintenance_InvalidatePattern(t *testing.T) {
	args := newMaintenanceFixture(t, 3)
	var out bytes.Buffer
	args.out = &out
	args.invalidatePattern = "**/file_000.py"

	if !runMaintenance(args) {
		t.Fatal("expected pattern mode to be handled")
	}
	if !strings.Contains(out.String(), `Invalidated 1 cache entries matching "**/file_000.py"`) {
		t.Errorf("unexpected pattern output: %q", out.String())
	}
	if args.cache.Len() != 2 {
		t.Errorf("expected 2 surviving entries, got %d", args.cache.Len())
	}
}

func Test_RunMaintenance_CountOnly(t *testing.T) {
	args := newMaintenanceFixture(t, 5)
	var out bytes.Buffer
	args.out = &out
	args.countOnly = true

	if !runMaintenance(args) {
		t.Fatal("expected count mode to be handled")
	}
	if !strings.Contains(out.String(), "5 files eligible for analysis") {
		t.Errorf("unexpected count output: %q", out.String())
	}
}

func Test_RunMaintenance_Cleanup(t *testing.T) {
	args := newMaintenanceFixture(t, 2)
	var out bytes.Buffer
	args.out = &out

	// Leave a checkpoint behind for cleanup to remove.
	processor, err := chunk.NewProcessor[analyzer.Profile](args.processorConfig)
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	seq, err := processor.Run(args.rootDir, func(path string) (analyzer.Profile, error) {
		return analyzer.Profile{Path: path}, nil
	}, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	chunks := 0
	for range seq {
		chunks++
	}
	if chunks == 0 {
		t.Fatal("expected at least one chunk")
	}

	args.cleanup = true
	if !runMaintenance(args) {
		t.Fatal("expected cleanup mode to be handled")
	}
	if !strings.Contains(out.String(), "Removed chunk checkpoints") {
		t.Errorf("unexpected cleanup output: %q", out.String())
	}
	if remaining := processor.Progress().CompletedChunks; remaining != 0 {
		t.Errorf("expected no checkpoints after cleanup, got %d", remaining)
	}
}

func Test_RunMaintenance_InvalidateAge(t *testing.T) {
	args := newMaintenanceFixture(t, 2)
	var out bytes.Buffer
	args.out = &out
	args.invalidateAge = 30

	if !runMaintenance(args) {
		t.Fatal("expected age mode to be handled")
	}
	if !strings.Contains(out.String(), fmt.Sprintf("Invalidated 0 cache entries older than %d days", 30)) {
		t.Errorf("unexpected age output: %q", out.String())
	}
	if args.cache.Len() != 2 {
		t.Errorf("expected fresh entries kept, got %d", args.cache.Len())
	}
}
