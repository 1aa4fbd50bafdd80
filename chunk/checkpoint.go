package chunk

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const manifestName = "manifest.json"

// manifest records which discovered file set a checkpoint directory belongs
// to. Resuming against a different file set or chunk size would silently
// misalign chunk boundaries, so a fingerprint mismatch wipes the checkpoints
// instead of replaying them.
type manifest struct {
	Fingerprint string `json:"fingerprint"`
	TotalFiles  int    `json:"totalFiles"`
	ChunkSize   int    `json:"chunkSize"`
	CreatedAt   string `json:"createdAt"`
}

// fingerprint hashes the sorted file list together with the chunk size.
func fingerprint(files []string, chunkSize int) string {
	digest := xxhash.New()
	fmt.Fprintf(digest, "chunkSize=%d\n", chunkSize)
	for _, path := range files {
		digest.WriteString(filepath.ToSlash(path))
		digest.WriteString("\n")
	}
	return fmt.Sprintf("%016x", digest.Sum64())
}

// checkpointPath returns the path of the checkpoint file for a 1-based chunk ID.
func (p *Processor[T]) checkpointPath(chunkID int) string {
	return filepath.Join(p.cfg.OutputDir, fmt.Sprintf("chunk_%04d.json", chunkID))
}

// listCheckpoints returns the checkpoint filenames in ascending chunk order.
func (p *Processor[T]) listCheckpoints() []string {
	entries, err := os.ReadDir(p.cfg.OutputDir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "chunk_") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	// Sort on the parsed chunk number, not the filename: the %04d padding
	// stops ordering lexically once IDs reach five digits.
	sort.Slice(names, func(i, j int) bool {
		ni, iOK := chunkNumber(names[i])
		nj, jOK := chunkNumber(names[j])
		if iOK && jOK {
			return ni < nj
		}
		return names[i] < names[j]
	})
	return names
}

// chunkNumber extracts the chunk ID from a checkpoint filename.
func chunkNumber(name string) (int, bool) {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "chunk_"), ".json")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// prepareCheckpoints reconciles existing checkpoints with the current
// discovery set before a run starts. Without Resume all old checkpoints are
// removed; with Resume they are kept only when the manifest fingerprint
// matches the current file set.
func (p *Processor[T]) prepareCheckpoints(files []string) error {
	fp := fingerprint(files, p.cfg.ChunkSize)
	manifestPath := filepath.Join(p.cfg.OutputDir, manifestName)
	existing := p.listCheckpoints()

	keep := false
	if p.cfg.Resume {
		if m, err := p.loadManifest(); err == nil && m.Fingerprint == fp {
			keep = true
		} else if len(existing) > 0 {
			p.logger.Warn("checkpoints do not match current file set, discarding",
				"checkpoints", len(existing),
				"files", len(files),
			)
		}
	}

	if !keep {
		for _, name := range existing {
			if err := os.Remove(filepath.Join(p.cfg.OutputDir, name)); err != nil {
				return fmt.Errorf("removing stale checkpoint %s: %w", name, err)
			}
		}
	}

	m := manifest{
		Fingerprint: fp,
		TotalFiles:  len(files),
		ChunkSize:   p.cfg.ChunkSize,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func (p *Processor[T]) loadManifest() (manifest, error) {
	var m manifest
	data, err := os.ReadFile(filepath.Join(p.cfg.OutputDir, manifestName))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// saveCheckpoint persists a chunk result. Failure is logged but does not
// abort the run; the chunk simply won't be resumable.
func (p *Processor[T]) saveCheckpoint(result Result[T]) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		p.logger.Error("failed to encode checkpoint", "chunk", result.ChunkID, "error", err)
		return
	}
	path := p.checkpointPath(result.ChunkID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		p.logger.Error("failed to write checkpoint", "chunk", result.ChunkID, "path", path, "error", err)
	}
}

// loadCheckpoint reads a persisted chunk result. A missing or corrupt
// checkpoint reads as "chunk not yet done".
func (p *Processor[T]) loadCheckpoint(chunkID int) (Result[T], bool) {
	var result Result[T]
	data, err := os.ReadFile(p.checkpointPath(chunkID))
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		p.logger.Warn("failed to parse checkpoint, will reprocess chunk", "chunk", chunkID, "error", err)
		return result, false
	}
	return result, true
}

// Merge combines every persisted checkpoint into one aggregate, in ascending
// chunk order. It is deterministic for a fixed set of checkpoint files and
// safe to call repeatedly. TotalChunks is the maximum recorded value, which
// guards against a discovery set that changed between executions.
func (p *Processor[T]) Merge() (Aggregate[T], error) {
	var agg Aggregate[T]

	for _, name := range p.listCheckpoints() {
		path := filepath.Join(p.cfg.OutputDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("failed to read checkpoint during merge", "path", path, "error", err)
			continue
		}
		var result Result[T]
		if err := json.Unmarshal(data, &result); err != nil {
			p.logger.Warn("failed to parse checkpoint during merge", "path", path, "error", err)
			continue
		}

		agg.Results = append(agg.Results, result.Results...)
		agg.Errors = append(agg.Errors, result.Errors...)
		agg.TotalFiles += result.FilesProcessed
		agg.TotalChunks = max(agg.TotalChunks, result.TotalChunks)
	}
	return agg, nil
}

// Progress reports completion derived purely from the checkpoint files on
// disk: how many exist versus the TotalChunks recorded inside one of them.
func (p *Processor[T]) Progress() Summary {
	names := p.listCheckpoints()
	if len(names) == 0 {
		return Summary{}
	}

	totalChunks := len(names)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(p.cfg.OutputDir, name))
		if err != nil {
			continue
		}
		var result Result[T]
		if err := json.Unmarshal(data, &result); err != nil {
			continue
		}
		if result.TotalChunks > 0 {
			totalChunks = result.TotalChunks
		}
		break
	}

	percent := 100.0
	if totalChunks > 0 {
		percent = float64(len(names)) / float64(totalChunks) * 100
	}
	return Summary{
		CompletedChunks: len(names),
		TotalChunks:     totalChunks,
		Percent:         math.Round(percent*10) / 10,
	}
}

// Cleanup removes all checkpoint files and the run manifest.
func (p *Processor[T]) Cleanup() error {
	for _, name := range p.listCheckpoints() {
		if err := os.Remove(filepath.Join(p.cfg.OutputDir, name)); err != nil {
			return fmt.Errorf("removing checkpoint %s: %w", name, err)
		}
	}
	if err := os.Remove(filepath.Join(p.cfg.OutputDir, manifestName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing manifest: %w", err)
	}
	p.logger.Info("cleaned up checkpoints", "dir", p.cfg.OutputDir)
	return nil
}
