package index

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
)

// resultDocument is what gets indexed per analyzed file.
type resultDocument struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"` // JSON-encoded analysis payload
}

// SearchOptions controls a result search.
type SearchOptions struct {
	Query      string // plain terms, "quoted phrase", or /regex/
	FileGlob   string // optional doublestar filter on relative paths
	MaxResults int
}

// Hit is one search result.
type Hit struct {
	Path     string
	Language string
	Fragment string // snippet of the matching payload
	Score    float64
}

// Results is a full-text index over per-file analysis payloads, backed by
// an in-memory bleve index. Payloads are kept verbatim so individual
// results can be fetched without re-reading checkpoint files.
type Results struct {
	mu       sync.RWMutex
	idx      bleve.Index
	payloads map[string]string // relative path -> payload JSON
	logger   *slog.Logger
}

// NewResults creates an empty in-memory result index.
func NewResults(logger *slog.Logger) (*Results, error) {
	idx, err := bleve.NewMemOnly(buildResultMapping())
	if err != nil {
		return nil, fmt.Errorf("creating result index: %w", err)
	}
	return &Results{
		idx:      idx,
		payloads: make(map[string]string),
		logger:   logger,
	}, nil
}

func buildResultMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = false
	contentField.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Store = true
	pathField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathField)

	languageField := bleve.NewKeywordFieldMapping()
	languageField.Store = true
	languageField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("language", languageField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Index stores the analysis payload for a file. The payload is marshaled
// to JSON and made searchable; relativePath is the document ID.
func (r *Results) Index(relativePath, language string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", relativePath, err)
	}

	doc := resultDocument{
		Path:     relativePath,
		Language: language,
		Content:  string(encoded),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idx.Index(relativePath, doc); err != nil {
		return fmt.Errorf("indexing result for %s: %w", relativePath, err)
	}
	r.payloads[relativePath] = string(encoded)
	return nil
}

// Remove deletes the result for a file.
func (r *Results) Remove(relativePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idx.Delete(relativePath); err != nil {
		return fmt.Errorf("removing result for %s: %w", relativePath, err)
	}
	delete(r.payloads, relativePath)
	return nil
}

// Payload returns the stored analysis payload for a file as JSON, or
// false when the file has no indexed result.
func (r *Results) Payload(relativePath string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payload, ok := r.payloads[relativePath]
	return payload, ok
}

// Count returns the number of indexed results.
func (r *Results) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payloads)
}

// Search runs a full-text query over indexed payloads. Query syntax
// follows the usual conventions: bare terms are matched loosely, a
// "quoted" query matches the exact phrase, and /.../ is a regular
// expression.
func (r *Results) Search(opts SearchOptions) ([]Hit, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if opts.FileGlob != "" && !doublestar.ValidatePattern(opts.FileGlob) {
		return nil, fmt.Errorf("invalid glob pattern: %s", opts.FileGlob)
	}

	searchRequest := bleve.NewSearchRequest(buildResultQuery(opts.Query))
	// Over-fetch so a glob filter still fills maxResults.
	searchRequest.Size = maxResults * 5
	searchRequest.Fields = []string{"path", "language"}

	r.mu.RLock()
	defer r.mu.RUnlock()

	searchResults, err := r.idx.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("searching results: %w", err)
	}

	var hits []Hit
	for _, hit := range searchResults.Hits {
		if len(hits) >= maxResults {
			break
		}
		if opts.FileGlob != "" {
			matched, err := doublestar.Match(opts.FileGlob, hit.ID)
			if err != nil || !matched {
				continue
			}
		}
		language, _ := hit.Fields["language"].(string)
		hits = append(hits, Hit{
			Path:     hit.ID,
			Language: language,
			Fragment: fragmentFor(r.payloads[hit.ID], opts.Query),
			Score:    hit.Score,
		})
	}
	return hits, nil
}

// Clear drops every indexed result and starts over with a fresh index.
func (r *Results) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.idx.Close(); err != nil && r.logger != nil {
		r.logger.Warn("Failed to close result index", "error", err)
	}
	idx, err := bleve.NewMemOnly(buildResultMapping())
	if err != nil {
		return fmt.Errorf("recreating result index: %w", err)
	}
	r.idx = idx
	r.payloads = make(map[string]string)
	return nil
}

// Close releases the underlying index.
func (r *Results) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idx.Close()
}

func buildResultQuery(queryStr string) query.Query {
	queryStr = strings.TrimSpace(queryStr)

	if len(queryStr) > 2 && strings.HasPrefix(queryStr, "/") && strings.HasSuffix(queryStr, "/") {
		return bleve.NewRegexpQuery(queryStr[1 : len(queryStr)-1])
	}
	if len(queryStr) > 2 && strings.HasPrefix(queryStr, "\"") && strings.HasSuffix(queryStr, "\"") {
		return bleve.NewMatchPhraseQuery(queryStr[1 : len(queryStr)-1])
	}
	return bleve.NewMatchQuery(queryStr)
}

const fragmentRadius = 60

// fragmentFor extracts a snippet of the payload around the first query
// term, falling back to the payload prefix.
func fragmentFor(payload, queryStr string) string {
	if payload == "" {
		return ""
	}
	term := firstQueryTerm(queryStr)
	lower := strings.ToLower(payload)
	pos := -1
	if term != "" {
		pos = strings.Index(lower, strings.ToLower(term))
	}
	if pos < 0 {
		if len(payload) > fragmentRadius*2 {
			return payload[:fragmentRadius*2] + "..."
		}
		return payload
	}

	start := max(0, pos-fragmentRadius)
	end := min(len(payload), pos+len(term)+fragmentRadius)
	fragment := payload[start:end]
	if start > 0 {
		fragment = "..." + fragment
	}
	if end < len(payload) {
		fragment += "..."
	}
	return fragment
}

func firstQueryTerm(queryStr string) string {
	queryStr = strings.TrimSpace(queryStr)
	queryStr = strings.Trim(queryStr, "\"/")
	fields := strings.Fields(queryStr)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
