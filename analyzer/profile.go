// Package analyzer provides the built-in file-profile analyzer used when no
// external analyzer is plugged into the pipeline. It records a file's
// language, size, and line count, and rejects binary files.
package analyzer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Profile is the analysis result for one file.
type Profile struct {
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	Language     string `json:"language"`
	SizeBytes    int64  `json:"sizeBytes"`
	LineCount    int    `json:"lineCount"`
}

// Profiler produces Profiles for files under a project root.
type Profiler struct {
	Root string
}

// NewProfiler creates a profiler for the given project root.
func NewProfiler(root string) *Profiler {
	return &Profiler{Root: root}
}

// Analyze profiles one file. Binary files are an error so the pipeline
// records them in the chunk's error list instead of its results.
func (p *Profiler) Analyze(path string) (Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading file: %w", err)
	}
	if isBinary(content) {
		return Profile{}, fmt.Errorf("binary file")
	}

	relPath, err := filepath.Rel(p.Root, path)
	if err != nil {
		relPath = path
	}

	return Profile{
		Path:         path,
		RelativePath: filepath.ToSlash(relPath),
		Language:     DetectLanguage(path),
		SizeBytes:    int64(len(content)),
		LineCount:    bytes.Count(content, []byte("\n")) + 1,
	}, nil
}

// isBinary sniffs the first 512 bytes for a null byte.
func isBinary(data []byte) bool {
	limit := min(len(data), 512)
	return bytes.IndexByte(data[:limit], 0) >= 0
}

// languageByExtension maps lowercase extensions (without dot) to languages.
var languageByExtension = map[string]string{
	"py": "Python", "pyi": "Python",
	"js": "JavaScript", "jsx": "JavaScript", "mjs": "JavaScript",
	"ts": "TypeScript", "tsx": "TypeScript",
	"vue": "Vue", "svelte": "Svelte",
	"go":   "Go",
	"rs":   "Rust",
	"java": "Java", "kt": "Kotlin",
	"c": "C", "h": "C", "cpp": "C++", "cc": "C++", "hpp": "C++",
	"cs":    "C#",
	"rb":    "Ruby",
	"php":   "PHP",
	"swift": "Swift",
	"sh":    "Shell", "bash": "Shell",
	"html": "HTML", "css": "CSS", "scss": "SCSS",
	"json": "JSON", "yaml": "YAML", "yml": "YAML", "toml": "TOML",
	"md": "Markdown", "sql": "SQL", "proto": "Protobuf",
	"tf": "Terraform",
}

// DetectLanguage returns the language for a file path based on its extension
// or, for extensionless files, its well-known name.
func DetectLanguage(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		switch strings.ToLower(filepath.Base(path)) {
		case "makefile", "gnumakefile":
			return "Makefile"
		case "dockerfile":
			return "Dockerfile"
		case "gemfile", "rakefile":
			return "Ruby"
		}
		return "Unknown"
	}
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}
	return "Unknown"
}
