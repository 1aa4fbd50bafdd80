// Package ignore decides which paths a scan should skip. It layers default
// patterns, .gitignore rules, .auditignore rules, custom patterns, and a
// file-size cap.
package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/denormal/go-gitignore"
)

// DefaultMaxFileSizeBytes caps files a scan will consider.
const DefaultMaxFileSizeBytes = 1024 * 1024

// Matcher reports whether a path should be excluded from scanning.
// Reload takes the write lock; the Should* methods take the read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	gitIgnore        gitignore.GitIgnore
	auditIgnore      gitignore.GitIgnore
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures a Matcher.
type MatcherOptions struct {
	RootDir        string
	CustomPatterns []string
	// MaxFileSizeBytes defaults to DefaultMaxFileSizeBytes when <= 0.
	MaxFileSizeBytes int64
}

// NewMatcher builds a matcher from default patterns plus any .gitignore and
// .auditignore files at the project root.
func NewMatcher(options MatcherOptions) *Matcher {
	m := &Matcher{
		rootDir:          options.RootDir,
		customPatterns:   options.CustomPatterns,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}
	if m.maxFileSizeBytes <= 0 {
		m.maxFileSizeBytes = DefaultMaxFileSizeBytes
	}

	m.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	m.auditIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".auditignore"), options.RootDir)
	return m
}

// ShouldIgnore returns true if the given absolute path should be excluded.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if matchesDefaultPatterns(relativePath, filepath.Base(absolutePath)) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Relative() matches without requiring the path to exist on disk.
	if m.gitIgnore != nil {
		if match := m.gitIgnore.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	if m.auditIgnore != nil {
		if match := m.auditIgnore.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be pruned from
// traversal entirely.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	// Fast path for directories that never hold scannable sources.
	switch filepath.Base(absolutePath) {
	case ".git", ".svn", ".hg", "node_modules", "__pycache__",
		".idea", ".vscode", ".next", ".nuxt", ".cache",
		"coverage", ".pytest_cache", ".venv", "venv", ".env":
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// IsFileTooLarge returns true if the file exceeds the size cap.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured cap.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// Reload re-reads the ignore files from disk, for when a watcher sees them change.
func (m *Matcher) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)
	newAuditIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".auditignore"), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.auditIgnore = newAuditIgnore
}

// matchesDefaultPatterns checks the built-in exclusion list. Bare names match
// any path component; glob patterns match the basename or the relative path.
func matchesDefaultPatterns(relativePath string, baseName string) bool {
	baseLower := strings.ToLower(baseName)

	for _, pattern := range DefaultPatterns {
		if !strings.ContainsAny(pattern, "*?[") {
			patternLower := strings.ToLower(pattern)
			if baseLower == patternLower {
				return true
			}
			for _, part := range strings.Split(relativePath, "/") {
				if strings.ToLower(part) == patternLower {
					return true
				}
			}
			continue
		}

		if matched, err := filepath.Match(strings.ToLower(pattern), baseLower); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(relativePath)); err == nil && matched {
			return true
		}
	}
	return false
}

func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	for _, pattern := range m.customPatterns {
		if matched, err := filepath.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, filepath.Base(relativePath)); err == nil && matched {
			return true
		}
	}
	return false
}

// loadIgnoreFile parses one gitignore-format file, or returns nil if absent.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()
	return gitignore.New(f, baseDir, nil)
}
