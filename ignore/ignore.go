package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
	"github.com/lexandro/mirrormeta-mcp/sidecar"
)

// MirrorIgnoreFile is the gitignore-format file read from a mirror root.
const MirrorIgnoreFile = ".mirrorignore"

// Matcher decides which paths under a mirror root the watcher and folder discovery skip.
// It combines default patterns, the sidecar directories, .gitignore, .mirrorignore and
// custom doublestar patterns.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore()/ShouldIgnoreDir() a read lock.
type Matcher struct {
	mu             sync.RWMutex
	rootDir        string
	layout         sidecar.Layout
	gitIgnore      gitignore.GitIgnore
	mirrorIgnore   gitignore.GitIgnore
	customPatterns []string
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir        string
	Layout         sidecar.Layout
	CustomPatterns []string
}

// NewMatcher creates an ignore matcher for one mirror root.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:        options.RootDir,
		layout:         options.Layout,
		customPatterns: options.CustomPatterns,
	}
	matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	matcher.mirrorIgnore = loadIgnoreFile(filepath.Join(options.RootDir, MirrorIgnoreFile), options.RootDir)
	return matcher
}

// RootDir returns the mirror root the matcher was built for.
func (m *Matcher) RootDir() string { return m.rootDir }

// ShouldIgnore returns true if changes to the given path should not trigger a reconcile.
// Anything inside a sidecar directory is ignored.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)
	parts := strings.Split(relativePath, "/")

	for _, part := range parts {
		if m.layout.IsSidecarDir(part) {
			return true
		}
	}
	if matchesDefaultPatterns(parts) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}
	for _, gi := range []gitignore.GitIgnore{m.gitIgnore, m.mirrorIgnore} {
		if gi == nil {
			continue
		}
		if match := gi.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if m.layout.IsSidecarDir(filepath.Base(absolutePath)) {
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// matchesDefaultPatterns checks every path component against DefaultIgnorePatterns.
func matchesDefaultPatterns(parts []string) bool {
	for _, part := range parts {
		lower := strings.ToLower(part)
		for _, pattern := range DefaultIgnorePatterns {
			matched, err := filepath.Match(strings.ToLower(pattern), lower)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// matchesCustomPatterns matches user patterns against the relative path and the base name.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads .gitignore and .mirrorignore from disk.
func (m *Matcher) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)
	newMirrorIgnore := loadIgnoreFile(filepath.Join(m.rootDir, MirrorIgnoreFile), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.mirrorIgnore = newMirrorIgnore
}

// IsIgnoreFile reports whether a base name is one of the files Reload reads.
func IsIgnoreFile(baseName string) bool {
	return baseName == ".gitignore" || baseName == MirrorIgnoreFile
}

// loadIgnoreFile reads an ignore file through an io.Reader so the handle is closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
