package sidecar

import (
	"path/filepath"
	"strings"
)

const (
	DefaultMetadataDir = ".mirror"
	DefaultOriginalDir = ".meta"

	metadataSuffix = ".json"
	originalSuffix = "-orig.json"
)

// Layout names the sidecar subdirectories placed directly under each mirrored directory.
type Layout struct {
	MetadataDir string
	OriginalDir string
}

// DefaultLayout returns the layout used when no configuration overrides it.
func DefaultLayout() Layout {
	return Layout{MetadataDir: DefaultMetadataDir, OriginalDir: DefaultOriginalDir}
}

// withDefaults fills empty directory names so a zero Layout is usable.
func (l Layout) withDefaults() Layout {
	if l.MetadataDir == "" {
		l.MetadataDir = DefaultMetadataDir
	}
	if l.OriginalDir == "" {
		l.OriginalDir = DefaultOriginalDir
	}
	return l
}

// MetadataDirPath returns the metadata sidecar directory of a mirrored directory.
func (l Layout) MetadataDirPath(dirPath string) string {
	return filepath.Join(dirPath, l.withDefaults().MetadataDir)
}

// OriginalDirPath returns the original-content sidecar directory of a mirrored directory.
func (l Layout) OriginalDirPath(dirPath string) string {
	return filepath.Join(dirPath, l.withDefaults().OriginalDir)
}

// MetadataPath returns the metadata sidecar path for a mirrored file:
// <dir>/<MetadataDir>/<base>[-<ext>].json
func (l Layout) MetadataPath(mirroredPath string) string {
	dir, stem := splitMirroredPath(mirroredPath)
	return filepath.Join(l.MetadataDirPath(dir), stem+metadataSuffix)
}

// OriginalPath returns the original-content sidecar path for a mirrored file:
// <dir>/<OriginalDir>/<base>[-<ext>]-orig.json
func (l Layout) OriginalPath(mirroredPath string) string {
	dir, stem := splitMirroredPath(mirroredPath)
	return filepath.Join(l.OriginalDirPath(dir), stem+originalSuffix)
}

// MetadataFileName returns only the file name part of MetadataPath.
func (l Layout) MetadataFileName(mirroredPath string) string {
	return filepath.Base(l.MetadataPath(mirroredPath))
}

// IsSidecarDir reports whether a directory entry name is one of the sidecar directories.
func (l Layout) IsSidecarDir(name string) bool {
	l = l.withDefaults()
	return name == l.MetadataDir || name == l.OriginalDir
}

// splitMirroredPath splits a mirrored path into its directory and the sidecar stem,
// which embeds the extension (without dot) so members sharing a base name do not collide.
func splitMirroredPath(mirroredPath string) (string, string) {
	dir := filepath.Dir(mirroredPath)
	base := filepath.Base(mirroredPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if ext == "" || ext == "." {
		return dir, name
	}
	return dir, name + "-" + ext[1:]
}
