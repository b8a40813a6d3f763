package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/spf13/afero"
)

// ErrInvalidName is reported when a rename target is not a plain base name.
var ErrInvalidName = errors.New("invalid base name")

// RenameResult reports each half of a rename separately. The mirrored file rename is
// authoritative: sidecar failures are left for the next ScanFolder to surface and repair.
type RenameResult struct {
	OldPath string
	NewPath string

	FileRenamed bool
	FileErr     error

	MetadataRenamed bool
	MetadataErr     error

	OriginalRenamed bool
	OriginalErr     error
}

// Complete reports whether nothing failed.
func (r RenameResult) Complete() bool {
	return r.FileErr == nil && r.MetadataErr == nil && r.OriginalErr == nil
}

// Rename gives the mirrored file at mirroredPath the base name newBaseName, keeping its
// extension, then moves its metadata and original-content sidecars to match.
// The sidecar paths are derived from the old path. Nothing is rolled back.
func (m *Manager) Rename(mirroredPath string, newBaseName string) RenameResult {
	result := RenameResult{OldPath: mirroredPath}
	fsys := m.store.Fs()
	layout := m.store.Layout()

	ext := filepath.Ext(mirroredPath)
	newBaseName = strings.TrimSpace(newBaseName)
	if ext != "" && strings.EqualFold(filepath.Ext(newBaseName), ext) {
		newBaseName = strings.TrimSuffix(newBaseName, filepath.Ext(newBaseName))
	}
	if newBaseName == "" || newBaseName == "." || newBaseName == ".." || strings.ContainsAny(newBaseName, `/\`) {
		result.FileErr = fmt.Errorf("%w: %q", ErrInvalidName, newBaseName)
		return result
	}

	result.NewPath = filepath.Join(filepath.Dir(mirroredPath), newBaseName+ext)
	if result.NewPath == filepath.Clean(mirroredPath) {
		result.FileErr = fmt.Errorf("%w: %q is the current name", ErrInvalidName, newBaseName)
		return result
	}

	defer m.lockDir(filepath.Dir(mirroredPath))()

	exists, err := afero.Exists(fsys, result.NewPath)
	if err != nil {
		result.FileErr = fmt.Errorf("checking rename target %s: %w", result.NewPath, err)
		return result
	}
	if exists {
		result.FileErr = fmt.Errorf("renaming %s: %s: %w", mirroredPath, result.NewPath, fs.ErrExist)
		return result
	}
	if err := fsys.Rename(mirroredPath, result.NewPath); err != nil {
		result.FileErr = fmt.Errorf("renaming %s: %w", mirroredPath, err)
		m.logger.Warn("rename failed", "path", mirroredPath, "error", err)
		return result
	}
	result.FileRenamed = true

	result.MetadataRenamed, result.MetadataErr = moveSidecar(fsys,
		layout.MetadataPath(mirroredPath), layout.MetadataPath(result.NewPath))
	if result.MetadataRenamed {
		if _, err := m.store.Apply(result.NewPath, meta.SetMirroredFileName{FileName: filepath.Base(result.NewPath)}); err != nil {
			result.MetadataErr = err
		}
	}

	result.OriginalRenamed, result.OriginalErr = moveSidecar(fsys,
		layout.OriginalPath(mirroredPath), layout.OriginalPath(result.NewPath))

	if result.Complete() {
		m.logger.Info("renamed member", "from", mirroredPath, "to", result.NewPath,
			"metadata", result.MetadataRenamed, "original", result.OriginalRenamed)
	} else {
		m.logger.Warn("member renamed, sidecars left behind",
			"from", mirroredPath,
			"to", result.NewPath,
			"metadataError", result.MetadataErr,
			"originalError", result.OriginalErr,
		)
	}
	return result
}

// moveSidecar renames a sidecar file. A missing sidecar is not an error and reports false.
func moveSidecar(fsys afero.Fs, from string, to string) (bool, error) {
	if _, err := fsys.Stat(from); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking sidecar %s: %w", from, err)
	}
	if err := fsys.Rename(from, to); err != nil {
		return false, fmt.Errorf("renaming sidecar %s: %w", from, err)
	}
	return true, nil
}
