package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// ContentHash returns the hash stored with original content, as lower-case hex.
func ContentHash(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// WriteOriginal stores the as-mirrored text of dirPath/fileName. The record is written once:
// when one already exists nothing is changed and written is false.
func (s *Store) WriteOriginal(dirPath string, fileName string, text string) (written bool, err error) {
	origPath := s.layout.OriginalPath(filepath.Join(dirPath, fileName))

	exists, err := afero.Exists(s.fs, origPath)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", origPath, err)
	}
	if exists {
		return false, nil
	}

	if err := s.ensureDir(s.layout.OriginalDirPath(dirPath)); err != nil {
		return false, err
	}

	original := OriginalContent{
		MirroredFileName:  fileName,
		OriginalLinesText: text,
		ContentHash:       ContentHash(text),
	}
	data, err := json.Marshal(original)
	if err != nil {
		return false, fmt.Errorf("encoding original content for %s: %w", fileName, err)
	}
	if err := afero.WriteFile(s.fs, origPath, data, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", origPath, err)
	}
	return true, nil
}

// ReadOriginal returns the original content of a mirrored file, or nil when there is none.
func (s *Store) ReadOriginal(mirroredPath string) *OriginalContent {
	origPath := s.layout.OriginalPath(mirroredPath)
	data, err := afero.ReadFile(s.fs, origPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("ignoring original content", "path", mirroredPath, "reason", "unreadable", "error", err)
		}
		return nil
	}
	if len(data) == 0 {
		s.logger.Debug("no original content", "path", mirroredPath)
		return nil
	}

	var original OriginalContent
	if err := json.Unmarshal(data, &original); err != nil {
		s.logger.Warn("ignoring original content", "path", mirroredPath, "reason", "malformed", "error", err)
		return nil
	}
	if original.ContentHash == "" {
		original.ContentHash = ContentHash(original.OriginalLinesText)
	}
	return &original
}

// LocallyModified reports whether the mirrored file's text differs from its original content.
// Files without original content are reported as unmodified.
func (s *Store) LocallyModified(mirroredPath string) (bool, error) {
	original := s.ReadOriginal(mirroredPath)
	if original == nil {
		return false, nil
	}
	current, err := afero.ReadFile(s.fs, mirroredPath)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", mirroredPath, err)
	}
	return ContentHash(string(current)) != original.ContentHash, nil
}

// DeleteOriginal removes the original-content sidecar of dirPath/fileName, if any.
func (s *Store) DeleteOriginal(dirPath string, fileName string) error {
	origPath := s.layout.OriginalPath(filepath.Join(dirPath, fileName))
	if err := s.fs.Remove(origPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", origPath, err)
	}
	return nil
}
